package session

// State is the lifecycle stage of an interactive session.
type State int

const (
	Idle State = iota
	ModeCapturing
	Running
	Restoring
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ModeCapturing:
		return "mode-capturing"
	case Running:
		return "running"
	case Restoring:
		return "restoring"
	case Done:
		return "done"
	}

	return "unknown"
}
