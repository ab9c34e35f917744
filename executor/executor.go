package executor

import (
	"context"
	"io"
)

// TerminalSize is a window size update for a remote tty.
type TerminalSize struct {
	Width  uint16
	Height uint16
}

type Resizer interface {
	Resize(ctx context.Context, size TerminalSize) error
}

// Session is an attached remote process. Stdin is nil when stdin was not
// requested, Stderr is nil unless a separate error stream was requested
// and Resizer is nil unless the process runs in a tty.
type Session interface {
	Stdin() io.Writer
	Stdout() io.Reader
	Stderr() io.Reader
	Resizer() Resizer
	CloseWrite() error
	// End blocks until the remote process is gone and returns its exit code.
	End(ctx context.Context) (int, error)
	Close() error
}

type Request struct {
	Target    string
	Container string
	Namespace string
	Command   []string
	TTY       bool
	Stdin     bool
	Stderr    bool
}

// Target is a workload and the containers a session can be opened in.
type Target struct {
	Name       string
	Containers []string
}

type Executor interface {
	Name() string
	Session(ctx context.Context, request Request) (Session, error)
	Targets(ctx context.Context, namespace string) ([]Target, error)
	Close(ctx context.Context) error
}
