package session

import (
	"context"
	"github.com/kinematic-ci/crsh/coalesce"
	"github.com/kinematic-ci/crsh/executor"
	"github.com/kinematic-ci/crsh/runner"
	"github.com/kinematic-ci/crsh/terminal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"io"
	"os"
	"sync"
)

type ModeController interface {
	Check() error
	MakeRaw() (*terminal.Attributes, error)
	Restore(saved *terminal.Attributes) error
}

type SizeSampler interface {
	Sample() (terminal.WindowSize, error)
}

// Multiplexer wires a local terminal to a remote session running in a tty.
type Multiplexer struct {
	In        io.Reader
	Out       io.Writer
	Mode      ModeController
	Sizes     SizeSampler
	Subscribe coalesce.Subscriber
	Coalescer coalesce.Coalescer
	Logger    *zap.Logger

	mu    sync.Mutex
	state State
}

// NewTerminalMultiplexer builds a multiplexer for the process terminal:
// in is both the input and the terminal whose mode and size are managed.
func NewTerminalMultiplexer(in, out *os.File, coalescer coalesce.Coalescer, logger *zap.Logger) *Multiplexer {
	return &Multiplexer{
		In:        in,
		Out:       out,
		Mode:      terminal.NewController(in),
		Sizes:     terminal.NewSampler(in),
		Subscribe: coalesce.WindowChanges,
		Coalescer: coalescer,
		Logger:    logger,
	}
}

func (m *Multiplexer) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

func (m *Multiplexer) transition(state State) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()

	m.logger().Debug("session state changed", zap.Stringer("state", state))
}

func (m *Multiplexer) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}

	return m.Logger
}

// Run puts the local terminal in raw mode and relays input, output and
// window size changes until the first of them ends, the remote process
// exits or ctx is cancelled. The terminal is restored before Run returns
// whenever raw mode was entered.
func (m *Multiplexer) Run(ctx context.Context, remote executor.Session) (err error) {
	m.transition(ModeCapturing)

	err = m.Mode.Check()

	if err != nil {
		m.transition(Done)
		return err
	}

	stdin, stdout := remote.Stdin(), remote.Stdout()

	if stdin == nil || stdout == nil {
		m.transition(Done)
		return &ChannelError{Stream: "stdio", Err: errMissingStream}
	}

	saved, err := m.Mode.MakeRaw()

	if err != nil {
		m.transition(Done)
		return err
	}

	defer func() {
		m.transition(Restoring)
		err = multierr.Append(err, m.Mode.Restore(saved))
		m.transition(Done)
	}()

	m.transition(Running)

	winner, err := runner.First(ctx,
		runner.Branch{Name: "stdin", Run: copyStream("stdin", stdin, m.In, false)},
		runner.Branch{Name: "stdout", Run: copyStream("stdout", m.Out, stdout, false)},
		runner.Branch{Name: "resize", Run: m.feedResizes(remote.Resizer())},
		runner.Branch{Name: "exit", Run: awaitExit(remote)},
	)

	m.logger().Debug("session ended", zap.String("branch", winner), zap.Error(err))

	return err
}
