package executor

import (
	"context"
	"github.com/creack/pty"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
)

type shellSession struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *drainReader
	stderr *drainReader
	tty    *os.File

	waitOnce sync.Once
	exited   chan struct{}
	waitErr  error
}

func newShellSession(cmd *exec.Cmd, request Request) (*shellSession, error) {
	s := &shellSession{cmd: cmd, exited: make(chan struct{})}

	stdout, err := cmd.StdoutPipe()

	if err != nil {
		return nil, errors.Wrap(err, "unable to pipe STDOUT")
	}
	s.stdout = newDrainReader(stdout)

	if request.Stderr {
		stderr, err := cmd.StderrPipe()

		if err != nil {
			return nil, errors.Wrap(err, "unable to pipe STDERR")
		}
		s.stderr = newDrainReader(stderr)
	}

	if request.Stdin {
		s.stdin, err = cmd.StdinPipe()

		if err != nil {
			return nil, errors.Wrap(err, "unable to pipe STDIN")
		}
	}

	err = cmd.Start()

	if err != nil {
		return nil, errors.Wrap(err, "unable to start shell")
	}

	return s, nil
}

func newTerminalSession(cmd *exec.Cmd, request Request) (*shellSession, error) {
	tty, err := pty.Start(cmd)

	if err != nil {
		return nil, errors.Wrap(err, "unable to start shell in a terminal")
	}

	s := &shellSession{
		cmd:    cmd,
		stdout: newDrainReader(ptyReader{tty}),
		tty:    tty,
		exited: make(chan struct{}),
	}

	if request.Stdin {
		s.stdin = tty
	}

	return s, nil
}

// ptyReader reports the EIO returned once the terminal's other side is
// closed as a regular end of stream.
type ptyReader struct {
	file *os.File
}

func (r ptyReader) Read(p []byte) (int, error) {
	n, err := r.file.Read(p)

	if err != nil && errors.Is(err, syscall.EIO) {
		err = io.EOF
	}

	return n, err
}

func (s *shellSession) Stdin() io.Writer {
	if s.stdin == nil {
		return nil
	}

	return s.stdin
}

func (s *shellSession) Stdout() io.Reader {
	return s.stdout
}

func (s *shellSession) Stderr() io.Reader {
	if s.stderr == nil {
		return nil
	}

	return s.stderr
}

func (s *shellSession) Resizer() Resizer {
	if s.tty == nil {
		return nil
	}

	return s
}

func (s *shellSession) Resize(_ context.Context, size TerminalSize) error {
	err := pty.Setsize(s.tty, &pty.Winsize{Rows: size.Height, Cols: size.Width})

	if err != nil {
		return errors.Wrap(err, "unable to resize terminal")
	}

	return nil
}

func (s *shellSession) CloseWrite() error {
	if s.stdin == nil || s.tty != nil {
		return nil
	}

	err := s.stdin.Close()

	if err != nil {
		return errors.Wrap(err, "unable to close IO")
	}

	return nil
}

// End waits for the output to be read completely before reaping the
// process, since reaping closes the pipes.
func (s *shellSession) End(ctx context.Context) (int, error) {
	err := waitDrained(ctx, s.stdout, s.stderr)

	if err != nil {
		return -1, err
	}

	s.waitOnce.Do(func() {
		go func() {
			s.waitErr = s.cmd.Wait()
			close(s.exited)
		}()
	})

	select {
	case <-s.exited:
	case <-ctx.Done():
		return -1, ctx.Err()
	}

	var exitErr *exec.ExitError

	if s.waitErr != nil && !errors.As(s.waitErr, &exitErr) {
		return -1, errors.Wrap(s.waitErr, "error while waiting for process to end")
	}

	return s.cmd.ProcessState.ExitCode(), nil
}

func (s *shellSession) Close() error {
	if s.tty != nil {
		_ = s.tty.Close()
	}

	select {
	case <-s.exited:
		return nil
	default:
	}

	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}

	return nil
}

// LocalExecutor runs commands on this host. A target is the working
// directory of the command.
type LocalExecutor struct {
	logger *zap.Logger
}

func NewLocalExecutor(logger *zap.Logger) *LocalExecutor {
	return &LocalExecutor{logger: logger}
}

func (s *LocalExecutor) Name() string {
	return "local"
}

func (s *LocalExecutor) Session(_ context.Context, request Request) (Session, error) {
	if request.Container != "" {
		return nil, errors.Wrapf(ErrMalformedRequest, "local target '%s' has no container '%s'", request.Target, request.Container)
	}

	if len(request.Command) == 0 {
		return nil, errors.Wrap(ErrMalformedRequest, "no command to run")
	}

	info, err := os.Stat(request.Target)

	if err != nil {
		if os.IsNotExist(err) {
			return nil, classify(ErrTargetNotFound, err)
		}
		return nil, errors.Wrap(err, "unable to inspect target directory")
	}

	if !info.IsDir() {
		return nil, errors.Wrapf(ErrTargetNotFound, "'%s' is not a directory", request.Target)
	}

	if request.Namespace != "" {
		s.logger.Debug("namespace has no meaning for local targets", zap.String("namespace", request.Namespace))
	}

	cmd := exec.Command(request.Command[0], request.Command[1:]...)
	cmd.Dir = request.Target

	var session *shellSession

	if request.TTY {
		session, err = newTerminalSession(cmd, request)
	} else {
		session, err = newShellSession(cmd, request)
	}

	if err != nil {
		return nil, errors.Wrap(err, "unable to start session")
	}

	return session, nil
}

func (s *LocalExecutor) Targets(_ context.Context, _ string) ([]Target, error) {
	wd, err := os.Getwd()

	if err != nil {
		return nil, errors.Wrap(err, "unable to determine working directory")
	}

	return []Target{{Name: filepath.Clean(wd)}}, nil
}

func (s *LocalExecutor) Close(_ context.Context) error {
	return nil
}
