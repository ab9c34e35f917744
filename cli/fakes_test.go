package cli

import (
	"bytes"
	"context"
	"github.com/kinematic-ci/crsh/config"
	"github.com/kinematic-ci/crsh/executor"
	"go.uber.org/zap"
	"io"
	"strings"
	"sync"
)

type syncBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}

// finishedOutput signals once the command output was read completely.
type finishedOutput struct {
	reader io.Reader
	once   sync.Once
	done   chan struct{}
}

func newFinishedOutput(data string) *finishedOutput {
	return &finishedOutput{reader: strings.NewReader(data), done: make(chan struct{})}
}

func (o *finishedOutput) Read(p []byte) (int, error) {
	n, err := o.reader.Read(p)
	if err == io.EOF {
		o.once.Do(func() { close(o.done) })
	}
	return n, err
}

type fakeSession struct {
	stdout *finishedOutput
	code   int
	closed bool
}

func (s *fakeSession) Stdin() io.Writer { return nil }
func (s *fakeSession) Stdout() io.Reader { return s.stdout }
func (s *fakeSession) Stderr() io.Reader { return nil }
func (s *fakeSession) Resizer() executor.Resizer { return nil }
func (s *fakeSession) CloseWrite() error { return nil }
func (s *fakeSession) Close() error { s.closed = true; return nil }

func (s *fakeSession) End(ctx context.Context) (int, error) {
	select {
	case <-s.stdout.done:
		return s.code, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

type fakeExecutor struct {
	session    *fakeSession
	sessionErr error
	targets    []executor.Target
	targetsErr error

	requests   []executor.Request
	namespaces []string
}

func (e *fakeExecutor) Name() string { return "fake" }

func (e *fakeExecutor) Session(_ context.Context, request executor.Request) (executor.Session, error) {
	e.requests = append(e.requests, request)
	if e.sessionErr != nil {
		return nil, e.sessionErr
	}
	return e.session, nil
}

func (e *fakeExecutor) Targets(_ context.Context, namespace string) ([]executor.Target, error) {
	e.namespaces = append(e.namespaces, namespace)
	return e.targets, e.targetsErr
}

func (e *fakeExecutor) Close(context.Context) error { return nil }

type fakeTerminal struct {
	err      error
	sessions []executor.Session
}

func (t *fakeTerminal) Run(_ context.Context, remote executor.Session) error {
	t.sessions = append(t.sessions, remote)
	return t.err
}

func newTestRuntime(exec *fakeExecutor, term *fakeTerminal) (*Runtime, *syncBuffer, *syncBuffer) {
	stdout, stderr := &syncBuffer{}, &syncBuffer{}

	return &Runtime{
		Config:   config.Default(),
		Executor: exec,
		Terminal: term,
		Stdout:   stdout,
		Stderr:   stderr,
		Logger:   zap.NewNop(),
	}, stdout, stderr
}
