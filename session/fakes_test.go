package session

import (
	"bytes"
	"context"
	"github.com/kinematic-ci/crsh/executor"
	"github.com/kinematic-ci/crsh/terminal"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
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

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

type fakeMode struct {
	checkErr   error
	rawErr     error
	restoreErr error

	rawCalls     int32
	restoreCalls int32
}

func (m *fakeMode) Check() error { return m.checkErr }

func (m *fakeMode) MakeRaw() (*terminal.Attributes, error) {
	atomic.AddInt32(&m.rawCalls, 1)
	if m.rawErr != nil {
		return nil, m.rawErr
	}
	return &terminal.Attributes{}, nil
}

func (m *fakeMode) Restore(*terminal.Attributes) error {
	atomic.AddInt32(&m.restoreCalls, 1)
	return m.restoreErr
}

func (m *fakeMode) restores() int32 { return atomic.LoadInt32(&m.restoreCalls) }

type fakeSampler struct {
	size terminal.WindowSize
	err  error
}

func (s fakeSampler) Sample() (terminal.WindowSize, error) { return s.size, s.err }

type fakeResizer struct {
	sizes chan executor.TerminalSize
	err   error
}

func newFakeResizer() *fakeResizer {
	return &fakeResizer{sizes: make(chan executor.TerminalSize, 256)}
}

func (r *fakeResizer) Resize(_ context.Context, size executor.TerminalSize) error {
	if r.err != nil {
		return r.err
	}
	r.sizes <- size
	return nil
}

type fakeSession struct {
	stdin   io.Writer
	stdout  io.Reader
	stderr  io.Reader
	resizer executor.Resizer
	end     func(ctx context.Context) (int, error)
}

func (s *fakeSession) Stdin() io.Writer { return s.stdin }
func (s *fakeSession) Stdout() io.Reader { return s.stdout }
func (s *fakeSession) Stderr() io.Reader { return s.stderr }
func (s *fakeSession) CloseWrite() error { return nil }
func (s *fakeSession) Close() error { return nil }
func (s *fakeSession) Resizer() executor.Resizer {
	if s.resizer == nil {
		return nil
	}
	return s.resizer
}

func (s *fakeSession) End(ctx context.Context) (int, error) {
	if s.end == nil {
		<-ctx.Done()
		return -1, ctx.Err()
	}
	return s.end(ctx)
}

// blockingReader returns a reader that never yields data until the test ends.
func blockingReader(t *testing.T) io.Reader {
	reader, writer := io.Pipe()
	t.Cleanup(func() { _ = writer.Close() })
	return reader
}

func subscription(notifications chan os.Signal) func() (<-chan os.Signal, func(), error) {
	return func() (<-chan os.Signal, func(), error) {
		return notifications, func() {}, nil
	}
}
