package session

import (
	"context"
	"errors"
	"github.com/kinematic-ci/crsh/coalesce"
	"github.com/kinematic-ci/crsh/executor"
	"github.com/kinematic-ci/crsh/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"os"
	"strings"
	"testing"
	"time"
)

func newTestMultiplexer(t *testing.T, mode *fakeMode) *Multiplexer {
	return &Multiplexer{
		In:        blockingReader(t),
		Out:       &syncBuffer{},
		Mode:      mode,
		Sizes:     fakeSampler{size: terminal.WindowSize{Rows: 24, Cols: 80}},
		Subscribe: subscription(make(chan os.Signal)),
		Coalescer: coalesce.New(50, 100*time.Millisecond),
		Logger:    zap.NewNop(),
	}
}

func newTestSession(t *testing.T) *fakeSession {
	return &fakeSession{
		stdin:   &syncBuffer{},
		stdout:  blockingReader(t),
		resizer: newFakeResizer(),
	}
}

func runWithTimeout(t *testing.T, m *Multiplexer, ctx context.Context, remote *fakeSession) error {
	t.Helper()

	result := make(chan error, 1)
	go func() { result <- m.Run(ctx, remote) }()

	select {
	case err := <-result:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end")
		return nil
	}
}

func TestMultiplexer_Run(t *testing.T) {
	t.Run("Should restore terminal once when remote process exits", func(t *testing.T) {
		mode := &fakeMode{}
		m := newTestMultiplexer(t, mode)
		remote := newTestSession(t)
		remote.end = func(context.Context) (int, error) { return 0, nil }

		err := runWithTimeout(t, m, context.Background(), remote)

		assert.NoError(t, err)
		assert.Equal(t, int32(1), mode.rawCalls)
		assert.Equal(t, int32(1), mode.restores())
		assert.Equal(t, Done, m.State())
	})

	t.Run("Should end session when local input is exhausted", func(t *testing.T) {
		mode := &fakeMode{}
		m := newTestMultiplexer(t, mode)
		m.In = strings.NewReader("ls -l\n")
		remote := newTestSession(t)

		err := runWithTimeout(t, m, context.Background(), remote)

		assert.NoError(t, err)
		assert.Equal(t, "ls -l\n", remote.stdin.(*syncBuffer).String())
		assert.Equal(t, int32(1), mode.restores())
	})

	t.Run("Should forward remote output until it ends", func(t *testing.T) {
		mode := &fakeMode{}
		m := newTestMultiplexer(t, mode)
		remote := newTestSession(t)
		remote.stdout = strings.NewReader("$ ")

		err := runWithTimeout(t, m, context.Background(), remote)

		assert.NoError(t, err)
		assert.Equal(t, "$ ", m.Out.(*syncBuffer).String())
		assert.Equal(t, int32(1), mode.restores())
	})

	t.Run("Should restore terminal once when a stream fails", func(t *testing.T) {
		mode := &fakeMode{}
		m := newTestMultiplexer(t, mode)
		failure := errors.New("broken pipe")
		m.Out = failingWriter{failure}
		remote := newTestSession(t)
		remote.stdout = strings.NewReader("output")

		err := runWithTimeout(t, m, context.Background(), remote)

		var channelErr *ChannelError
		require.True(t, errors.As(err, &channelErr))
		assert.Equal(t, "stdout", channelErr.Stream)
		assert.True(t, errors.Is(err, failure))
		assert.Equal(t, int32(1), mode.restores())
	})

	t.Run("Should report remote exit code", func(t *testing.T) {
		mode := &fakeMode{}
		m := newTestMultiplexer(t, mode)
		remote := newTestSession(t)
		remote.end = func(context.Context) (int, error) { return 130, nil }

		err := runWithTimeout(t, m, context.Background(), remote)

		var exitErr *executor.ExitError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, 130, exitErr.Code)
		assert.Equal(t, int32(1), mode.restores())
	})

	t.Run("Should restore terminal once when cancelled externally", func(t *testing.T) {
		mode := &fakeMode{}
		m := newTestMultiplexer(t, mode)
		remote := newTestSession(t)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		err := runWithTimeout(t, m, ctx, remote)

		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, int32(1), mode.restores())
	})

	t.Run("Should combine restore failure with session error", func(t *testing.T) {
		restoreFailure := errors.New("restore failed")
		mode := &fakeMode{restoreErr: restoreFailure}
		m := newTestMultiplexer(t, mode)
		remote := newTestSession(t)
		remote.end = func(context.Context) (int, error) { return 2, nil }

		err := runWithTimeout(t, m, context.Background(), remote)

		errs := multierr.Errors(err)
		require.Len(t, errs, 2)
		var exitErr *executor.ExitError
		assert.True(t, errors.As(errs[0], &exitErr))
		assert.Equal(t, restoreFailure, errs[1])
		assert.Equal(t, int32(1), mode.restores())
	})

	t.Run("Should report restore failure after a clean exit", func(t *testing.T) {
		restoreFailure := errors.New("restore failed")
		mode := &fakeMode{restoreErr: restoreFailure}
		m := newTestMultiplexer(t, mode)
		remote := newTestSession(t)
		remote.end = func(context.Context) (int, error) { return 0, nil }

		err := runWithTimeout(t, m, context.Background(), remote)

		assert.Equal(t, restoreFailure, err)
	})

	t.Run("Should fail before touching the terminal when input is not a terminal", func(t *testing.T) {
		mode := &fakeMode{checkErr: terminal.ErrNotATerminal}
		m := newTestMultiplexer(t, mode)
		remote := newTestSession(t)

		err := runWithTimeout(t, m, context.Background(), remote)

		assert.True(t, errors.Is(err, terminal.ErrNotATerminal))
		assert.Equal(t, int32(0), mode.rawCalls)
		assert.Equal(t, int32(0), mode.restores())
		assert.Equal(t, Done, m.State())
	})

	t.Run("Should not start streams when raw mode fails", func(t *testing.T) {
		rawFailure := &terminal.ConfigError{Op: "applying raw", Err: errors.New("EIO")}
		mode := &fakeMode{rawErr: rawFailure}
		m := newTestMultiplexer(t, mode)
		m.In = strings.NewReader("typed")
		remote := newTestSession(t)

		err := runWithTimeout(t, m, context.Background(), remote)

		assert.Equal(t, rawFailure, err)
		assert.Equal(t, int32(0), mode.restores())
		assert.Equal(t, "", remote.stdin.(*syncBuffer).String())
	})

	t.Run("Should fail when remote session has no input stream", func(t *testing.T) {
		mode := &fakeMode{}
		m := newTestMultiplexer(t, mode)
		remote := newTestSession(t)
		remote.stdin = nil

		err := runWithTimeout(t, m, context.Background(), remote)

		var channelErr *ChannelError
		require.True(t, errors.As(err, &channelErr))
		assert.Equal(t, int32(0), mode.rawCalls)
	})

	t.Run("Should end session when resize notifications are unavailable", func(t *testing.T) {
		mode := &fakeMode{}
		m := newTestMultiplexer(t, mode)
		m.Subscribe = func() (<-chan os.Signal, func(), error) {
			return nil, nil, coalesce.ErrUnsupported
		}
		remote := newTestSession(t)

		err := runWithTimeout(t, m, context.Background(), remote)

		assert.True(t, errors.Is(err, ErrSignalSubscription))
		assert.True(t, errors.Is(err, coalesce.ErrUnsupported))
		assert.Equal(t, int32(1), mode.restores())
	})

	t.Run("Should end session when remote session has no resize channel", func(t *testing.T) {
		mode := &fakeMode{}
		m := newTestMultiplexer(t, mode)
		remote := newTestSession(t)
		remote.resizer = nil

		err := runWithTimeout(t, m, context.Background(), remote)

		var channelErr *ChannelError
		require.True(t, errors.As(err, &channelErr))
		assert.Equal(t, "resize", channelErr.Stream)
		assert.Equal(t, int32(1), mode.restores())
	})
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "mode-capturing", ModeCapturing.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "restoring", Restoring.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "unknown", State(42).String())
}
