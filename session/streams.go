package session

import (
	"context"
	"github.com/kinematic-ci/crsh/executor"
	"github.com/kinematic-ci/crsh/runner"
	"io"
)

// copyStream forwards src to dst until src is exhausted. With holdOnEOF a
// clean end of stream does not finish the branch; it waits for another
// branch to decide the outcome.
func copyStream(name string, dst io.Writer, src io.Reader, holdOnEOF bool) runner.Task {
	forward := runner.Detach(func() error {
		_, err := io.Copy(dst, src)

		if err != nil {
			return &ChannelError{Stream: name, Err: err}
		}

		return nil
	})

	if !holdOnEOF {
		return forward
	}

	return func(ctx context.Context) error {
		err := forward(ctx)

		if err != nil {
			return err
		}

		<-ctx.Done()
		return nil
	}
}

func awaitExit(remote executor.Session) runner.Task {
	return func(ctx context.Context) error {
		code, err := remote.End(ctx)

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &ChannelError{Stream: "exit", Err: err}
		}

		if code != 0 {
			return &executor.ExitError{Code: code}
		}

		return nil
	}
}
