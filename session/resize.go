package session

import (
	"context"
	"github.com/kinematic-ci/crsh/coalesce"
	"github.com/kinematic-ci/crsh/executor"
	"github.com/kinematic-ci/crsh/runner"
	"go.uber.org/zap"
)

// feedResizes sends the current window size, then one update per batch of
// window change notifications. It only returns on error or cancellation.
func (m *Multiplexer) feedResizes(resizer executor.Resizer) runner.Task {
	return func(ctx context.Context) error {
		if resizer == nil {
			return &ChannelError{Stream: "resize", Err: errNoResizeChannel}
		}

		notifications, stop, err := m.Subscribe()

		if err != nil {
			return &SubscriptionError{Err: err}
		}
		defer stop()

		coalescer := m.Coalescer

		if coalescer.MaxBatch <= 0 || coalescer.MaxWait <= 0 {
			coalescer = coalesce.New(coalescer.MaxBatch, coalescer.MaxWait)
		}

		batches := coalescer.Run(ctx, notifications)

		for {
			err := m.sendSize(ctx, resizer)

			if err != nil {
				return err
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case batch, ok := <-batches:
				if !ok {
					<-ctx.Done()
					return ctx.Err()
				}

				m.logger().Debug("window size changed", zap.Int("notifications", batch.Len()))
			}
		}
	}
}

func (m *Multiplexer) sendSize(ctx context.Context, resizer executor.Resizer) error {
	size, err := m.Sizes.Sample()

	if err != nil {
		return &ChannelError{Stream: "resize", Err: err}
	}

	err = resizer.Resize(ctx, executor.TerminalSize{Width: size.Cols, Height: size.Rows})

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ChannelError{Stream: "resize", Err: err}
	}

	return nil
}
