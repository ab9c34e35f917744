package coalesce

import (
	"context"
	"github.com/kinematic-ci/crsh/list"
	"os"
	"time"
)

const (
	DefaultMaxBatch = 50
	DefaultMaxWait  = time.Second
)

// Coalescer groups bursts of events into batches bounded by size and by
// the time elapsed since the first event of the batch.
type Coalescer struct {
	MaxBatch int
	MaxWait  time.Duration
}

func New(maxBatch int, maxWait time.Duration) Coalescer {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}

	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	return Coalescer{MaxBatch: maxBatch, MaxWait: maxWait}
}

// Run delivers closed batches of events until ctx is done or events is
// closed. A batch closes as soon as it holds MaxBatch events or MaxWait
// has passed since it opened. The returned channel is closed on exit.
func (c Coalescer) Run(ctx context.Context, events <-chan os.Signal) <-chan *list.Batch {
	batches := make(chan *list.Batch)

	go func() {
		defer close(batches)

		var (
			batch    *list.Batch
			timer    *time.Timer
			deadline <-chan time.Time
		)

		flush := func() bool {
			if timer != nil {
				timer.Stop()
				timer, deadline = nil, nil
			}

			closed := batch
			batch = nil

			select {
			case batches <- closed:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					if batch != nil {
						flush()
					}
					return
				}

				if batch == nil {
					batch = list.NewBatch()
					timer = time.NewTimer(c.MaxWait)
					deadline = timer.C
				}

				batch.Add(event)

				if batch.Len() >= c.MaxBatch && !flush() {
					return
				}
			case <-deadline:
				if !flush() {
					return
				}
			}
		}
	}()

	return batches
}
