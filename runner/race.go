package runner

import (
	"context"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"sync"
)

// Task is one branch of a race. It must return promptly once its context
// is cancelled.
type Task func(ctx context.Context) error

type Branch struct {
	Name string
	Run  Task
}

// errFinished is handed to the errgroup by every branch so that the first
// branch to return, successfully or not, cancels the shared context.
var errFinished = errors.New("branch finished")

// First runs all branches concurrently and returns the name and the result
// of the first one to finish. The remaining branches are cancelled and
// First waits for them to return before it does.
func First(ctx context.Context, branches ...Branch) (string, error) {
	if len(branches) == 0 {
		return "", errors.New("no branches to run")
	}

	group, groupCtx := errgroup.WithContext(ctx)

	var (
		once   sync.Once
		winner string
		result error
	)

	for _, branch := range branches {
		branch := branch

		group.Go(func() error {
			err := branch.Run(groupCtx)

			once.Do(func() {
				winner = branch.Name
				result = err
			})

			return errFinished
		})
	}

	_ = group.Wait()

	return winner, result
}

// Detach wraps a blocking call that cannot observe a context. The returned
// task yields the call's result, or the context error as soon as the
// context is cancelled, leaving the call running in the background.
func Detach(fn func() error) Task {
	return func(ctx context.Context) error {
		done := make(chan error, 1)

		go func() {
			done <- fn()
		}()

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
