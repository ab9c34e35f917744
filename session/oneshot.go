package session

import (
	"context"
	"github.com/kinematic-ci/crsh/executor"
	"github.com/kinematic-ci/crsh/runner"
	"go.uber.org/zap"
	"io"
)

// OneShot forwards the output of a command running without a terminal
// until the command ends or a stream fails.
func OneShot(ctx context.Context, remote executor.Session, stdout, stderr io.Writer, logger *zap.Logger) error {
	source := remote.Stdout()

	if source == nil {
		return &ChannelError{Stream: "stdout", Err: errMissingStream}
	}

	branches := []runner.Branch{
		{Name: "stdout", Run: copyStream("stdout", stdout, source, true)},
	}

	if errorSource := remote.Stderr(); errorSource != nil {
		branches = append(branches, runner.Branch{Name: "stderr", Run: copyStream("stderr", stderr, errorSource, true)})
	}

	branches = append(branches, runner.Branch{Name: "exit", Run: awaitExit(remote)})

	winner, err := runner.First(ctx, branches...)

	logger.Debug("command finished", zap.String("branch", winner), zap.Error(err))

	return err
}
