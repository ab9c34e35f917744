package cli

import (
	"fmt"
	"github.com/kinematic-ci/crsh/executor"
	"github.com/kinematic-ci/crsh/terminal"
	"github.com/pkg/errors"
	"io"
)

const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitNotFound     = 3
	ExitMalformed    = 4
	ExitUnauthorized = 5
)

// exitCode maps the outcome of a command to the process exit code and
// reports failures on out. A remote exit code is propagated only for
// commands; an interactive shell ending with a failure is still a
// regular end of the session unless the terminal could not be restored.
func exitCode(out io.Writer, err error, interactive bool) int {
	if err == nil {
		return ExitOK
	}

	var (
		configErr *terminal.ConfigError
		exitErr   *executor.ExitError
	)

	switch {
	case errors.As(err, &configErr):
		fmt.Fprintln(out, "Error:", err)
		return ExitFailure
	case errors.As(err, &exitErr):
		if interactive {
			return ExitOK
		}
		return exitErr.Code
	case errors.Is(err, executor.ErrTargetNotFound):
		fmt.Fprintln(out, "Not found - check the target's name and make sure it exists")
		return ExitNotFound
	case errors.Is(err, executor.ErrMalformedRequest):
		fmt.Fprintln(out, "Bad request - check the container's name and make sure it exists inside the target")
		return ExitMalformed
	case errors.Is(err, executor.ErrUnauthorized):
		fmt.Fprintln(out, "Unauthorized - check your access to the container runtime")
		return ExitUnauthorized
	case errors.Is(err, terminal.ErrNotATerminal):
		fmt.Fprintln(out, "Not a terminal - pass a command after -- to run it without one")
		return ExitFailure
	}

	fmt.Fprintln(out, "Error:", err)
	return ExitFailure
}
