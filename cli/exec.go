package cli

import (
	"context"
	"github.com/kinematic-ci/crsh/executor"
	"github.com/kinematic-ci/crsh/session"
	"github.com/kinematic-ci/crsh/utils"
	"go.uber.org/zap"
	"os"
	"strings"
)

type ExecArgs struct {
	Target    string   `arg:"positional,required" help:"Workload to open the shell in"`
	Container string   `arg:"positional" help:"Container of the workload, defaults to its first replica"`
	Shell     string   `arg:"-s,--shell" help:"Shell to start, defaults to the configured default shell"`
	Namespace string   `arg:"-n,--namespace" help:"Namespace of the workload"`
	Command   []string `arg:"-"`
}

// Exec opens an interactive shell, or runs Command without a terminal when
// one was given, and returns the process exit code.
func Exec(ctx context.Context, runtime *Runtime, args *ExecArgs) int {
	interactive := len(args.Command) == 0
	request := buildRequest(runtime, args, os.LookupEnv)

	runtime.Logger.Debug("opening session",
		zap.String("executor", runtime.Executor.Name()),
		zap.String("target", request.Target),
		zap.String("container", request.Container),
		zap.String("namespace", request.Namespace),
		zap.String("command", strings.Join(request.Command, " ")),
		zap.Bool("tty", request.TTY))

	remote, err := runtime.Executor.Session(ctx, request)

	if err != nil {
		return exitCode(runtime.Stderr, err, interactive)
	}
	defer func() {
		err := remote.Close()

		if err != nil {
			runtime.Logger.Debug("error closing session", zap.Error(err))
		}
	}()

	if interactive {
		err = runtime.Terminal.Run(ctx, remote)
	} else {
		err = session.OneShot(ctx, remote, runtime.Stdout, runtime.Stderr, runtime.Logger)
	}

	return exitCode(runtime.Stderr, err, interactive)
}

func buildRequest(runtime *Runtime, args *ExecArgs, lookupEnv func(string) (string, bool)) executor.Request {
	request := executor.Request{
		Target:    args.Target,
		Container: args.Container,
		Namespace: utils.FirstNonEmpty(args.Namespace, runtime.Config.Namespace),
	}

	if len(args.Command) > 0 {
		request.Command = args.Command
		request.Stderr = true
		return request
	}

	defaultShell := runtime.Config.DefaultShell
	shell := utils.StringOrDefault(args.Shell, defaultShell)

	request.Command = executor.ShellCommand(shell, defaultShell, lookupEnv)
	request.TTY = true
	request.Stdin = true

	return request
}
