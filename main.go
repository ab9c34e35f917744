package main

import (
	"context"
	"fmt"
	"github.com/alexflint/go-arg"
	"github.com/kinematic-ci/crsh/cli"
	"github.com/kinematic-ci/crsh/logging"
	"go.uber.org/zap"
	"os"
	"os/signal"
	"syscall"
)

type arguments struct {
	Exec     *cli.ExecArgs `arg:"subcommand:exec" help:"Open a shell in a target, or run the command given after --"`
	List     *cli.ListArgs `arg:"subcommand:list" help:"List available targets"`
	Executor string        `arg:"--executor" help:"Executor to use: docker or local"`
	Config   string        `arg:"--config" help:"Configuration file, defaults to $XDG_CONFIG_HOME/crsh/config.yaml"`
}

// parse reads the arguments of crsh, with any command after "--" already
// split off.
func parse(flags []string) (*arg.Parser, *arguments, error) {
	args := &arguments{}

	p, err := arg.NewParser(arg.Config{Program: "crsh"}, args)

	if err != nil {
		return nil, nil, err
	}

	return p, args, p.Parse(cli.WithDefaultCommand(flags))
}

func main() {
	os.Exit(run())
}

func run() int {
	flags, command := cli.SplitCommand(os.Args[1:])

	p, args, err := parse(flags)

	switch {
	case p == nil:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitFailure
	case err == arg.ErrHelp:
		p.WriteHelp(os.Stdout)
		return cli.ExitOK
	case err != nil:
		p.Fail(err.Error())
	case args.Exec == nil && args.List == nil:
		p.Fail("missing target")
	}

	cfg, err := cli.LoadConfig(args.Config, args.Executor)

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading configuration:", err)
		return cli.ExitFailure
	}

	logger, err := logging.New(cfg.Log)

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating logger:", err)
		return cli.ExitFailure
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	runtime, err := cli.NewRuntime(ctx, cfg, logger)

	if err != nil {
		logger.Debug("unable to create runtime", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitFailure
	}
	defer runtime.Close(context.Background())

	if args.List != nil {
		return cli.List(ctx, runtime, args.List)
	}

	args.Exec.Command = command

	return cli.Exec(ctx, runtime, args.Exec)
}
