package cli

import (
	"context"
	"github.com/kinematic-ci/crsh/coalesce"
	"github.com/kinematic-ci/crsh/config"
	"github.com/kinematic-ci/crsh/executor"
	"github.com/kinematic-ci/crsh/session"
	"github.com/kinematic-ci/crsh/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"io"
	"os"
)

// Terminal relays an interactive session to the local terminal.
type Terminal interface {
	Run(ctx context.Context, remote executor.Session) error
}

type Runtime struct {
	Config   *config.Config
	Executor executor.Executor
	Terminal Terminal
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *zap.Logger
}

// LoadConfig reads the config file at path, or the default location, and
// applies environment and command line overrides.
func LoadConfig(path, executorName string) (*config.Config, error) {
	cfg, err := config.LoadFile(utils.StringOrDefault(path, config.DefaultPath()))

	if err != nil {
		return nil, err
	}

	err = config.FromEnv(cfg)

	if err != nil {
		return nil, errors.Wrap(err, "invalid environment configuration")
	}

	cfg.Executor = utils.StringOrDefault(executorName, cfg.Executor)

	return cfg, nil
}

func NewExecutor(ctx context.Context, cfg *config.Config, logger *zap.Logger) (executor.Executor, error) {
	switch cfg.Executor {
	case config.Docker:
		return executor.NewDockerExecutor(ctx, cfg.Docker.Host, logger)
	case config.Local:
		return executor.NewLocalExecutor(logger), nil
	}

	return nil, errors.Errorf("unsupported executor: %s", cfg.Executor)
}

// NewRuntime connects to the configured executor and attaches to the
// process terminal.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	exec, err := NewExecutor(ctx, cfg, logger)

	if err != nil {
		return nil, err
	}

	coalescer := coalesce.New(cfg.Resize.MaxBatch, cfg.Resize.MaxWait)

	return &Runtime{
		Config:   cfg,
		Executor: exec,
		Terminal: session.NewTerminalMultiplexer(os.Stdin, os.Stdout, coalescer, logger),
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Logger:   logger,
	}, nil
}

func (r *Runtime) Close(ctx context.Context) {
	err := r.Executor.Close(ctx)

	if err != nil {
		r.Logger.Warn("error closing executor", zap.Error(err))
	}
}
