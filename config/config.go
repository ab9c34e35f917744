package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/kinematic-ci/crsh/coalesce"
	"github.com/kinematic-ci/crsh/executor"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"
)

const (
	Docker = "docker"
	Local  = "local"

	envPrefix = "crsh"
)

type DockerConfig struct {
	Host string `yaml:"host" envconfig:"HOST"`
}

type LogConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Development bool   `yaml:"development" envconfig:"DEV"`
}

type ResizeConfig struct {
	MaxBatch int           `yaml:"max_batch" envconfig:"MAX_BATCH"`
	MaxWait  time.Duration `yaml:"max_wait" envconfig:"MAX_WAIT"`
}

// Config is read from a YAML file and overridden by CRSH_ prefixed
// environment variables, e.g. CRSH_DOCKER_HOST or CRSH_LOG_LEVEL.
type Config struct {
	Executor     string       `yaml:"executor" envconfig:"EXECUTOR"`
	Namespace    string       `yaml:"namespace" envconfig:"NAMESPACE"`
	DefaultShell string       `yaml:"default_shell" envconfig:"DEFAULT_SHELL"`
	Docker       DockerConfig `yaml:"docker" envconfig:"DOCKER"`
	Log          LogConfig    `yaml:"log" envconfig:"LOG"`
	Resize       ResizeConfig `yaml:"resize" envconfig:"RESIZE"`
}

func Default() *Config {
	return &Config{
		Executor:     Docker,
		DefaultShell: executor.DefaultShell,
		Log: LogConfig{
			Level: "warn",
		},
		Resize: ResizeConfig{
			MaxBatch: coalesce.DefaultMaxBatch,
			MaxWait:  coalesce.DefaultMaxWait,
		},
	}
}

// DefaultPath is the configuration file used when none is given.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")

	if base == "" {
		home, err := os.UserHomeDir()

		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}

	return filepath.Join(base, "crsh", "config.yaml")
}

func Load(bytes []byte) (*Config, error) {
	config := Default()
	err := yaml.Unmarshal(bytes, config)

	if err != nil {
		return nil, errors.Wrap(err, "unable to parse yaml")
	}

	err = validate(config)

	if err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	return config, nil
}

// LoadFile reads the configuration at path. A missing file yields the
// defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	bytes, err := ioutil.ReadFile(path)

	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrapf(err, "unable to read config file %s", path)
	}

	config, err := Load(bytes)

	if err != nil {
		return nil, errors.Wrapf(err, "invalid config file %s", path)
	}

	return config, nil
}

// FromEnv applies environment overrides to config and validates the result.
func FromEnv(config *Config) error {
	err := envconfig.Process(envPrefix, config)

	if err != nil {
		return errors.Wrap(err, "unable to read environment")
	}

	err = validate(config)

	if err != nil {
		return errors.Wrap(err, "validation failed")
	}

	return nil
}

func validate(config *Config) error {
	if config.Executor != Docker && config.Executor != Local {
		return errors.Errorf("unsupported executor: %s", config.Executor)
	}

	if config.DefaultShell == "" {
		return errors.New("default shell is required")
	}

	if config.Resize.MaxBatch <= 0 {
		return errors.Errorf("resize batch size must be positive, got %d", config.Resize.MaxBatch)
	}

	if config.Resize.MaxWait <= 0 {
		return errors.Errorf("resize wait must be positive, got %s", config.Resize.MaxWait)
	}

	return nil
}
