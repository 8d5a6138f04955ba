package app

import (
	"io"
	"time"

	"github.com/vk/taskgrid/internal/config"
	cerrors "github.com/vk/taskgrid/internal/errors"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Paths are .hcl files or directories holding them.
	Paths []string `validate:"required,min=1,dive,required"`

	// Scenario, Sequence and Task pick what Run and Graph act on.
	Scenario string
	Sequence string
	Task     string

	// Mode and Workers override the execution block when set.
	Mode    config.Mode `validate:"omitempty,oneof=development standalone"`
	Workers int         `validate:"gte=0,lte=1024"`

	Force   bool
	Timeout time.Duration `validate:"gte=0"`

	// StorePath is a BadgerDB directory for job and submission records.
	// Records are kept in memory when it is empty.
	StorePath string

	StatusPort int    `validate:"gte=0,lte=65535"`
	LogFormat  string `validate:"oneof=text json"`
	LogLevel   string `validate:"oneof=debug info warn error"`
	// LogOutput defaults to os.Stderr.
	LogOutput io.Writer `validate:"-"`
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if err := config.ValidateStruct(cfg); err != nil {
		return nil, err
	}
	if cfg.Sequence != "" && cfg.Scenario == "" {
		return nil, cerrors.ErrInvalidConfig.GenWithStackByArgs("a sequence can only be selected together with its scenario")
	}
	if cfg.Scenario != "" && cfg.Task != "" {
		return nil, cerrors.ErrInvalidConfig.GenWithStackByArgs("select either a scenario or a task, not both")
	}
	return &cfg, nil
}

// execution merges the declared execution block with the overrides of c.
func (c *Config) execution(declared *config.Execution) config.Execution {
	exec := config.DefaultExecution()
	if declared != nil {
		exec = *declared
	}
	if c.Mode != "" {
		exec.Mode = c.Mode
	}
	if c.Workers > 0 {
		exec.MaxWorkers = c.Workers
	}
	return exec
}
