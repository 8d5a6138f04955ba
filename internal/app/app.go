package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/taskgrid/internal/builder"
	"github.com/vk/taskgrid/internal/clock"
	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/registry"
	"github.com/vk/taskgrid/internal/submittable"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	cfg      *Config
	clock    clock.Clock
	registry *registry.Registry
	model    *config.Model
	exec     config.Execution
	entities *builder.Entities
}

// NewApp loads the project named by cfg, checks every task against the
// registered functions and builds the entities. Reports are written to outW,
// logs to cfg.LogOutput. With no modules given the core modules are used.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logW := cfg.LogOutput
	if logW == nil {
		logW = os.Stderr
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.Paths...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	reg := registry.New(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "functions", reg.Names())
	if err := reg.Validate(ctx, model); err != nil {
		return nil, err
	}

	exec := cfg.execution(model.Execution)
	if err := exec.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		outW:     outW,
		logger:   logger,
		cfg:      cfg,
		clock:    clock.New(),
		registry: reg,
		model:    model,
		exec:     exec,
	}
	a.entities, err = builder.Build(ctx, model, reg, builder.WithClock(a.clock))
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Execution returns the effective execution settings.
func (a *App) Execution() config.Execution { return a.exec }

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry { return a.registry }

// Summary writes what the project declares.
func (a *App) Summary(w io.Writer) {
	fmt.Fprintf(w, "mode %s, %d workers\n", a.exec.Mode, a.exec.MaxWorkers)
	fmt.Fprintf(w, "%d data nodes, %d tasks, %d scenarios\n",
		len(a.entities.DataNodes), len(a.entities.Tasks), len(a.entities.Scenarios))
	for _, id := range a.entities.ScenarioIDs() {
		sc := a.entities.Scenarios[id]
		fmt.Fprintf(w, "scenario %s: %d tasks", id, len(sc.Tasks()))
		if names := sc.SequenceNames(); len(names) > 0 {
			fmt.Fprintf(w, ", sequences %v", names)
		}
		fmt.Fprintln(w)
	}
}

// target resolves the submittable selected by the configuration.
func (a *App) target() (submittable.Submittable, error) {
	if a.cfg.Scenario == "" && a.cfg.Task == "" {
		return nil, cerrors.ErrInvalidConfig.GenWithStackByArgs("a scenario or a task must be selected")
	}
	return a.entities.Resolve(a.cfg.Scenario, a.cfg.Sequence, a.cfg.Task)
}
