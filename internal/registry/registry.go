package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/task"
)

// Module is the interface that all built-in modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the task functions of a single application instance.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]task.Function
}

// New creates a registry holding the functions of modules.
func New(modules ...Module) *Registry {
	r := &Registry{functions: make(map[string]task.Function)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register adds fn under name.
func (r *Registry) Register(name string, fn task.Function) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.functions[name]; exists {
		return cerrors.ErrDuplicateFunction.GenWithStackByArgs(name)
	}
	r.functions[name] = fn
	return nil
}

// MustRegister is Register for module init code, where a clash is a
// programmer error.
func (r *Registry) MustRegister(name string, fn task.Function) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (task.Function, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.functions[name]
	if !ok {
		return nil, cerrors.ErrUnknownFunction.GenWithStackByArgs(name)
	}
	return fn, nil
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every task of model names a registered function.
func (r *Registry) Validate(ctx context.Context, model *config.Model) error {
	var errs []string
	for _, t := range model.Tasks {
		if _, err := r.Lookup(t.Function); err != nil {
			errs = append(errs, fmt.Sprintf("task '%s': function '%s' is not registered", t.ID, t.Function))
		}
	}
	if len(errs) > 0 {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs("registry validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	ctxlog.FromContext(ctx).Debug("Registry validation passed.", "tasks", len(model.Tasks), "functions", len(r.Names()))
	return nil
}
