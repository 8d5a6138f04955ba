// Package env_vars provides the "env_vars" task function, which snapshots the
// process environment into a map, and "env_vars.worker", which reports the
// configuration a standalone worker was handed with its job.
package env_vars

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the function with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.MustRegister("env_vars", EnvVars)
	r.MustRegister("env_vars.worker", Worker)
}

// EnvVars returns the environment as a map[string]string. An optional string
// input keeps only the variables whose name starts with it.
func EnvVars(_ context.Context, inputs ...any) (any, error) {
	prefix := ""
	if len(inputs) > 0 {
		p, ok := inputs[0].(string)
		if !ok {
			return nil, fmt.Errorf("env_vars: prefix must be a string, got %T", inputs[0])
		}
		prefix = p
	}

	envMap := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 && strings.HasPrefix(pair[0], prefix) {
			envMap[pair[0]] = pair[1]
		}
	}
	return envMap, nil
}

// Worker returns the worker properties restored from the job's configuration
// snapshot, plus "mode" and "max_workers". Jobs run outside a standalone
// worker carry no snapshot and get an empty map.
func Worker(ctx context.Context, _ ...any) (any, error) {
	props := make(map[string]string)
	snap, ok := config.SnapshotFromContext(ctx)
	if !ok {
		return props, nil
	}
	for k, v := range snap.Properties {
		props[k] = v
	}
	props["mode"] = string(snap.Execution.Mode)
	props["max_workers"] = strconv.Itoa(snap.Execution.MaxWorkers)
	return props, nil
}
