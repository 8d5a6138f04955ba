// Package print provides the "print" task function, which writes its inputs
// to the module's writer, one per line, and returns the printed text.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out defaults to os.Stdout.
	Out io.Writer
}

// Register registers the function with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.MustRegister("print", m.Print)
}

// Print writes every input on its own line. Maps are printed with sorted keys
// for stable output.
func (m *Module) Print(ctx context.Context, inputs ...any) (any, error) {
	ctxlog.FromContext(ctx).Info("Printing input", "count", len(inputs))

	var b strings.Builder
	if len(inputs) == 0 {
		b.WriteString("(null)\n")
	}
	for _, in := range inputs {
		b.WriteString(format(in))
		b.WriteByte('\n')
	}

	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	if _, err := io.WriteString(out, b.String()); err != nil {
		return nil, err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func format(v any) string {
	switch t := v.(type) {
	case nil:
		return "(null)"
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s = %q", k, t[k]))
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s = %v", k, t[k]))
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprint(t)
	}
}
