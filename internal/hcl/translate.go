package hcl

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
)

// translator accumulates blocks from several files into one model and
// rejects redeclarations across files.
type translator struct {
	ctx      context.Context
	model    *config.Model
	declared map[string]hcl.Range
}

func newTranslator(ctx context.Context) *translator {
	return &translator{
		ctx:      ctx,
		model:    &config.Model{},
		declared: make(map[string]hcl.Range),
	}
}

func (t *translator) add(root *fileRoot) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, b := range root.Executions {
		diags = append(diags, t.addExecution(b)...)
	}
	for _, b := range root.DataNodes {
		diags = append(diags, t.addDataNode(b)...)
	}
	for _, b := range root.Tasks {
		diags = append(diags, t.addTask(b)...)
	}
	for _, b := range root.Scenarios {
		diags = append(diags, t.addScenario(b)...)
	}
	return diags
}

// declare records kind+name and reports a duplicate if it was seen before.
func (t *translator) declare(kind, name string, at hcl.Range) hcl.Diagnostics {
	key := kind + "." + name
	if prev, ok := t.declared[key]; ok {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  fmt.Sprintf("Duplicate %q block", kind),
			Detail:   fmt.Sprintf("%s %q was already declared at %s.", kind, name, prev),
			Subject:  at.Ptr(),
		}}
	}
	t.declared[key] = at
	return nil
}

func (t *translator) addExecution(b *executionBlock) hcl.Diagnostics {
	if diags := t.declare("execution", "", b.DefRange); diags.HasErrors() {
		diags[0].Detail = "Only one \"execution\" block is allowed."
		return diags
	}
	exec := config.DefaultExecution()
	if b.Mode != nil {
		exec.Mode = config.Mode(*b.Mode)
	}
	if b.MaxWorkers != nil {
		exec.MaxWorkers = *b.MaxWorkers
	}
	t.model.Execution = &exec
	return nil
}

func (t *translator) addDataNode(b *dataNodeBlock) hcl.Diagnostics {
	if diags := t.declare("data_node", b.ID, b.DefRange); diags.HasErrors() {
		return diags
	}
	dn := &config.DataNode{ID: b.ID}

	if isExprDefined(t.ctx, b.Default, "default") {
		val, diags := b.Default.Value(nil)
		if diags.HasErrors() {
			return diags
		}
		if !val.IsNull() {
			dn.Default = &val
		}
	}

	if b.ValidityPeriod != nil {
		d, err := time.ParseDuration(*b.ValidityPeriod)
		if err != nil || d < 0 {
			return hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid validity period",
				Detail:   fmt.Sprintf("data_node %q: %q is not a non-negative duration such as \"90s\" or \"1h\".", b.ID, *b.ValidityPeriod),
				Subject:  b.DefRange.Ptr(),
			}}
		}
		dn.ValidityPeriod = d
	}

	t.model.DataNodes = append(t.model.DataNodes, dn)
	return nil
}

func (t *translator) addTask(b *taskBlock) hcl.Diagnostics {
	if diags := t.declare("task", b.ID, b.DefRange); diags.HasErrors() {
		return diags
	}
	t.model.Tasks = append(t.model.Tasks, &config.Task{
		ID:        b.ID,
		Function:  b.Function,
		Inputs:    b.Inputs,
		Outputs:   b.Outputs,
		Skippable: b.Skippable,
	})
	return nil
}

func (t *translator) addScenario(b *scenarioBlock) hcl.Diagnostics {
	if diags := t.declare("scenario", b.ID, b.DefRange); diags.HasErrors() {
		return diags
	}
	sc := &config.Scenario{ID: b.ID, Tasks: b.Tasks}
	names := make(map[string]struct{}, len(b.Sequences))
	for _, seq := range b.Sequences {
		if _, dup := names[seq.Name]; dup {
			return hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Duplicate \"sequence\" block",
				Detail:   fmt.Sprintf("scenario %q declares sequence %q twice.", b.ID, seq.Name),
				Subject:  b.DefRange.Ptr(),
			}}
		}
		names[seq.Name] = struct{}{}
		sc.Sequences = append(sc.Sequences, &config.Sequence{Name: seq.Name, Tasks: seq.Tasks})
	}
	t.model.Scenarios = append(t.model.Scenarios, sc)
	return nil
}

// isExprDefined checks if an HCL expression was actually present in the source.
// The decoder fills omitted optional attributes with a zero-width placeholder
// expression, so a nil check is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	defined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", defined,
	)
	return defined
}
