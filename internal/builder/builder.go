package builder

import (
	"context"
	"sort"

	"github.com/vk/taskgrid/internal/clock"
	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/datanode"
	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/registry"
	"github.com/vk/taskgrid/internal/submittable"
	"github.com/vk/taskgrid/internal/task"
)

// Option configures Build.
type Option func(*options)

type options struct {
	clock clock.Clock
}

// WithClock sets the clock of every built data node.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// Entities holds everything built from one model, keyed by config ID.
type Entities struct {
	DataNodes map[string]*datanode.InMemory
	Tasks     map[string]*task.Task
	Scenarios map[string]*submittable.Scenario
}

// Build constructs the entities declared in model.
func Build(ctx context.Context, model *config.Model, reg *registry.Registry, opts ...Option) (*Entities, error) {
	o := options{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := ctxlog.FromContext(ctx)

	e := &Entities{
		DataNodes: make(map[string]*datanode.InMemory, len(model.DataNodes)),
		Tasks:     make(map[string]*task.Task, len(model.Tasks)),
		Scenarios: make(map[string]*submittable.Scenario, len(model.Scenarios)),
	}

	for _, dn := range model.DataNodes {
		node, err := buildDataNode(dn, o)
		if err != nil {
			return nil, err
		}
		e.DataNodes[dn.ID] = node
	}
	logger.Debug("Build: data nodes created.", "count", len(e.DataNodes))

	for _, t := range model.Tasks {
		built, err := e.buildTask(t, reg)
		if err != nil {
			return nil, err
		}
		e.Tasks[t.ID] = built
	}
	logger.Debug("Build: tasks created.", "count", len(e.Tasks))

	for _, sc := range model.Scenarios {
		built, err := e.buildScenario(sc)
		if err != nil {
			return nil, err
		}
		e.Scenarios[sc.ID] = built
	}
	logger.Info("Build: entities constructed.",
		"data_nodes", len(e.DataNodes),
		"tasks", len(e.Tasks),
		"scenarios", len(e.Scenarios),
	)
	return e, nil
}

func buildDataNode(dn *config.DataNode, o options) (*datanode.InMemory, error) {
	nodeOpts := []datanode.Option{datanode.WithClock(o.clock)}
	if dn.ValidityPeriod > 0 {
		nodeOpts = append(nodeOpts, datanode.WithValidityPeriod(dn.ValidityPeriod))
	}
	v, ok, err := dn.DefaultValue()
	if err != nil {
		return nil, cerrors.ErrInvalidConfig.GenWithStackByArgs(err.Error())
	}
	if ok {
		nodeOpts = append(nodeOpts, datanode.WithDefault(v))
	}
	return datanode.NewInMemory(dn.ID, nodeOpts...), nil
}

func (e *Entities) buildTask(t *config.Task, reg *registry.Registry) (*task.Task, error) {
	fn, err := reg.Lookup(t.Function)
	if err != nil {
		return nil, err
	}
	inputs, err := e.dataNodes(t.Inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := e.dataNodes(t.Outputs)
	if err != nil {
		return nil, err
	}
	return task.New(t.ID, t.Function, fn, inputs, outputs, t.Skippable), nil
}

func (e *Entities) dataNodes(ids []string) ([]datanode.DataNode, error) {
	out := make([]datanode.DataNode, 0, len(ids))
	for _, id := range ids {
		dn, ok := e.DataNodes[id]
		if !ok {
			return nil, cerrors.ErrNonExistingDataNode.GenWithStackByArgs(id)
		}
		out = append(out, dn)
	}
	return out, nil
}

func (e *Entities) buildScenario(sc *config.Scenario) (*submittable.Scenario, error) {
	tasks := make([]*task.Task, 0, len(sc.Tasks))
	for _, id := range sc.Tasks {
		t, ok := e.Tasks[id]
		if !ok {
			return nil, cerrors.ErrNonExistingTask.GenWithStackByArgs(id)
		}
		tasks = append(tasks, t)
	}
	built, err := submittable.NewScenario(sc.ID, tasks)
	if err != nil {
		return nil, err
	}
	for _, seq := range sc.Sequences {
		if _, err := built.AddSequence(seq.Name, seq.Tasks); err != nil {
			return nil, err
		}
	}
	return built, nil
}

// Resolve picks the submittable a run targets. Exactly one of scenario or
// taskID is expected; sequence narrows scenario to one of its sequences.
func (e *Entities) Resolve(scenario, sequence, taskID string) (submittable.Submittable, error) {
	if taskID != "" {
		t, ok := e.Tasks[taskID]
		if !ok {
			return nil, cerrors.ErrNonExistingTask.GenWithStackByArgs(taskID)
		}
		return submittable.ForTask(t), nil
	}

	sc, ok := e.Scenarios[scenario]
	if !ok {
		return nil, cerrors.ErrNonExistingScenario.GenWithStackByArgs(scenario)
	}
	if sequence == "" {
		return sc, nil
	}
	seq, ok := sc.Sequence(sequence)
	if !ok {
		return nil, cerrors.ErrNonExistingSequence.GenWithStackByArgs(sequence, scenario)
	}
	return seq, nil
}

// ScenarioIDs returns the config IDs of every scenario in sorted order.
func (e *Entities) ScenarioIDs() []string {
	ids := make([]string, 0, len(e.Scenarios))
	for id := range e.Scenarios {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
