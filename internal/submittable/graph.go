package submittable

import (
	"github.com/vk/taskgrid/internal/dag"
	"github.com/vk/taskgrid/internal/datanode"
	"github.com/vk/taskgrid/internal/task"
)

const (
	taskPrefix     = "task:"
	dataNodePrefix = "datanode:"
)

// DAG is the derived task/data-node graph of a submittable. It is computed on
// demand and never stored.
type DAG struct {
	tasks     []*task.Task
	graph     *dag.Graph
	byTask    map[string]*task.Task
	byDataKey map[string]datanode.DataNode
}

// Build derives the graph of s: an edge from every input data node to the
// task reading it, and from every task to each data node it writes. Tasks
// with neither inputs nor outputs become isolated nodes.
func Build(s Submittable) *DAG {
	return buildTasks(s.Tasks())
}

func buildTasks(tasks []*task.Task) *DAG {
	d := &DAG{
		tasks:     tasks,
		byTask:    make(map[string]*task.Task, len(tasks)),
		byDataKey: make(map[string]datanode.DataNode),
	}
	for _, t := range tasks {
		d.byTask[taskPrefix+t.ID] = t
		for _, dn := range append(append([]datanode.DataNode{}, t.Inputs...), t.Outputs...) {
			d.byDataKey[dataNodePrefix+dn.ID()] = dn
		}
	}
	d.graph = d.newGraph()
	return d
}

// newGraph constructs a fresh dag.Graph so that destructive queries such as
// SortedTasks never alter the one held by d.
func (d *DAG) newGraph() *dag.Graph {
	g := dag.New()
	for _, t := range d.tasks {
		tk := taskPrefix + t.ID
		g.AddNode(tk)
		for _, in := range t.Inputs {
			dk := dataNodePrefix + in.ID()
			g.AddNode(dk)
			// Both nodes exist and differ by prefix, so AddEdge cannot fail.
			_ = g.AddEdge(dk, tk)
		}
		for _, out := range t.Outputs {
			dk := dataNodePrefix + out.ID()
			g.AddNode(dk)
			_ = g.AddEdge(tk, dk)
		}
	}
	return g
}

// Graph exposes the underlying graph. Keys are prefixed with "task:" or
// "datanode:" followed by the entity ID.
func (d *DAG) Graph() *dag.Graph {
	return d.graph
}

// Inputs returns the data nodes no task of the submittable writes.
func (d *DAG) Inputs() []datanode.DataNode {
	return d.dataNodes(d.graph.Sources())
}

// Outputs returns the data nodes no task of the submittable reads.
func (d *DAG) Outputs() []datanode.DataNode {
	return d.dataNodes(d.graph.Sinks())
}

// Intermediate returns the data nodes that are both written and read inside
// the submittable.
func (d *DAG) Intermediate() []datanode.DataNode {
	edge := make(map[string]bool)
	for _, k := range d.graph.Sources() {
		edge[k] = true
	}
	for _, k := range d.graph.Sinks() {
		edge[k] = true
	}
	var keys []string
	for _, k := range d.graph.Nodes() {
		if _, ok := d.byDataKey[k]; ok && !edge[k] {
			keys = append(keys, k)
		}
	}
	return d.dataNodes(keys)
}

// SortedTasks removes the input data nodes, layers the remaining graph into
// topological generations, and returns the tasks of every generation holding
// at least one task. Tasks in one generation do not depend on each other.
func (d *DAG) SortedTasks() ([][]*task.Task, error) {
	g := d.newGraph()
	for _, k := range g.Sources() {
		if _, ok := d.byDataKey[k]; ok {
			g.RemoveNode(k)
		}
	}

	generations, err := g.Generations()
	if err != nil {
		return nil, err
	}

	var out [][]*task.Task
	for _, gen := range generations {
		var tasks []*task.Task
		for _, k := range gen {
			if t, ok := d.byTask[k]; ok {
				tasks = append(tasks, t)
			}
		}
		if len(tasks) > 0 {
			out = append(out, tasks)
		}
	}
	return out, nil
}

// Layout returns display coordinates keyed by task or data node ID.
func (d *DAG) Layout() (map[string]dag.Position, error) {
	positions, err := d.graph.Layout()
	if err != nil {
		return nil, err
	}
	out := make(map[string]dag.Position, len(positions))
	for k, pos := range positions {
		out[d.entityID(k)] = pos
	}
	return out, nil
}

// Generations returns the entity IDs of every topological generation of the
// full graph, data nodes included.
func (d *DAG) Generations() ([][]string, error) {
	generations, err := d.graph.Generations()
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(generations))
	for i, gen := range generations {
		for _, k := range gen {
			out[i] = append(out[i], d.entityID(k))
		}
	}
	return out, nil
}

func (d *DAG) entityID(key string) string {
	if t, ok := d.byTask[key]; ok {
		return t.ID
	}
	return d.byDataKey[key].ID()
}

func (d *DAG) dataNodes(keys []string) []datanode.DataNode {
	var out []datanode.DataNode
	for _, k := range keys {
		if dn, ok := d.byDataKey[k]; ok {
			out = append(out, dn)
		}
	}
	return out
}
