package config

import (
	"time"

	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of a project.
// Declarations keep the order they were read in.
type Model struct {
	// Execution is nil when no file declares an execution block.
	Execution *Execution
	DataNodes []*DataNode
	Tasks     []*Task
	Scenarios []*Scenario
}

// DataNode is the representation of a `data_node` block.
type DataNode struct {
	ID string
	// Default, when set, is written to the node when it is built.
	Default *cty.Value
	// ValidityPeriod is zero when the cached value never expires.
	ValidityPeriod time.Duration
}

// Task is the representation of a `task` block.
type Task struct {
	ID        string
	Function  string
	Inputs    []string
	Outputs   []string
	Skippable bool
}

// Scenario is the representation of a `scenario` block.
type Scenario struct {
	ID        string
	Tasks     []string
	Sequences []*Sequence
}

// Sequence is the representation of a `sequence` block nested in a scenario.
type Sequence struct {
	Name  string
	Tasks []string
}

// DataNode looks a data node declaration up by ID.
func (m *Model) DataNode(id string) (*DataNode, bool) {
	for _, dn := range m.DataNodes {
		if dn.ID == id {
			return dn, true
		}
	}
	return nil, false
}

// Task looks a task declaration up by ID.
func (m *Model) Task(id string) (*Task, bool) {
	for _, t := range m.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Scenario looks a scenario declaration up by ID.
func (m *Model) Scenario(id string) (*Scenario, bool) {
	for _, s := range m.Scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}
