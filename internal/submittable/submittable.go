// Package submittable models everything that can be handed to the
// orchestrator: scenarios, sequences, and single tasks.
//
// # Why This Package Exists
//
// The orchestrator does not care whether it was given a whole scenario or a
// single task. It needs the set of tasks and the data dependencies between
// them, ordered into generations it can turn into jobs. This package derives
// that view (see Build) and validates it when the submittable is created, so
// an invalid graph is rejected long before anything is submitted.
package submittable

import (
	"github.com/vk/taskgrid/internal/task"
)

// EntityType names the kind of a submitted entity.
type EntityType string

const (
	TypeScenario EntityType = "SCENARIO"
	TypeSequence EntityType = "SEQUENCE"
	TypeTask     EntityType = "TASK"
)

// Submittable is anything that can be passed to the orchestrator's Submit.
type Submittable interface {
	ID() string
	ConfigID() string
	EntityType() EntityType
	// Tasks returns the member tasks in declaration order.
	Tasks() []*task.Task
}

// IsReadyToRun reports whether every input data node of s can be read.
func IsReadyToRun(s Submittable) bool {
	for _, dn := range Build(s).Inputs() {
		if !dn.IsReadyForReading() {
			return false
		}
	}
	return true
}

// single wraps one task so it can be submitted on its own.
type single struct {
	t *task.Task
}

// ForTask returns a Submittable made of exactly one task.
func ForTask(t *task.Task) Submittable {
	return single{t: t}
}

func (s single) ID() string             { return s.t.ID }
func (s single) ConfigID() string       { return s.t.ConfigID }
func (s single) EntityType() EntityType { return TypeTask }
func (s single) Tasks() []*task.Task    { return []*task.Task{s.t} }
