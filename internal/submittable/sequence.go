package submittable

import (
	"fmt"

	"github.com/google/uuid"
	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/task"
)

// Sequence is an ordered subset of a scenario's tasks that forms one
// connected pipeline.
type Sequence struct {
	id       string
	name     string
	parentID string
	tasks    []*task.Task
}

// NewSequence returns a sequence over tasks. The derived graph must be both
// acyclic and weakly connected, otherwise ErrInvalidSubmittable is returned.
func NewSequence(name, parentID string, tasks []*task.Task) (*Sequence, error) {
	g := Build(taskList(tasks)).graph
	if err := g.DetectCycles(); err != nil {
		return nil, cerrors.ErrInvalidSubmittable.GenWithStackByArgs(TypeSequence, name, err.Error())
	}
	if !g.IsWeaklyConnected() {
		return nil, cerrors.ErrInvalidSubmittable.GenWithStackByArgs(TypeSequence, name, "tasks do not form a connected graph")
	}
	return &Sequence{
		id:       fmt.Sprintf("SEQUENCE_%s_%s", name, uuid.NewString()),
		name:     name,
		parentID: parentID,
		tasks:    tasks,
	}, nil
}

func (s *Sequence) ID() string { return s.id }

// ConfigID returns the sequence name; sequences are declared inline in their
// scenario and have no configuration of their own.
func (s *Sequence) ConfigID() string       { return s.name }
func (s *Sequence) EntityType() EntityType { return TypeSequence }
func (s *Sequence) Tasks() []*task.Task    { return s.tasks }

// ParentID is the ID of the scenario owning the sequence.
func (s *Sequence) ParentID() string { return s.parentID }
