package submittable

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/task"
)

// Scenario is a set of tasks submitted together, optionally carved into
// named sequences.
type Scenario struct {
	id       string
	configID string
	tasks    []*task.Task

	mu        sync.RWMutex
	sequences map[string]*Sequence
}

// NewScenario validates that the tasks form a non-empty acyclic graph and
// returns the scenario. Anything else yields ErrInvalidSubmittable.
func NewScenario(configID string, tasks []*task.Task) (*Scenario, error) {
	if len(tasks) == 0 {
		return nil, cerrors.ErrInvalidSubmittable.GenWithStackByArgs(TypeScenario, configID, "it has no tasks")
	}
	if err := Build(taskList(tasks)).graph.DetectCycles(); err != nil {
		return nil, cerrors.ErrInvalidSubmittable.GenWithStackByArgs(TypeScenario, configID, err.Error())
	}
	return &Scenario{
		id:        fmt.Sprintf("SCENARIO_%s_%s", configID, uuid.NewString()),
		configID:  configID,
		tasks:     tasks,
		sequences: make(map[string]*Sequence),
	}, nil
}

func (s *Scenario) ID() string             { return s.id }
func (s *Scenario) ConfigID() string       { return s.configID }
func (s *Scenario) EntityType() EntityType { return TypeScenario }
func (s *Scenario) Tasks() []*task.Task    { return s.tasks }

// Task looks a member task up by config ID.
func (s *Scenario) Task(configID string) (*task.Task, bool) {
	for _, t := range s.tasks {
		if t.ConfigID == configID {
			return t, true
		}
	}
	return nil, false
}

// AddSequence creates a sequence named name from the member tasks with the
// given config IDs, in that order. Unknown task IDs and invalid sequence
// graphs are rejected.
func (s *Scenario) AddSequence(name string, taskConfigIDs []string) (*Sequence, error) {
	tasks := make([]*task.Task, 0, len(taskConfigIDs))
	for _, cid := range taskConfigIDs {
		t, ok := s.Task(cid)
		if !ok {
			return nil, cerrors.ErrNonExistingTask.GenWithStackByArgs(cid)
		}
		tasks = append(tasks, t)
	}

	seq, err := NewSequence(name, s.id, tasks)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sequences[name] = seq
	s.mu.Unlock()
	return seq, nil
}

// Sequence returns the sequence registered under name.
func (s *Scenario) Sequence(name string) (*Sequence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq, ok := s.sequences[name]
	return seq, ok
}

// SequenceNames lists registered sequence names in lexical order.
func (s *Scenario) SequenceNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.sequences))
	for name := range s.sequences {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// taskList adapts a bare slice to Submittable so it can go through Build
// before the owning entity exists.
type taskList []*task.Task

func (l taskList) ID() string             { return "" }
func (l taskList) ConfigID() string       { return "" }
func (l taskList) EntityType() EntityType { return "" }
func (l taskList) Tasks() []*task.Task    { return l }
