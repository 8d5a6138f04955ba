// Package submission aggregates the jobs spawned by one submit call into a
// single status.
package submission

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/taskgrid/internal/clock"
	"github.com/vk/taskgrid/internal/event"
	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/submittable"
)

// Listener is called after the aggregate status changes.
type Listener func(s *Submission, from, to Status)

// Submission is the record of one submit call. Its status is recomputed from
// the constituent jobs under the submission's own lock, so concurrent job
// updates cannot be lost.
type Submission struct {
	id             string
	entityID       string
	entityType     submittable.EntityType
	entityConfigID string
	creationDate   time.Time
	publisher      event.Publisher

	mu          sync.Mutex
	jobs        []*job.Job
	status      Status
	running     map[string]struct{}
	pending     map[string]struct{}
	blocked     map[string]struct{}
	isAbandoned bool
	isCompleted bool
	isCanceled  bool
	properties  map[string]any
	listeners   []Listener
}

// Option configures a Submission at creation.
type Option func(*Submission)

// WithClock sets the clock stamping the creation date.
func WithClock(c clock.Clock) Option {
	return func(s *Submission) { s.creationDate = c.Now() }
}

// WithPublisher sets where submission events go.
func WithPublisher(p event.Publisher) Option {
	return func(s *Submission) { s.publisher = p }
}

// New creates a submission for the given entity and publishes its creation.
func New(entityID string, entityType submittable.EntityType, entityConfigID string, opts ...Option) *Submission {
	s := &Submission{
		id:             fmt.Sprintf("SUBMISSION_%s_%s", entityID, uuid.NewString()),
		entityID:       entityID,
		entityType:     entityType,
		entityConfigID: entityConfigID,
		publisher:      event.Discard{},
		status:         StatusSubmitted,
		running:        make(map[string]struct{}),
		pending:        make(map[string]struct{}),
		blocked:        make(map[string]struct{}),
		properties:     make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.creationDate.IsZero() {
		s.creationDate = time.Now()
	}
	s.publisher.Publish(event.Event{
		EntityType: event.EntitySubmission,
		EntityID:   s.id,
		Operation:  event.OpCreation,
	})
	return s
}

func (s *Submission) ID() string                         { return s.id }
func (s *Submission) EntityID() string                   { return s.entityID }
func (s *Submission) EntityType() submittable.EntityType { return s.entityType }
func (s *Submission) EntityConfigID() string             { return s.entityConfigID }
func (s *Submission) CreationDate() time.Time            { return s.creationDate }

// AddJob appends j to the submission's jobs.
func (s *Submission) AddJob(j *job.Job) {
	s.mu.Lock()
	s.jobs = append(s.jobs, j)
	s.mu.Unlock()
}

// Jobs returns the submission's jobs in creation order.
func (s *Submission) Jobs() []*job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*job.Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// Status returns the current aggregate status.
func (s *Submission) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// IsFinished reports whether the aggregate status is terminal.
func (s *Submission) IsFinished() bool { return s.Status().IsTerminal() }

// AddListener registers a callback for aggregate status changes.
func (s *Submission) AddListener(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// UpdateStatus folds the current status of j into the aggregate. It is
// registered as the first subscriber of every job of the submission.
func (s *Submission) UpdateStatus(j *job.Job) {
	s.mu.Lock()
	from := s.status
	if from == StatusFailed {
		s.mu.Unlock()
		return
	}

	id := j.ID()
	switch j.Status() {
	case job.StatusFailed:
		s.status = StatusFailed
	case job.StatusCanceled:
		s.isCanceled = true
		s.forget(id)
	case job.StatusAbandoned:
		s.isAbandoned = true
		s.forget(id)
	case job.StatusRunning:
		s.running[id] = struct{}{}
		delete(s.pending, id)
		delete(s.blocked, id)
	case job.StatusPending, job.StatusSubmitted:
		s.pending[id] = struct{}{}
		delete(s.blocked, id)
	case job.StatusBlocked:
		s.blocked[id] = struct{}{}
		delete(s.pending, id)
	case job.StatusCompleted, job.StatusSkipped:
		s.isCompleted = true
		s.forget(id)
	}
	if s.status != StatusFailed {
		s.status = s.aggregate()
	}
	to := s.status
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if from == to {
		return
	}
	s.publisher.Publish(event.Event{
		EntityType:     event.EntitySubmission,
		EntityID:       s.id,
		Operation:      event.OpUpdate,
		AttributeName:  "submission_status",
		AttributeValue: to,
	})
	for _, l := range listeners {
		l(s, from, to)
	}
}

// aggregate computes the status from the job sets and flags. The caller must
// hold the lock.
func (s *Submission) aggregate() Status {
	switch {
	case s.isCanceled:
		return StatusCanceled
	case s.isAbandoned:
		return StatusUndefined
	case len(s.running) > 0:
		return StatusRunning
	case len(s.pending) > 0:
		return StatusPending
	case len(s.blocked) > 0:
		return StatusBlocked
	case s.isCompleted:
		return StatusCompleted
	default:
		return StatusUndefined
	}
}

func (s *Submission) forget(id string) {
	delete(s.running, id)
	delete(s.pending, id)
	delete(s.blocked, id)
}

// Properties returns a copy of the submission properties.
func (s *Submission) Properties() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.properties))
	for k, v := range s.properties {
		out[k] = v
	}
	return out
}

// Property returns one property.
func (s *Submission) Property(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.properties[key]
	return v, ok
}

// Edit starts a batch of property changes. Nothing is visible until Commit.
func (s *Submission) Edit() *Editor {
	return &Editor{s: s, changes: make(map[string]any)}
}

// Editor buffers property changes for a submission.
type Editor struct {
	s       *Submission
	changes map[string]any
}

// Property stages key=value.
func (e *Editor) Property(key string, value any) *Editor {
	e.changes[key] = value
	return e
}

// Commit applies the staged changes and publishes one update event carrying
// all of them. Committing an empty editor does nothing.
func (e *Editor) Commit() {
	if len(e.changes) == 0 {
		return
	}
	e.s.mu.Lock()
	for k, v := range e.changes {
		e.s.properties[k] = v
	}
	e.s.mu.Unlock()

	e.s.publisher.Publish(event.Event{
		EntityType:     event.EntitySubmission,
		EntityID:       e.s.id,
		Operation:      event.OpUpdate,
		AttributeName:  "properties",
		AttributeValue: e.changes,
	})
	e.changes = make(map[string]any)
}

// Record is the persisted form of a submission.
type Record struct {
	ID             string         `json:"id" msgpack:"id"`
	EntityID       string         `json:"entity_id" msgpack:"entity_id"`
	EntityType     string         `json:"entity_type" msgpack:"entity_type"`
	EntityConfigID string         `json:"entity_config_id" msgpack:"entity_config_id"`
	JobIDs         []string       `json:"job_ids" msgpack:"job_ids"`
	Status         Status         `json:"submission_status" msgpack:"submission_status"`
	Properties     map[string]any `json:"properties,omitempty" msgpack:"properties"`
	CreationDate   time.Time      `json:"creation_date" msgpack:"creation_date"`
}

// Record snapshots the submission.
func (s *Submission) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		ids[i] = j.ID()
	}
	props := make(map[string]any, len(s.properties))
	for k, v := range s.properties {
		props[k] = v
	}
	return Record{
		ID:             s.id,
		EntityID:       s.entityID,
		EntityType:     string(s.entityType),
		EntityConfigID: s.entityConfigID,
		JobIDs:         ids,
		Status:         s.status,
		Properties:     props,
		CreationDate:   s.creationDate,
	}
}
