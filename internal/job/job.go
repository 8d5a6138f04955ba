// Package job models one execution attempt of one task within a submission.
package job

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/taskgrid/internal/clock"
	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/event"
	"github.com/vk/taskgrid/internal/task"
)

// Subscriber is notified after every successful status change.
type Subscriber func(j *Job)

// Job is safe for concurrent use. Its status only moves forward along the
// transitions allowed by CanTransition.
type Job struct {
	id             string
	task           *task.Task
	submitID       string
	submitEntityID string
	force          bool
	creationDate   time.Time
	publisher      event.Publisher

	mu          sync.RWMutex
	status      Status
	stacktrace  []string
	subscribers []Subscriber
}

// Option configures a Job at creation.
type Option func(*options)

type options struct {
	clock     clock.Clock
	publisher event.Publisher
	force     bool
}

// WithClock sets the clock stamping the creation date.
func WithClock(c clock.Clock) Option { return func(o *options) { o.clock = c } }

// WithPublisher sets where creation and status events go.
func WithPublisher(p event.Publisher) Option { return func(o *options) { o.publisher = p } }

// WithForce makes dispatchers run the job even if it could be skipped.
func WithForce(force bool) Option { return func(o *options) { o.force = force } }

// New creates a submitted job for t and publishes its creation.
func New(t *task.Task, submitID, submitEntityID string, opts ...Option) *Job {
	o := options{clock: clock.New(), publisher: event.Discard{}}
	for _, opt := range opts {
		opt(&o)
	}

	j := &Job{
		id:             fmt.Sprintf("JOB_%s_%s", t.ConfigID, uuid.NewString()),
		task:           t,
		submitID:       submitID,
		submitEntityID: submitEntityID,
		force:          o.force,
		creationDate:   o.clock.Now(),
		publisher:      o.publisher,
		status:         StatusSubmitted,
	}
	j.publisher.Publish(event.Event{
		EntityType: event.EntityJob,
		EntityID:   j.id,
		Operation:  event.OpCreation,
	})
	return j
}

func (j *Job) ID() string              { return j.id }
func (j *Job) Task() *task.Task        { return j.task }
func (j *Job) SubmitID() string        { return j.submitID }
func (j *Job) SubmitEntityID() string  { return j.submitEntityID }
func (j *Job) Force() bool             { return j.force }
func (j *Job) CreationDate() time.Time { return j.creationDate }

// Status returns the current status.
func (j *Job) Status() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// SetStatus moves the job to s, publishes the change, then calls every
// subscriber in registration order. Subscribers run without the job lock
// held, so they may read the job freely.
func (j *Job) SetStatus(s Status) error {
	j.mu.Lock()
	from := j.status
	if !CanTransition(from, s) {
		j.mu.Unlock()
		return cerrors.ErrInvalidJobTransition.GenWithStackByArgs(j.id, from, s)
	}
	j.status = s
	subs := make([]Subscriber, len(j.subscribers))
	copy(subs, j.subscribers)
	j.mu.Unlock()

	j.publisher.Publish(event.Event{
		EntityType:     event.EntityJob,
		EntityID:       j.id,
		Operation:      event.OpUpdate,
		AttributeName:  "status",
		AttributeValue: s,
	})
	for _, sub := range subs {
		sub(j)
	}
	return nil
}

// AddSubscriber appends a status-change subscriber.
func (j *Job) AddSubscriber(s Subscriber) {
	j.mu.Lock()
	j.subscribers = append(j.subscribers, s)
	j.mu.Unlock()
}

// AppendStacktrace records formatted errors from a failed execution.
func (j *Job) AppendStacktrace(traces ...string) {
	j.mu.Lock()
	j.stacktrace = append(j.stacktrace, traces...)
	j.mu.Unlock()
}

// Stacktrace returns a copy of the recorded traces.
func (j *Job) Stacktrace() []string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]string, len(j.stacktrace))
	copy(out, j.stacktrace)
	return out
}

func (j *Job) IsSubmitted() bool { return j.Status() == StatusSubmitted }
func (j *Job) IsBlocked() bool   { return j.Status() == StatusBlocked }
func (j *Job) IsPending() bool   { return j.Status() == StatusPending }
func (j *Job) IsRunning() bool   { return j.Status() == StatusRunning }
func (j *Job) IsCanceled() bool  { return j.Status() == StatusCanceled }
func (j *Job) IsFailed() bool    { return j.Status() == StatusFailed }
func (j *Job) IsCompleted() bool { return j.Status() == StatusCompleted }
func (j *Job) IsSkipped() bool   { return j.Status() == StatusSkipped }
func (j *Job) IsAbandoned() bool { return j.Status() == StatusAbandoned }

// IsFinished reports whether the job reached a terminal status.
func (j *Job) IsFinished() bool { return j.Status().IsTerminal() }

// UnlockOutputs releases the edit lock on every output of the job's task.
func (j *Job) UnlockOutputs() {
	for _, dn := range j.task.Outputs {
		dn.UnlockEdit()
	}
}

// Record is the persisted form of a job.
type Record struct {
	ID             string    `json:"id" msgpack:"id"`
	TaskID         string    `json:"task_id" msgpack:"task_id"`
	TaskConfigID   string    `json:"task_config_id" msgpack:"task_config_id"`
	SubmitID       string    `json:"submit_id" msgpack:"submit_id"`
	SubmitEntityID string    `json:"submit_entity_id" msgpack:"submit_entity_id"`
	Force          bool      `json:"force" msgpack:"force"`
	Status         Status    `json:"status" msgpack:"status"`
	Stacktrace     []string  `json:"stacktrace,omitempty" msgpack:"stacktrace"`
	CreationDate   time.Time `json:"creation_date" msgpack:"creation_date"`
}

// Record snapshots the job.
func (j *Job) Record() Record {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Record{
		ID:             j.id,
		TaskID:         j.task.ID,
		TaskConfigID:   j.task.ConfigID,
		SubmitID:       j.submitID,
		SubmitEntityID: j.submitEntityID,
		Force:          j.force,
		Status:         j.status,
		Stacktrace:     append([]string(nil), j.stacktrace...),
		CreationDate:   j.creationDate,
	}
}
