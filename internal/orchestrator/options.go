package orchestrator

import (
	"time"

	"github.com/vk/taskgrid/internal/clock"
	"github.com/vk/taskgrid/internal/event"
	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/repository"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStore sets where job and submission records are persisted.
func WithStore(s repository.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithPublisher sets where entity events are published.
func WithPublisher(p event.Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithClock sets the clock stamping jobs and submissions.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithWorkerProperties sets properties copied into the configuration snapshot
// handed to standalone workers.
func WithWorkerProperties(props map[string]string) Option {
	return func(o *Orchestrator) { o.workerProps = props }
}

// SubmitOption configures one Submit call.
type SubmitOption func(*submitOptions)

type submitOptions struct {
	callbacks  []job.Subscriber
	force      bool
	wait       bool
	timeout    time.Duration
	properties map[string]any
}

// WithCallbacks registers subscribers on every job of the submission. They
// run after the submission has folded in the new status. Transitions to
// PENDING, BLOCKED, CANCELED and ABANDONED are made while the orchestrator
// lock is held, so callbacks must not call back into the orchestrator.
func WithCallbacks(cbs ...job.Subscriber) SubmitOption {
	return func(o *submitOptions) { o.callbacks = append(o.callbacks, cbs...) }
}

// WithForce makes every job run even when its outputs are up to date.
func WithForce(force bool) SubmitOption {
	return func(o *submitOptions) { o.force = force }
}

// WithWait makes a standalone Submit return only once every job finished or
// timeout elapsed. A zero timeout waits without limit.
func WithWait(timeout time.Duration) SubmitOption {
	return func(o *submitOptions) {
		o.wait = true
		o.timeout = timeout
	}
}

// WithProperties sets properties on the created submission in one edit,
// before any of its jobs exist.
func WithProperties(props map[string]any) SubmitOption {
	return func(o *submitOptions) { o.properties = props }
}
