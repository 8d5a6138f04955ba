// Package dispatcher pulls jobs off the orchestrator's run queue, decides
// whether each one must actually run, and executes it.
//
// # Why Dispatcher Exists
//
// The orchestrator only decides *when* a job may run. Running it involves a
// different set of concerns: the skip-if-cached decision, reading inputs and
// writing outputs, containing failures of user code, and bounding how many
// task functions run at once. Two variants share that logic:
//
//   - Development runs each job inline on the caller's goroutine. Execution
//     order is fully deterministic, which makes it the mode used by tests and
//     simple runs.
//   - Standalone runs a polling loop that feeds a bounded worker pool. The pool
//     size is the only resource it tracks; when no worker is free it simply
//     does not pop, so back-pressure costs nothing.
//
// User code never crashes a dispatcher. Every failure ends up as a FAILED job
// with the formatted errors in its stack trace.
package dispatcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/vk/taskgrid/internal/clock"
	"github.com/vk/taskgrid/internal/ctxlog"
	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/repository"
	"github.com/vk/taskgrid/internal/task"
)

// Queue is the run queue a dispatcher consumes.
type Queue interface {
	// PopJob removes and returns the oldest pending job, if any.
	PopJob() (*job.Job, bool)
}

// Dispatcher executes jobs taken from a Queue.
type Dispatcher interface {
	// ExecuteJob runs j, or skips it when its cached outputs are still good.
	ExecuteJob(ctx context.Context, j *job.Job)
	// CanExecute reports whether a job could be started right now.
	CanExecute() bool
	// Start launches the background polling loop, if the variant has one.
	Start(ctx context.Context)
	// Stop ends the polling loop and waits for running jobs to finish.
	Stop()
}

// Option configures a dispatcher.
type Option func(*core)

// WithClock sets the clock used to time jobs.
func WithClock(c clock.Clock) Option {
	return func(d *core) { d.clock = c }
}

// core holds the behaviour shared by every variant.
type core struct {
	queue  Queue
	store  repository.Store
	logger *slog.Logger
	clock  clock.Clock
	mode   string
}

func newCore(ctx context.Context, mode string, queue Queue, store repository.Store, opts []Option) core {
	c := core{
		queue:  queue,
		store:  store,
		logger: ctxlog.FromContext(ctx).With("dispatcher", mode),
		clock:  clock.New(),
		mode:   mode,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// executeJob marks j running and hands it to dispatch, or releases its
// outputs and marks it skipped.
func (c *core) executeJob(ctx context.Context, j *job.Job, dispatch func(context.Context, *job.Job)) {
	if j.IsFinished() {
		c.logger.Debug("Dropping job that finished while queued.", "job", j.ID(), "status", j.Status())
		return
	}

	if j.Force() || NeedsToRun(j.Task()) {
		if err := j.SetStatus(job.StatusRunning); err != nil {
			c.logger.Warn("Could not start job.", "job", j.ID(), "error", err)
			return
		}
		c.logger.Debug("Dispatching job.", "job", j.ID(), "task", j.Task().ConfigID)
		dispatch(ctx, j)
		return
	}

	j.UnlockOutputs()
	if err := j.SetStatus(job.StatusSkipped); err != nil {
		c.logger.Warn("Could not skip job.", "job", j.ID(), "error", err)
		return
	}
	jobsFinishedCounter.WithLabelValues(c.mode, string(job.StatusSkipped)).Inc()
	c.logger.Info("Skipped job, outputs are up to date.", "job", j.ID(), "task", j.Task().ConfigID)
	c.save(ctx, j)
}

// UpdateJobStatus records the outcome of an execution. With errors, their
// stack traces are appended to the job and it is marked failed. Otherwise it
// is marked completed. The record is saved either way.
//
// A failed job keeps its outputs locked. The orchestrator releases them in
// the same critical section that abandons the dependents, so no dependent
// can be unblocked by an output the failed job never wrote.
func (c *core) UpdateJobStatus(ctx context.Context, j *job.Job, errs []error) {
	status := job.StatusCompleted
	if len(errs) > 0 {
		traces := make([]string, 0, len(errs))
		for _, err := range errs {
			traces = append(traces, cerrors.Stack(err))
		}
		j.AppendStacktrace(traces...)
		status = job.StatusFailed
	}

	if err := j.SetStatus(status); err != nil {
		c.logger.Warn("Could not record job outcome.", "job", j.ID(), "status", status, "error", err)
		return
	}
	jobsFinishedCounter.WithLabelValues(c.mode, string(status)).Inc()

	if status == job.StatusFailed {
		c.logger.Error("Job failed.", "job", j.ID(), "task", j.Task().ConfigID, "error", errs[0], "errors", len(errs))
	} else {
		c.logger.Info("Job completed.", "job", j.ID(), "task", j.Task().ConfigID)
	}
	c.save(ctx, j)
}

func (c *core) save(ctx context.Context, j *job.Job) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveJob(ctx, j.Record()); err != nil {
		c.logger.Warn("Could not persist job record.", "job", j.ID(), "error", err)
	}
}

// run executes the task function wrapper and observes its duration.
func (c *core) run(ctx context.Context, j *job.Job) []error {
	start := c.clock.Now()
	errs := Execute(ctx, j.ID(), j.Task())
	jobDurationHistogram.WithLabelValues(c.mode).Observe(c.clock.Since(start).Seconds())
	return errs
}

// NeedsToRun decides whether a task must execute or can be skipped:
//
//   - a task that is not skippable, or has no outputs, always runs;
//   - if any output is not valid, it runs;
//   - with valid outputs and no inputs, it is skipped;
//   - otherwise it runs iff the most recently edited input is strictly newer
//     than the least recently edited output.
func NeedsToRun(t *task.Task) bool {
	if !t.Skippable || len(t.Outputs) == 0 {
		return true
	}
	for _, out := range t.Outputs {
		if !out.IsValid() {
			return true
		}
	}
	if len(t.Inputs) == 0 {
		return false
	}

	var newestInput time.Time
	for _, in := range t.Inputs {
		if last, ok := in.LastEditDate(); ok && last.After(newestInput) {
			newestInput = last
		}
	}
	var oldestOutput time.Time
	for i, out := range t.Outputs {
		last, _ := out.LastEditDate()
		if i == 0 || last.Before(oldestOutput) {
			oldestOutput = last
		}
	}
	return newestInput.After(oldestOutput)
}
