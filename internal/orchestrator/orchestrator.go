// Package orchestrator turns submittables into jobs and decides when each job
// may run.
//
// # Why Orchestrator Exists
//
// A submittable only says which tasks read and write which data nodes. The
// orchestrator is where that becomes a schedule: it creates one job per task,
// reserves every output by locking it for edit, and sorts the jobs into a run
// queue (inputs ready) or a blocked list (some input still unwritten or
// locked). It then reacts to job status changes:
//
//   - COMPLETED or SKIPPED: rescan the blocked list and move every job whose
//     inputs became readable onto the run queue.
//   - FAILED: abandon every job of the same submission that depends on the
//     failed one, directly or transitively, and release their outputs.
//
// Cancellation uses the same dependency walk, marking the target CANCELED
// and its dependents ABANDONED.
//
// # Locking
//
// One mutex guards the run queue, the blocked list and the entity maps.
// Dispatchers only take it to pop a job. Transitions into COMPLETED, SKIPPED
// and FAILED always happen outside it, which is what lets the status hook
// take it without re-entering.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/edwingeng/deque"

	"github.com/vk/taskgrid/internal/clock"
	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/dispatcher"
	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/event"
	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/repository"
	"github.com/vk/taskgrid/internal/repository/memory"
	"github.com/vk/taskgrid/internal/submission"
	"github.com/vk/taskgrid/internal/submittable"
	"github.com/vk/taskgrid/internal/task"
)

// waitPollInterval is how often a waiting Submit checks its jobs.
const waitPollInterval = 500 * time.Millisecond

// Orchestrator owns the run queue and the blocked list of one process.
type Orchestrator struct {
	ctx         context.Context
	logger      *slog.Logger
	exec        config.Execution
	store       repository.Store
	publisher   event.Publisher
	clock       clock.Clock
	workerProps map[string]string

	dispatcher  dispatcher.Dispatcher
	development *dispatcher.Development

	mu          sync.Mutex
	queue       deque.Deque
	blocked     []*job.Job
	jobs        map[string]*job.Job
	submissions map[string]*submission.Submission
	closed      bool

	// inFlightMu guards inFlight. Submission listeners update it while the
	// main lock may already be held.
	inFlightMu sync.Mutex
	inFlight   map[string]submission.Status
}

var _ dispatcher.Queue = (*Orchestrator)(nil)

// New validates exec and builds an orchestrator with the dispatcher matching
// exec.Mode. ctx must carry a logger; it is kept for background work.
func New(ctx context.Context, exec config.Execution, opts ...Option) (*Orchestrator, error) {
	if err := exec.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		ctx:         ctx,
		logger:      ctxlog.FromContext(ctx),
		exec:        exec,
		store:       memory.New(),
		publisher:   event.Discard{},
		clock:       clock.New(),
		queue:       deque.NewDeque(),
		jobs:        make(map[string]*job.Job),
		submissions: make(map[string]*submission.Submission),
		inFlight:    make(map[string]submission.Status),
	}
	for _, opt := range opts {
		opt(o)
	}

	switch exec.Mode {
	case config.ModeStandalone:
		snap := config.Snapshot{Execution: exec, Properties: o.workerProps}
		o.dispatcher = dispatcher.NewStandalone(ctx, o, o.store, snap, dispatcher.WithClock(o.clock))
	default:
		o.development = dispatcher.NewDevelopment(ctx, o, o.store, dispatcher.WithClock(o.clock))
		o.dispatcher = o.development
	}
	return o, nil
}

// Mode returns the execution mode.
func (o *Orchestrator) Mode() config.Mode { return o.exec.Mode }

// Dispatcher returns the dispatcher consuming the run queue.
func (o *Orchestrator) Dispatcher() dispatcher.Dispatcher { return o.dispatcher }

// Start starts the dispatcher loop. It does nothing in development mode.
func (o *Orchestrator) Start(ctx context.Context) {
	o.dispatcher.Start(ctx)
}

// Stop stops the dispatcher loop and waits for running jobs. Queued jobs stay
// queued.
func (o *Orchestrator) Stop() {
	o.dispatcher.Stop()
}

// Close stops the dispatcher and rejects any further submission.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.Stop()
}

// Submit creates a submission and one job per task of s. Jobs whose inputs
// are all readable are queued, the others are blocked. In development mode
// the queue is drained before Submit returns and WithWait is ignored, since
// nothing else could unblock what is left.
func (o *Orchestrator) Submit(ctx context.Context, s submittable.Submittable, opts ...SubmitOption) (*submission.Submission, error) {
	var so submitOptions
	for _, opt := range opts {
		opt(&so)
	}

	if len(s.Tasks()) == 0 {
		return nil, cerrors.ErrInvalidSubmittable.GenWithStackByArgs(s.EntityType(), s.ConfigID(), "it has no tasks")
	}
	generations, err := submittable.Build(s).SortedTasks()
	if err != nil {
		return nil, cerrors.ErrInvalidSubmittable.GenWithStackByArgs(s.EntityType(), s.ConfigID(), err.Error())
	}

	sub := submission.New(s.ID(), s.EntityType(), s.ConfigID(),
		submission.WithClock(o.clock),
		submission.WithPublisher(o.publisher),
	)
	if len(so.properties) > 0 {
		edit := sub.Edit()
		for k, v := range so.properties {
			edit.Property(k, v)
		}
		edit.Commit()
	}
	sub.AddListener(o.onSubmissionStatusChange)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, cerrors.ErrOrchestratorClosed.GenWithStackByArgs()
	}
	o.submissions[sub.ID()] = sub
	o.inFlightMu.Lock()
	o.inFlight[sub.ID()] = sub.Status()
	o.inFlightMu.Unlock()

	var created []*job.Job
	for _, gen := range generations {
		for _, t := range gen {
			created = append(created, o.createJob(t, sub, s.ID(), so))
		}
	}
	for _, j := range created {
		o.orchestrateJob(j)
	}
	o.observeQueues()
	o.mu.Unlock()

	submissionsCounter.WithLabelValues(string(s.EntityType())).Inc()
	jobsCreatedCounter.Add(float64(len(created)))
	o.saveSubmission(sub)
	o.logger.Info("Submitted entity.", "entity", s.ID(), "type", s.EntityType(), "submission", sub.ID(), "jobs", len(created))

	if o.development != nil {
		o.development.Drain(ctx)
	} else if so.wait {
		o.waitFor(ctx, created, so.timeout)
	}
	return sub, nil
}

// SubmitTask submits a single task.
func (o *Orchestrator) SubmitTask(ctx context.Context, t *task.Task, opts ...SubmitOption) (*submission.Submission, error) {
	return o.Submit(ctx, submittable.ForTask(t), opts...)
}

// createJob reserves t's outputs and creates its job. The caller must hold
// the lock.
func (o *Orchestrator) createJob(t *task.Task, sub *submission.Submission, entityID string, so submitOptions) *job.Job {
	for _, out := range t.Outputs {
		out.LockEdit()
	}
	j := job.New(t, sub.ID(), entityID,
		job.WithClock(o.clock),
		job.WithPublisher(o.publisher),
		job.WithForce(so.force),
	)
	j.AddSubscriber(sub.UpdateStatus)
	for _, cb := range so.callbacks {
		j.AddSubscriber(cb)
	}
	j.AddSubscriber(o.onStatusChange)

	sub.AddJob(j)
	o.jobs[j.ID()] = j
	return j
}

// orchestrateJob queues j or blocks it. The caller must hold the lock.
func (o *Orchestrator) orchestrateJob(j *job.Job) {
	if o.isBlocked(j.Task()) {
		if err := j.SetStatus(job.StatusBlocked); err != nil {
			o.logger.Warn("Could not block job.", "job", j.ID(), "error", err)
			return
		}
		o.blocked = append(o.blocked, j)
		return
	}
	if err := j.SetStatus(job.StatusPending); err != nil {
		o.logger.Warn("Could not queue job.", "job", j.ID(), "error", err)
		return
	}
	o.queue.PushBack(j)
}

// isBlocked is true iff some input of t is not ready for reading.
func (o *Orchestrator) isBlocked(t *task.Task) bool {
	for _, in := range t.Inputs {
		if !in.IsReadyForReading() {
			return true
		}
	}
	return false
}

// PopJob removes the oldest job from the run queue.
func (o *Orchestrator) PopJob() (*job.Job, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.queue.Empty() {
		return nil, false
	}
	j := o.queue.PopFront().(*job.Job)
	o.observeQueues()
	return j, true
}

// UnblockJobs moves every blocked job whose inputs became readable onto the
// run queue. It runs automatically when a job completes or is skipped; call
// it after writing an input from outside the orchestrator. In development
// mode the queue is then drained.
func (o *Orchestrator) UnblockJobs(ctx context.Context) {
	o.unblockJobs()
	if o.development != nil {
		o.development.Drain(ctx)
	}
}

func (o *Orchestrator) unblockJobs() {
	o.mu.Lock()
	defer o.mu.Unlock()

	still := o.blocked[:0]
	for _, j := range o.blocked {
		if !j.IsBlocked() {
			continue
		}
		if !o.isBlocked(j.Task()) {
			if err := j.SetStatus(job.StatusPending); err == nil {
				o.queue.PushBack(j)
				o.logger.Debug("Unblocked job.", "job", j.ID())
				continue
			}
		}
		still = append(still, j)
	}
	for i := len(still); i < len(o.blocked); i++ {
		o.blocked[i] = nil
	}
	o.blocked = still
	o.observeQueues()
}

// onStatusChange is the last subscriber of every job.
func (o *Orchestrator) onStatusChange(j *job.Job) {
	o.saveJob(j)

	switch j.Status() {
	case job.StatusCompleted, job.StatusSkipped:
		o.unblockJobs()
	case job.StatusFailed:
		o.mu.Lock()
		j.UnlockOutputs()
		o.abandon(o.findSubsequentJobs(j))
		o.observeQueues()
		o.mu.Unlock()
	}
}

// CancelJob cancels a pending or blocked job and abandons every job of the
// same submission that depends on it. Jobs in any other status are left
// alone.
func (o *Orchestrator) CancelJob(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	j, ok := o.jobs[id]
	if !ok {
		return cerrors.ErrJobNotFound.GenWithStackByArgs(id)
	}
	switch status := j.Status(); status {
	case job.StatusCanceled, job.StatusAbandoned, job.StatusFailed,
		job.StatusRunning, job.StatusCompleted, job.StatusSkipped:
		ctxlog.FromContext(ctx).Info("Job cannot be canceled.", "job", id, "status", status)
		return nil
	}

	dependents := o.findSubsequentJobs(j)
	o.dequeue(j)
	if err := j.SetStatus(job.StatusCanceled); err != nil {
		o.logger.Warn("Could not cancel job.", "job", id, "error", err)
	}
	j.UnlockOutputs()
	o.abandon(dependents)
	o.observeQueues()
	ctxlog.FromContext(ctx).Info("Canceled job.", "job", id, "abandoned", len(dependents))
	return nil
}

// findSubsequentJobs walks the jobs of j's submission breadth first, following
// data nodes from the outputs of one job to the inputs of the next. The caller
// must hold the lock.
func (o *Orchestrator) findSubsequentJobs(j *job.Job) []*job.Job {
	sub, ok := o.submissions[j.SubmitID()]
	if !ok {
		return nil
	}
	candidates := sub.Jobs()

	seen := map[string]bool{j.ID(): true}
	frontier := j.Task().OutputConfigIDs()
	var found []*job.Job
	for len(frontier) > 0 {
		next := make(map[string]struct{})
		for _, c := range candidates {
			if seen[c.ID()] || !intersects(c.Task().InputConfigIDs(), frontier) {
				continue
			}
			seen[c.ID()] = true
			found = append(found, c)
			for id := range c.Task().OutputConfigIDs() {
				next[id] = struct{}{}
			}
		}
		frontier = next
	}
	return found
}

// abandon marks jobs abandoned and releases their outputs. Running and
// finished jobs are left untouched. The caller must hold the lock.
func (o *Orchestrator) abandon(jobs []*job.Job) {
	for _, d := range jobs {
		if status := d.Status(); status == job.StatusRunning || status.IsTerminal() {
			o.logger.Info("Leaving dependent job untouched.", "job", d.ID(), "status", status)
			continue
		}
		o.dequeue(d)
		if err := d.SetStatus(job.StatusAbandoned); err != nil {
			o.logger.Warn("Could not abandon job.", "job", d.ID(), "error", err)
			continue
		}
		d.UnlockOutputs()
	}
}

// dequeue removes j from the blocked list or the run queue. The caller must
// hold the lock.
func (o *Orchestrator) dequeue(j *job.Job) {
	for i, b := range o.blocked {
		if b == j {
			o.blocked = append(o.blocked[:i], o.blocked[i+1:]...)
			return
		}
	}

	found := false
	for n := o.queue.Len(); n > 0; n-- {
		q := o.queue.PopFront().(*job.Job)
		if q == j {
			found = true
			continue
		}
		o.queue.PushBack(q)
	}
	if !found {
		o.logger.Warn("Job was neither queued nor blocked.", "job", j.ID(), "status", j.Status())
	}
}

func (o *Orchestrator) observeQueues() {
	runQueueGauge.Set(float64(o.queue.Len()))
	blockedJobsGauge.Set(float64(len(o.blocked)))
}

func intersects(a, b map[string]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
