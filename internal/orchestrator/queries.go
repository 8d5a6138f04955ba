package orchestrator

import (
	"context"
	"sort"
	"time"

	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/event"
	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/submission"
)

// Job returns the job with the given ID.
func (o *Orchestrator) Job(id string) (*job.Job, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	j, ok := o.jobs[id]
	return j, ok
}

// JobStatus returns the status of the job with the given ID.
func (o *Orchestrator) JobStatus(id string) (job.Status, error) {
	j, ok := o.Job(id)
	if !ok {
		return "", cerrors.ErrJobNotFound.GenWithStackByArgs(id)
	}
	return j.Status(), nil
}

// Jobs returns every known job, oldest first.
func (o *Orchestrator) Jobs() []*job.Job {
	o.mu.Lock()
	out := make([]*job.Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, j)
	}
	o.mu.Unlock()

	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreationDate().Equal(out[b].CreationDate()) {
			return out[a].CreationDate().Before(out[b].CreationDate())
		}
		return out[a].ID() < out[b].ID()
	})
	return out
}

// Submission returns the submission with the given ID.
func (o *Orchestrator) Submission(id string) (*submission.Submission, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.submissions[id]
	return s, ok
}

// Submissions returns every known submission, oldest first.
func (o *Orchestrator) Submissions() []*submission.Submission {
	o.mu.Lock()
	out := make([]*submission.Submission, 0, len(o.submissions))
	for _, s := range o.submissions {
		out = append(out, s)
	}
	o.mu.Unlock()

	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreationDate().Equal(out[b].CreationDate()) {
			return out[a].CreationDate().Before(out[b].CreationDate())
		}
		return out[a].ID() < out[b].ID()
	})
	return out
}

// InFlight returns the last known status of every unfinished submission.
func (o *Orchestrator) InFlight() map[string]submission.Status {
	o.inFlightMu.Lock()
	defer o.inFlightMu.Unlock()
	out := make(map[string]submission.Status, len(o.inFlight))
	for k, v := range o.inFlight {
		out[k] = v
	}
	return out
}

// QueueLen returns the number of queued and blocked jobs.
func (o *Orchestrator) QueueLen() (queued, blocked int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.queue.Len(), len(o.blocked)
}

// DeleteJob forgets a finished job and deletes its record.
func (o *Orchestrator) DeleteJob(ctx context.Context, id string) error {
	o.mu.Lock()
	j, ok := o.jobs[id]
	if !ok {
		o.mu.Unlock()
		return cerrors.ErrJobNotFound.GenWithStackByArgs(id)
	}
	if !j.IsFinished() {
		o.mu.Unlock()
		return cerrors.ErrJobNotFinished.GenWithStackByArgs(id, j.Status())
	}
	delete(o.jobs, id)
	o.mu.Unlock()

	if err := o.store.DeleteJob(ctx, id); err != nil {
		return err
	}
	o.publisher.Publish(event.Event{EntityType: event.EntityJob, EntityID: id, Operation: event.OpDeletion})
	return nil
}

// DeleteSubmission forgets a finished submission and deletes its record. Its
// jobs are kept; delete them with DeleteJob.
func (o *Orchestrator) DeleteSubmission(ctx context.Context, id string) error {
	o.mu.Lock()
	s, ok := o.submissions[id]
	if !ok {
		o.mu.Unlock()
		return cerrors.ErrSubmissionNotFound.GenWithStackByArgs(id)
	}
	if status := s.Status(); !status.IsTerminal() {
		o.mu.Unlock()
		return cerrors.ErrSubmissionNotFinished.GenWithStackByArgs(id, status)
	}
	delete(o.submissions, id)
	o.mu.Unlock()

	if err := o.store.DeleteSubmission(ctx, id); err != nil {
		return err
	}
	o.publisher.Publish(event.Event{EntityType: event.EntitySubmission, EntityID: id, Operation: event.OpDeletion})
	return nil
}

// Wait blocks until every job of sub is finished, timeout elapses, or ctx is
// done. A zero timeout waits without limit. It reports whether all jobs
// finished.
func (o *Orchestrator) Wait(ctx context.Context, sub *submission.Submission, timeout time.Duration) bool {
	return o.waitFor(ctx, sub.Jobs(), timeout)
}

func (o *Orchestrator) waitFor(ctx context.Context, jobs []*job.Job, timeout time.Duration) bool {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for !allFinished(jobs) {
		select {
		case <-ctx.Done():
			return false
		case <-deadline:
			o.logger.Warn("Stopped waiting for jobs, timeout elapsed.", "timeout", timeout)
			return false
		case <-ticker.C:
		}
	}
	return true
}

func allFinished(jobs []*job.Job) bool {
	for _, j := range jobs {
		if !j.IsFinished() {
			return false
		}
	}
	return true
}

// onSubmissionStatusChange keeps the in-flight map and the store current.
func (o *Orchestrator) onSubmissionStatusChange(s *submission.Submission, _, to submission.Status) {
	o.inFlightMu.Lock()
	if to.IsTerminal() {
		delete(o.inFlight, s.ID())
	} else {
		o.inFlight[s.ID()] = to
	}
	o.inFlightMu.Unlock()

	o.saveSubmission(s)
}

func (o *Orchestrator) saveJob(j *job.Job) {
	if err := o.store.SaveJob(o.ctx, j.Record()); err != nil {
		o.logger.Warn("Could not persist job record.", "job", j.ID(), "error", err)
	}
}

func (o *Orchestrator) saveSubmission(s *submission.Submission) {
	if err := o.store.SaveSubmission(o.ctx, s.Record()); err != nil {
		o.logger.Warn("Could not persist submission record.", "submission", s.ID(), "error", err)
	}
}
