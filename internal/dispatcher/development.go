package dispatcher

import (
	"context"

	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/repository"
)

// Development executes every job inline, on the goroutine calling
// ExecuteJob. It never refuses work and has no background loop; the
// orchestrator drains its queue through it right after each submit.
type Development struct {
	core
}

var _ Dispatcher = (*Development)(nil)

// NewDevelopment returns an inline dispatcher. ctx must carry a logger.
func NewDevelopment(ctx context.Context, queue Queue, store repository.Store, opts ...Option) *Development {
	return &Development{core: newCore(ctx, "development", queue, store, opts)}
}

func (d *Development) ExecuteJob(ctx context.Context, j *job.Job) {
	d.executeJob(ctx, j, d.dispatch)
}

func (d *Development) dispatch(ctx context.Context, j *job.Job) {
	ctx = ctxlog.WithLogger(ctx, d.logger.With("job", j.ID()))
	d.UpdateJobStatus(ctx, j, d.run(ctx, j))
}

// CanExecute is always true.
func (d *Development) CanExecute() bool { return true }

// Drain executes queued jobs one by one until the queue is empty, including
// jobs unblocked by the ones it runs.
func (d *Development) Drain(ctx context.Context) {
	for {
		j, ok := d.queue.PopJob()
		if !ok {
			return
		}
		d.ExecuteJob(ctx, j)
	}
}

func (d *Development) Start(context.Context) {}
func (d *Development) Stop()                 {}
