package dispatcher

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/repository"
)

// restPeriod is how long the loop sleeps when it has nothing to do.
const restPeriod = 100 * time.Millisecond

// Standalone runs jobs on a bounded pool of goroutines fed by a polling loop.
type Standalone struct {
	core
	maxWorkers int
	snapshot   config.Snapshot
	pool       errgroup.Group

	// workersMu guards availableWorkers only; it is never held while a task
	// function runs or while the run queue is locked.
	workersMu        sync.Mutex
	availableWorkers int

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ Dispatcher = (*Standalone)(nil)

// NewStandalone returns a pool dispatcher sized by snapshot.Execution.MaxWorkers.
// The snapshot is also handed to every worker. ctx must carry a logger.
func NewStandalone(ctx context.Context, queue Queue, store repository.Store, snapshot config.Snapshot, opts ...Option) *Standalone {
	workers := snapshot.Execution.MaxWorkers
	if workers < 1 {
		workers = config.DefaultMaxWorkers
	}
	s := &Standalone{
		core:             newCore(ctx, "standalone", queue, store, opts),
		maxWorkers:       workers,
		snapshot:         snapshot,
		availableWorkers: workers,
	}
	s.pool.SetLimit(workers)
	availableWorkersGauge.Set(float64(workers))
	return s
}

// MaxWorkers returns the pool size.
func (s *Standalone) MaxWorkers() int { return s.maxWorkers }

// AvailableWorkers returns the number of idle workers.
func (s *Standalone) AvailableWorkers() int {
	s.workersMu.Lock()
	defer s.workersMu.Unlock()
	return s.availableWorkers
}

// CanExecute is true while at least one worker is idle.
func (s *Standalone) CanExecute() bool {
	return s.AvailableWorkers() > 0
}

// Start launches the polling loop. Calling Start on a running dispatcher does
// nothing.
func (s *Standalone) Start(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.done != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	s.logger.Info("Dispatcher started.", "workers", s.maxWorkers)
}

// Stop ends the polling loop, then waits for every running job to finish.
func (s *Standalone) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.done == nil {
		return
	}

	s.cancel()
	<-s.done
	s.done = nil
	_ = s.pool.Wait()
	s.logger.Info("Dispatcher stopped.")
}

func (s *Standalone) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(restPeriod)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		if s.CanExecute() {
			if j, ok := s.queue.PopJob(); ok {
				s.ExecuteJob(ctx, j)
				continue
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Standalone) ExecuteJob(ctx context.Context, j *job.Job) {
	s.executeJob(ctx, j, s.dispatch)
}

// dispatch takes a worker and runs j on the pool. The worker's context
// survives Stop so that in-flight jobs finish instead of failing.
func (s *Standalone) dispatch(ctx context.Context, j *job.Job) {
	data, err := s.snapshot.Encode()
	if err != nil {
		s.UpdateJobStatus(ctx, j, []error{err})
		return
	}

	s.acquire()
	workerCtx := ctxlog.With(context.WithoutCancel(ctx), "job", j.ID())
	s.pool.Go(func() error {
		defer s.release()
		s.UpdateJobStatus(workerCtx, j, s.work(workerCtx, j, data))
		return nil
	})
}

// work restores the configuration snapshot into ctx and runs the task.
func (s *Standalone) work(ctx context.Context, j *job.Job, data []byte) []error {
	snap, err := config.DecodeSnapshot(data)
	if err != nil {
		return []error{err}
	}
	return s.run(config.WithSnapshot(ctx, snap), j)
}

func (s *Standalone) acquire() {
	s.workersMu.Lock()
	s.availableWorkers--
	availableWorkersGauge.Set(float64(s.availableWorkers))
	s.workersMu.Unlock()
}

func (s *Standalone) release() {
	s.workersMu.Lock()
	s.availableWorkers++
	availableWorkersGauge.Set(float64(s.availableWorkers))
	s.workersMu.Unlock()
}
