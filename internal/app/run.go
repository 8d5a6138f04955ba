package app

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/dispatcher"
	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/event"
	"github.com/vk/taskgrid/internal/orchestrator"
	"github.com/vk/taskgrid/internal/repository"
	"github.com/vk/taskgrid/internal/repository/badger"
	"github.com/vk/taskgrid/internal/repository/memory"
	"github.com/vk/taskgrid/internal/submission"
)

// Run submits the selected scenario, sequence or task, waits for it and
// writes a report of every job. It returns ErrRunFailed when the submission
// ends in any status but COMPLETED.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	target, err := a.target()
	if err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			a.logger.Warn("Could not close record store.", "error", err)
		}
	}()

	metrics := prometheus.NewRegistry()
	dispatcher.InitMetrics(metrics)
	orchestrator.InitMetrics(metrics)

	notifier := event.NewNotifier(ctx, a.clock)
	eventsDone := a.logEvents(notifier)
	defer func() {
		notifier.Close()
		<-eventsDone
	}()

	orc, err := orchestrator.New(ctx, a.exec,
		orchestrator.WithStore(store),
		orchestrator.WithPublisher(notifier),
		orchestrator.WithClock(a.clock),
		orchestrator.WithWorkerProperties(map[string]string{"target": target.ConfigID()}),
	)
	if err != nil {
		return err
	}
	defer orc.Close()

	if a.cfg.StatusPort > 0 {
		srv := newStatusServer(ctx, a.cfg.StatusPort, orc, metrics)
		srv.start()
		defer srv.shutdown()
	}

	orc.Start(ctx)
	a.logger.Info("🚀 Submitting.", "entity", target.ConfigID(), "type", target.EntityType(), "mode", a.exec.Mode)
	sub, err := orc.Submit(ctx, target,
		orchestrator.WithForce(a.cfg.Force),
		orchestrator.WithProperties(map[string]any{
			"mode":  string(a.exec.Mode),
			"force": a.cfg.Force,
		}),
	)
	if err != nil {
		return err
	}

	// In development mode Submit already ran everything that could run;
	// whatever is left is blocked on data no job will write.
	if a.exec.Mode == config.ModeStandalone && !orc.Wait(ctx, sub, a.cfg.Timeout) {
		a.report(a.outW, sub)
		return cerrors.ErrRunTimeout.GenWithStackByArgs(sub.ID(), target.ConfigID(), a.cfg.Timeout)
	}

	a.report(a.outW, sub)
	if status := sub.Status(); status != submission.StatusCompleted {
		return cerrors.ErrRunFailed.GenWithStackByArgs(sub.ID(), target.ConfigID(), status)
	}
	a.logger.Info("🏁 Execution finished.", "submission", sub.ID())
	return nil
}

func (a *App) openStore() (repository.Store, error) {
	if a.cfg.StorePath == "" {
		return memory.New(), nil
	}
	cfg := badger.DefaultConfig(a.cfg.StorePath)
	cfg.Logger = a.logger
	return badger.Open(cfg)
}

// logEvents logs every entity event at debug level until the notifier is
// closed. The returned channel is closed once the last event was logged.
func (a *App) logEvents(n *event.Notifier) <-chan struct{} {
	_, events := n.Register(event.Filter{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range events {
			a.logger.Debug("Entity event.", "event", e.String())
		}
	}()
	return done
}

// report writes the submission status followed by one line per job.
func (a *App) report(w io.Writer, sub *submission.Submission) {
	fmt.Fprintf(w, "submission %s %s\n", sub.ID(), sub.Status())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, j := range sub.Jobs() {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", j.Task().ConfigID, j.ID(), j.Status())
	}
	tw.Flush()
}
