package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "taskgrid"
	subsystem = "orchestrator"
)

var (
	runQueueGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "run_queue_length",
		Help:      "Number of pending jobs waiting for a dispatcher",
	})

	blockedJobsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "blocked_jobs",
		Help:      "Number of jobs waiting for their inputs",
	})

	submissionsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "submissions_total",
		Help:      "Number of submissions by entity type",
	}, []string{"entity_type"})

	jobsCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "jobs_created_total",
		Help:      "Number of jobs created",
	})
)

// InitMetrics registers all metrics in this package.
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(runQueueGauge)
	registry.MustRegister(blockedJobsGauge)
	registry.MustRegister(submissionsCounter)
	registry.MustRegister(jobsCreatedCounter)
}
