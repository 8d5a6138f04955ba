package dispatcher

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "taskgrid"
	subsystem = "dispatcher"
)

var (
	jobsFinishedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "jobs_finished_total",
		Help:      "Number of jobs a dispatcher completed, failed or skipped",
	}, []string{"mode", "status"})

	jobDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "job_duration_seconds",
		Help:      "Time spent running task functions",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2.0, 16),
	}, []string{"mode"})

	availableWorkersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "available_workers",
		Help:      "Idle workers of the standalone dispatcher",
	})
)

// InitMetrics registers all metrics in this package.
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(jobsFinishedCounter)
	registry.MustRegister(jobDurationHistogram)
	registry.MustRegister(availableWorkersGauge)
}
