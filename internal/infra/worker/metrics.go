package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"arxiv-notifier/internal/pkg/config"
)

// Metrics provides Prometheus metrics for the poll worker. It embeds the
// standard config metrics (load timestamp, validation errors, fallbacks)
// and adds job-level metrics for the scheduled poll runs.
type Metrics struct {
	*config.ConfigMetrics

	// PollJobRunsTotal counts scheduled poll runs by status (success/failure).
	PollJobRunsTotal *prometheus.CounterVec

	// PollJobDurationSeconds measures the duration of one scheduled poll run.
	PollJobDurationSeconds prometheus.Histogram

	// PollJobTopicsProcessedTotal counts topics searched across all runs.
	PollJobTopicsProcessedTotal prometheus.Counter

	// PollJobLastSuccessTimestamp records the Unix time of the last
	// successful run. Alerting on staleness of this gauge catches a
	// wedged scheduler.
	PollJobLastSuccessTimestamp prometheus.Gauge
}

// NewMetrics creates the worker metrics. Registration happens automatically
// via promauto.
func NewMetrics() *Metrics {
	return &Metrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		PollJobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_poll_job_runs_total",
			Help: "Total number of scheduled poll runs by status (success/failure)",
		}, []string{"status"}),

		PollJobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_poll_job_duration_seconds",
			Help:    "Duration of one scheduled poll run in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		PollJobTopicsProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_poll_job_topics_processed_total",
			Help: "Total number of topics searched across all poll runs",
		}),

		PollJobLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_poll_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful poll run",
		}),
	}
}

// RecordJobRun increments the run counter for the given status
// ("success" or "failure").
func (m *Metrics) RecordJobRun(status string) {
	m.PollJobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes the duration of one scheduled poll run.
func (m *Metrics) RecordJobDuration(d time.Duration) {
	m.PollJobDurationSeconds.Observe(d.Seconds())
}

// RecordTopicsProcessed adds the number of topics searched in one run.
func (m *Metrics) RecordTopicsProcessed(count int) {
	m.PollJobTopicsProcessedTotal.Add(float64(count))
}

// RecordLastSuccess records the current time as the last successful run.
func (m *Metrics) RecordLastSuccess() {
	m.PollJobLastSuccessTimestamp.SetToCurrentTime()
}
