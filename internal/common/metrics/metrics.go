package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	RecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eflyt_records_processed_total",
			Help: "Records processed by outcome",
		},
		[]string{"outcome"},
	)

	RecordLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eflyt_record_lookup_duration_seconds",
			Help:    "Time to open a case and read one person's numbers",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
	)

	RunAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eflyt_run_attempts_total",
			Help: "Run attempts by result",
		},
		[]string{"result"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "eflyt_run_duration_seconds",
			Help: "Duration of a complete run",
		},
		[]string{"status"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eflyt_worker_jobs_active",
			Help: "Jobs currently handled by the workflow worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eflyt_worker_jobs_completed_total",
			Help: "Jobs completed by the workflow worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eflyt_worker_jobs_failed_total",
			Help: "Jobs failed or errored by the workflow worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eflyt_worker_job_duration_seconds",
			Help:    "Job handling duration",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"task_type"},
	)
)

// Push sends everything in gatherer to a Prometheus Pushgateway. One-shot
// runs use it because nothing scrapes them.
func Push(ctx context.Context, url, job string, gatherer prometheus.Gatherer) error {
	if url == "" {
		return nil
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if err := push.New(url, job).Gatherer(gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
