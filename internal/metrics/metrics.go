package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thumbnail_jobs_submitted_total",
		Help: "Total number of thumbnail jobs submitted",
	})

	JobsSucceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thumbnail_jobs_succeeded_total",
		Help: "Total number of thumbnail jobs that succeeded",
	})

	JobsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thumbnail_jobs_failed_total",
		Help: "Total number of thumbnail jobs that failed",
	})

	JobProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "thumbnail_job_processing_duration_seconds",
		Help:    "Time taken to process thumbnail jobs in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
