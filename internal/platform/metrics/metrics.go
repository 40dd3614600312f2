// Package metrics registers the Prometheus instruments for the onboarding
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SubmissionsSucceeded   prometheus.Counter
	SubmissionsFailed      prometheus.Counter
	SubmissionsRateLimited prometheus.Counter
	DraftsSaved            prometheus.Counter
	DraftsRestored         prometheus.Counter
	SubmitDuration         prometheus.Histogram
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		SubmissionsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyconboard_submissions_succeeded_total",
			Help: "KYC submissions committed to the document store",
		}),
		SubmissionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyconboard_submissions_failed_total",
			Help: "KYC submissions that failed after passing the rate limiter",
		}),
		SubmissionsRateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyconboard_submissions_rate_limited_total",
			Help: "KYC submissions rejected by the sliding-window limiter",
		}),
		DraftsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyconboard_drafts_saved_total",
			Help: "Debounced draft snapshots written to local storage",
		}),
		DraftsRestored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyconboard_drafts_restored_total",
			Help: "Draft snapshots restored at session start",
		}),
		SubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kyconboard_submit_duration_seconds",
			Help:    "End-to-end submission latency including the batch write",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
