package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Candidates accepted into staging
	StagedTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staging_tasks_added_total",
			Help: "Total number of candidates accepted into staging",
		},
		[]string{"source"},
	)

	// Candidates dropped before insertion
	StagingRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staging_tasks_rejected_total",
			Help: "Total number of candidates rejected by staging",
		},
		[]string{"reason"}, // reason: blank_title, capacity
	)

	DuplicatesDetectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "staging_duplicates_detected_total",
			Help: "Total number of staged tasks flagged as likely duplicates",
		},
	)

	EnhancementsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "staging_enhancements_total",
			Help: "Total number of staged tasks enhanced",
		},
	)

	// Commits to a board
	BoardCommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staging_board_commits_total",
			Help: "Total number of staged tasks committed to a board",
		},
		[]string{"status"}, // status: success, failed
	)

	StagingSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "staging_size",
			Help: "Number of tasks currently staged",
		},
	)

	OccurrencesExpanded = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recurrence_occurrences_per_request",
			Help:    "Number of occurrences produced per expansion request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	JobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_processed_total",
			Help: "Total number of queue jobs handled",
		},
		[]string{"type", "status"}, // status: success, retried, dead_lettered
	)

	DLQPurgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobs_dead_letter_purged_total",
			Help: "Total number of dead-lettered jobs removed after the retention period",
		},
	)
)

// RecordBoardCommit counts a board commit outcome
func RecordBoardCommit(err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	BoardCommitsTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest observes one HTTP request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
