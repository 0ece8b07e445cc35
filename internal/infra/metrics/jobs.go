package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(chatJobsProcessedTotal, chatJobsSkippedTotal, chatJobDurationSeconds, chatJobFinalizeErrorsTotal)
}

var (
	chatJobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_jobs_processed_total",
			Help:      "Total number of chat jobs finalized, labeled by terminal status.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	chatJobsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_jobs_skipped_total",
			Help:      "Dispatches that ended without side effects, labeled by reason.",
		},
		[]string{"reason"}, // 'not_found', 'owner_mismatch', 'not_pending', 'claimed'
	)

	chatJobDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_job_duration_seconds",
			Help:      "Time from claim to finalize for a chat job.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30, 60, 120},
		},
	)

	chatJobFinalizeErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_job_finalize_errors_total",
			Help:      "Finalize transactions that failed and left the job pending.",
		},
	)
)

func IncChatJob(status string) {
	chatJobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func IncChatJobSkipped(reason string) {
	chatJobsSkippedTotal.WithLabelValues(norm(reason)).Inc()
}

func ObserveChatJobDuration(d time.Duration) {
	chatJobDurationSeconds.Observe(d.Seconds())
}

func IncChatJobFinalizeError() {
	chatJobFinalizeErrorsTotal.Inc()
}
