package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(chatJobDispatchTotal, chatJobRecoveredTotal) }

var (
	chatJobDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_job_dispatch_total",
			Help:      "Chat job dispatches by transport and result.",
		},
		[]string{"mode", "result"}, // mode 'pool'|'redis', result 'queued'|'dropped'|'error'
	)

	chatJobRecoveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_job_recovered_total",
			Help:      "Stale pending chat jobs re-dispatched by the recovery sweeper.",
		},
	)
)

func IncDispatch(mode, result string) {
	chatJobDispatchTotal.WithLabelValues(norm(mode), norm(result)).Inc()
}

func AddRecovered(n int) {
	chatJobRecoveredTotal.Add(float64(n))
}
