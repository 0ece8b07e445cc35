package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbConns, dbTxTotal, statusCacheTotal) }

var (
	dbConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_connections",
			Help:      "Postgres pool connections by state.",
		},
		[]string{"state"}, // total|idle|in_use
	)

	dbTxTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_transactions_total",
			Help:      "Database transactions by outcome.",
		},
		[]string{"result"}, // commit|rollback|error
	)

	statusCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_status_cache_requests_total",
			Help:      "Job status cache lookups by result.",
		},
		[]string{"result"}, // hit|miss|error
	)
)

func SetDBPoolStats(total, idle, inUse int32) {
	dbConns.WithLabelValues("total").Set(float64(total))
	dbConns.WithLabelValues("idle").Set(float64(idle))
	dbConns.WithLabelValues("in_use").Set(float64(inUse))
}

func IncDBTx(result string) {
	dbTxTotal.WithLabelValues(norm(result)).Inc()
}

func IncStatusCache(result string) {
	statusCacheTotal.WithLabelValues(norm(result)).Inc()
}
