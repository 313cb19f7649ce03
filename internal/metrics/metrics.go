package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Search outcomes: redirect, results, empty, input_error, backend_error
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ipamhosts_searches_total",
			Help: "Total number of host searches by outcome",
		},
		[]string{"outcome"},
	)

	BatchActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ipamhosts_batch_actions_total",
			Help: "Total number of batch host actions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	BatchHostsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ipamhosts_batch_hosts_total",
			Help: "Total number of hosts submitted to batch actions",
		},
		[]string{"action"},
	)

	BackendFaultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ipamhosts_backend_faults_total",
			Help: "Total number of backend faults by operation and kind",
		},
		[]string{"op", "kind"},
	)

	RetrievalDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ipamhosts_retrieval_duration_seconds",
			Help:    "Duration of permission-scoped host retrieval including annotation",
			Buckets: prometheus.DefBuckets,
		},
	)

	ImportedHostsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ipamhosts_imported_hosts_total",
			Help: "Total number of host records imported from local files by source",
		},
		[]string{"source"},
	)
)

// RecordSearch counts one search by outcome
func RecordSearch(outcome string) {
	SearchesTotal.WithLabelValues(outcome).Inc()
}

// RecordBatch counts one batch action over n hosts
func RecordBatch(action, outcome string, n int) {
	BatchActionsTotal.WithLabelValues(action, outcome).Inc()
	BatchHostsTotal.WithLabelValues(action).Add(float64(n))
}

// RecordBackendFault counts a failed backend call
func RecordBackendFault(op, kind string) {
	BackendFaultsTotal.WithLabelValues(op, kind).Inc()
}

// ObserveRetrieval records how long a retrieval took
func ObserveRetrieval(start time.Time) {
	RetrievalDurationSeconds.Observe(time.Since(start).Seconds())
}

// RecordImport counts hosts imported from one source file
func RecordImport(source string, n int) {
	ImportedHostsTotal.WithLabelValues(source).Add(float64(n))
}
