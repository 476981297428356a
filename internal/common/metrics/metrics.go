// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_queries_processed_total",
			Help: "Total number of queries processed by the advisor",
		},
		[]string{"query_type", "intent"},
	)

	QueriesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_queries_failed_total",
			Help: "Total number of queries that hit the degraded error path",
		},
		[]string{"error_code"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "advisor_query_duration_seconds",
			Help: "End-to-end query processing duration in seconds",
		},
		[]string{"query_type"},
	)

	RetrievalCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_retrieval_cache_hits_total",
			Help: "Retrieval cache hits and misses",
		},
		[]string{"outcome"},
	)

	ToolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_tool_invocations_total",
			Help: "Reasoning-loop tool invocations by tool name",
		},
		[]string{"tool"},
	)
)
