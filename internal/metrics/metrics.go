package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatewayRequestsTotal tracks transport requests per provider and operation
	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seqgate_gateway_requests_total",
			Help: "Total number of gateway requests",
		},
		[]string{"provider", "operation"},
	)

	// GatewayErrorsTotal tracks transport errors per provider
	GatewayErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seqgate_gateway_errors_total",
			Help: "Total number of gateway errors",
		},
		[]string{"provider", "operation", "error_type"},
	)

	// GatewayLatency tracks request latency
	GatewayLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seqgate_gateway_latency_seconds",
			Help:    "Gateway request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	// StatusPollsTotal counts status queries issued while waiting
	StatusPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seqgate_status_polls_total",
			Help: "Total number of transaction status polls",
		},
		[]string{"status"},
	)

	// WaitOutcomesTotal counts how waits ended
	WaitOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seqgate_wait_outcomes_total",
			Help: "Total number of finished transaction waits by outcome",
		},
		[]string{"outcome"},
	)

	// WaitDuration tracks how long waits took
	WaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seqgate_wait_duration_seconds",
			Help:    "Time spent waiting for transaction finality",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"outcome"},
	)

	// StatusCacheHits counts terminal statuses served from the cache
	StatusCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seqgate_status_cache_hits_total",
			Help: "Total number of status lookups served from cache",
		},
	)

	// JournalPoolUsage tracks journal DB connection usage
	JournalPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seqgate_journal_pool_usage_percent",
			Help: "Journal database connection pool usage percentage",
		},
	)
)
