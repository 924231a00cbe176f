package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UnitsProcessed tracks processed work units by outcome
	UnitsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collector_units_processed_total",
			Help: "Total number of work units processed",
		},
		[]string{"region", "outcome"},
	)

	// UnitsSkipped tracks units skipped via the checkpoint
	UnitsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collector_units_skipped_total",
			Help: "Total number of work units skipped because the checkpoint already had them",
		},
	)

	// RowsWritten tracks pharmacy rows appended to the output file
	RowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collector_rows_written_total",
			Help: "Total number of pharmacy rows written",
		},
		[]string{"region"},
	)

	// RequestLatency tracks API call latency
	RequestLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "collector_request_latency_seconds",
			Help:    "Pricing API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ConsecutiveFailures tracks the breaker's consecutive failure count
	ConsecutiveFailures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "collector_consecutive_failures",
			Help: "Current consecutive API failure count",
		},
	)

	// BreakerTripped is 1 once the circuit breaker has tripped
	BreakerTripped = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "collector_breaker_tripped",
			Help: "Whether the consecutive-failure circuit breaker has tripped",
		},
	)

	// CredentialRefreshes tracks credential refresh attempts
	CredentialRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collector_credential_refreshes_total",
			Help: "Total number of credential refresh attempts",
		},
		[]string{"result"},
	)
)
