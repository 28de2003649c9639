// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Engine metrics
	TokensMinted     prometheus.Counter
	TradesProcessed  *prometheus.CounterVec // by kind
	WhalesFlagged    prometheus.Counter
	BurnsProcessed   prometheus.Counter
	ProfitEvents     prometheus.Counter
	LuckySelections  prometheus.Counter
	OperationErrors  *prometheus.CounterVec // by operation, error kind
	OperationLatency *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulOperation prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_ledger_engine"
	}

	return &Metrics{
		TokensMinted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "tokens_minted_total",
			Help:      "Total number of tokens minted",
		}),
		TradesProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trades_processed_total",
			Help:      "Total number of trades processed by kind",
		}, []string{"kind"}),
		WhalesFlagged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "whales_flagged_total",
			Help:      "Total number of whale-flagged trades",
		}),
		BurnsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "burns_processed_total",
			Help:      "Total number of burns processed",
		}),
		ProfitEvents: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "profit_events_total",
			Help:      "Total number of profit distributions",
		}),
		LuckySelections: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "lucky_selections_total",
			Help:      "Total number of lucky wallet payouts",
		}),
		OperationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_errors_total",
			Help:      "Total number of failed operations by operation and error kind",
		}, []string{"operation", "error_kind"}),
		OperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulOperation: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_operation_timestamp",
			Help:      "Unix timestamp of the last successful engine operation",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordMint increments the tokens minted counter.
func RecordMint() {
	DefaultMetrics.TokensMinted.Inc()
}

// RecordTrade records a processed trade.
func RecordTrade(kind string, whaleFlagged bool) {
	DefaultMetrics.TradesProcessed.WithLabelValues(kind).Inc()
	if whaleFlagged {
		DefaultMetrics.WhalesFlagged.Inc()
	}
}

// RecordBurn increments the burns counter.
func RecordBurn() {
	DefaultMetrics.BurnsProcessed.Inc()
}

// RecordProfitEvent increments the profit distributions counter.
func RecordProfitEvent() {
	DefaultMetrics.ProfitEvents.Inc()
}

// RecordLuckySelection increments the lucky payouts counter.
func RecordLuckySelection() {
	DefaultMetrics.LuckySelections.Inc()
}

// RecordOperation records one engine operation's latency and outcome.
func RecordOperation(operation string, seconds float64, err error, errorKind string) {
	DefaultMetrics.OperationLatency.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.OperationErrors.WithLabelValues(operation, errorKind).Inc()
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
