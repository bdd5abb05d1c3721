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
	// Ledger gateway metrics
	LedgerCallLatency *prometheus.HistogramVec
	LedgerCallErrors  *prometheus.CounterVec
	LedgerWritesTotal *prometheus.CounterVec
	EndpointFailovers prometheus.Counter

	// Record decoder metrics
	DecodeBySource *prometheus.CounterVec
	DecodeFailures *prometheus.CounterVec

	// Admission metrics
	PoolsCreated        prometheus.Counter
	PoolsPartiallyBound prometheus.Counter
	PoolsOrphaned       prometheus.Counter
	ValidationFailures  *prometheus.CounterVec
	AssetsBound         prometheus.Counter

	// Reconciliation metrics
	ReconcileRunsTotal prometheus.Counter
	ReconcileOutcomes  *prometheus.CounterVec
	ReconcileDuration  prometheus.Histogram
	PruneQueueDepth    prometheus.Gauge
	PruneBatchErrors   prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulReconcile prometheus.Gauge
	WSReconnects            prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pool_engine"
	}

	return &Metrics{
		// Ledger gateway metrics
		LedgerCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "call_latency_seconds",
			Help:      "Ledger RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		LedgerCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "call_errors_total",
			Help:      "Total number of ledger call failures by kind",
		}, []string{"method", "kind"}),
		LedgerWritesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "writes_total",
			Help:      "Total number of ledger write attempts by outcome",
		}, []string{"method", "status"}),
		EndpointFailovers: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "endpoint_failovers_total",
			Help:      "Total number of reads that moved past an endpoint",
		}),

		// Record decoder metrics
		DecodeBySource: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decoder",
			Name:      "field_decodes_total",
			Help:      "Total field decodes by winning source",
		}, []string{"field", "source"}),
		DecodeFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decoder",
			Name:      "failures_total",
			Help:      "Total field decode failures",
		}, []string{"field"}),

		// Admission metrics
		PoolsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "pools_created_total",
			Help:      "Total number of pools persisted to the index",
		}),
		PoolsPartiallyBound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "pools_partially_bound_total",
			Help:      "Total number of pools persisted with a subset of requested assets",
		}),
		PoolsOrphaned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "pools_orphaned_total",
			Help:      "Total number of ledger pools created with zero bound assets",
		}),
		ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "validation_failures_total",
			Help:      "Total asset validation failures by reason",
		}, []string{"reason"}),
		AssetsBound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "assets_bound_total",
			Help:      "Total number of assets bound to ledger pools",
		}),

		// Reconciliation metrics
		ReconcileRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Total number of reconciliation runs",
		}),
		ReconcileOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "outcomes_total",
			Help:      "Total reconciliation outcomes by classification",
		}, []string{"outcome"}),
		ReconcileDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "duration_seconds",
			Help:      "Reconciliation run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		PruneQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "prune_queue_depth",
			Help:      "Number of prune batches waiting for the worker",
		}),
		PruneBatchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "prune_batch_errors_total",
			Help:      "Total number of failed prune batches",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulReconcile: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_reconcile_timestamp",
			Help:      "Unix timestamp of the last completed reconciliation run",
		}),
		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "ws_reconnects_total",
			Help:      "Total number of ledger event stream reconnects",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordLedgerCall records one ledger RPC attempt. kind classifies the
// failure ("transport", "revert") and is empty on success.
func RecordLedgerCall(method string, seconds float64, kind string) {
	DefaultMetrics.LedgerCallLatency.WithLabelValues(method).Observe(seconds)
	if kind != "" {
		DefaultMetrics.LedgerCallErrors.WithLabelValues(method, kind).Inc()
	}
}

// RecordDecodeSource records the winning source of one field decode.
func RecordDecodeSource(field, source string) {
	DefaultMetrics.DecodeBySource.WithLabelValues(field, source).Inc()
}

// RecordDecodeFailure records a field that could not be decoded.
func RecordDecodeFailure(field string) {
	DefaultMetrics.DecodeFailures.WithLabelValues(field).Inc()
}

// RecordValidationFailure records an admission validation failure.
func RecordValidationFailure(reason string) {
	DefaultMetrics.ValidationFailures.WithLabelValues(reason).Inc()
}

// RecordReconcileRun records one completed reconciliation run.
func RecordReconcileRun(verified, pruned, ambiguous int, seconds float64) {
	DefaultMetrics.ReconcileRunsTotal.Inc()
	DefaultMetrics.ReconcileOutcomes.WithLabelValues("verified").Add(float64(verified))
	DefaultMetrics.ReconcileOutcomes.WithLabelValues("pruned").Add(float64(pruned))
	DefaultMetrics.ReconcileOutcomes.WithLabelValues("ambiguous").Add(float64(ambiguous))
	DefaultMetrics.ReconcileDuration.Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
