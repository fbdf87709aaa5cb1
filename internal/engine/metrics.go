package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// MarketsCreatedTotal counts registered markets.
	MarketsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fullcount_markets_created_total",
		Help: "Total number of markets created",
	})

	// TransitionsTotal counts committed lifecycle transitions by target status.
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fullcount_market_transitions_total",
			Help: "Total number of committed market lifecycle transitions",
		},
		[]string{"to"},
	)

	// InvalidTransitionsTotal counts rejected out-of-order transitions by operation.
	InvalidTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fullcount_market_invalid_transitions_total",
			Help: "Total number of rejected out-of-order lifecycle calls",
		},
		[]string{"op"},
	)

	// TradesAppliedTotal counts committed trades by outcome.
	TradesAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fullcount_trades_applied_total",
			Help: "Total number of committed trades",
		},
		[]string{"outcome"},
	)

	// TradesRejectedTotal counts rejected trades by reason.
	TradesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fullcount_trades_rejected_total",
			Help: "Total number of rejected trades",
		},
		[]string{"reason"},
	)

	// TradeDurationSeconds tracks the serialized trade path latency.
	TradeDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fullcount_trade_duration_seconds",
		Help:    "Duration of the atomic trade path",
		Buckets: prometheus.DefBuckets,
	})

	// TradeCostUnits tracks absolute trade cost sizes.
	TradeCostUnits = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fullcount_trade_cost_units",
		Help:    "Absolute cost of committed trades in settlement units",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// ResolutionPayoutTotal accumulates total payout across resolutions.
	ResolutionPayoutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fullcount_resolution_payout_units_total",
		Help: "Total payout committed across all resolved markets",
	})

	// PersistDroppedTotal counts durability writes dropped on a full buffer.
	PersistDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fullcount_persist_dropped_total",
		Help: "Total number of persistence writes dropped due to a full buffer",
	})

	// PersistErrorsTotal counts failed durability writes.
	PersistErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fullcount_persist_errors_total",
		Help: "Total number of failed persistence writes",
	})
)
