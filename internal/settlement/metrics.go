package settlement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// PayoutsExecutedTotal counts successfully executed payouts.
	PayoutsExecutedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fullcount_settlement_payouts_executed_total",
		Help: "Total number of payouts executed successfully",
	})

	// PayoutsFailedTotal counts failed payout executions.
	PayoutsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fullcount_settlement_payouts_failed_total",
		Help: "Total number of failed payout executions",
	})

	// RetriesTotal counts payout retry attempts.
	RetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fullcount_settlement_retries_total",
		Help: "Total number of payout retry attempts",
	})

	// PayoutAmountTotal accumulates settlement value paid out.
	PayoutAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fullcount_settlement_payout_amount_total",
		Help: "Total settlement value paid out",
	})

	// RequestDurationSeconds tracks settlement endpoint latency.
	RequestDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fullcount_settlement_request_duration_seconds",
		Help:    "Settlement endpoint request latency",
		Buckets: prometheus.DefBuckets,
	})
)
