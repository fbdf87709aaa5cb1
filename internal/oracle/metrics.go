package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// GamesActive tracks currently active game automations.
	GamesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fullcount_oracle_games_active",
		Help: "Number of active game automations",
	})

	// MarketsScheduledTotal counts markets handed to the timer chain.
	MarketsScheduledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fullcount_oracle_markets_scheduled_total",
		Help: "Total number of markets scheduled for automated lifecycle",
	})

	// TimersCancelledTotal counts chain steps cancelled before firing.
	TimersCancelledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fullcount_oracle_timers_cancelled_total",
			Help: "Total number of automation steps cancelled before firing",
		},
		[]string{"op"},
	)

	// CallbackErrorsTotal counts failed lifecycle callbacks.
	CallbackErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fullcount_oracle_callback_errors_total",
			Help: "Total number of failed automation callbacks",
		},
		[]string{"op"},
	)

	// OutcomesDrawnTotal counts outcome draws by source kind and outcome.
	OutcomesDrawnTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fullcount_oracle_outcomes_drawn_total",
			Help: "Total number of outcomes drawn for resolution",
		},
		[]string{"source", "outcome"},
	)
)
