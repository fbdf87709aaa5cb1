package broadcast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// SubscribersActive tracks connected websocket subscribers.
	SubscribersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fullcount_broadcast_subscribers_active",
		Help: "Number of connected websocket subscribers",
	})

	// EventsDeliveredTotal counts frames handed to subscriber buffers.
	EventsDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fullcount_broadcast_events_delivered_total",
			Help: "Total number of events delivered to subscriber buffers",
		},
		[]string{"event_type"},
	)

	// EventsDroppedTotal counts frames dropped instead of blocking.
	EventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fullcount_broadcast_events_dropped_total",
			Help: "Total number of events dropped",
		},
		[]string{"reason"},
	)

	// EncodeErrorsTotal counts events that failed to encode.
	EncodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fullcount_broadcast_encode_errors_total",
		Help: "Total number of events that failed JSON encoding",
	})
)
