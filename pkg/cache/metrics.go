package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	QuoteHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fullcount_quote_cache_hits_total",
		Help: "Total number of quote cache hits",
	})

	QuoteMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fullcount_quote_cache_misses_total",
		Help: "Total number of quote cache misses",
	})

	QuoteSetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fullcount_quote_cache_sets_total",
		Help: "Total number of quote cache writes",
	})
)
