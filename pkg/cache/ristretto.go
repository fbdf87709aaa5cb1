package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/fullcount-labs/fullcount/pkg/types"
	"go.uber.org/zap"
)

// RistrettoQuoteCache is a QuoteCache backed by Ristretto.
type RistrettoQuoteCache struct {
	cache  *ristretto.Cache
	logger *zap.Logger
}

/// Config holds cache sizing. Costs count items, not bytes: one quote per
// market is small and bounded by the number of live markets.
type Config struct {
	NumCounters int64 // keys tracked for frequency, ~10x max items
	MaxItems    int64
	BufferItems int64
	Logger      *zap.Logger
}

// NewRistretto creates a Ristretto-backed quote cache.
func NewRistretto(cfg *Config) (*RistrettoQuoteCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxItems,
		BufferItems: cfg.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &RistrettoQuoteCache{
		cache:  cache,
		logger: cfg.Logger,
	}, nil
}

// Get retrieves the latest committed quote for a market.
func (r *RistrettoQuoteCache) Get(marketID string) (*types.Quote, bool) {
	value, found := r.cache.Get(marketID)
	if !found {
		QuoteMissesTotal.Inc()
		return nil, false
	}

	quote, ok := value.(*types.Quote)
	if !ok {
		QuoteMissesTotal.Inc()
		return nil, false
	}

	QuoteHitsTotal.Inc()
	return quote, true
}

// Set stores a committed quote.
func (r *RistrettoQuoteCache) Set(quote *types.Quote, ttl time.Duration) bool {
	success := r.cache.SetWithTTL(quote.MarketID, quote, 1, ttl)
	if success {
		QuoteSetsTotal.Inc()
		r.logger.Debug("quote-cached",
			zap.String("market-id", quote.MarketID),
			zap.Float64("p-ball", quote.PBall),
			zap.Float64("p-strike", quote.PStrike))
	}
	return success
}

// Delete removes a market's quote.
func (r *RistrettoQuoteCache) Delete(marketID string) {
	r.cache.Del(marketID)
}

// Close closes the cache and releases resources.
func (r *RistrettoQuoteCache) Close() {
	r.cache.Close()
}

// Wait blocks until pending writes are applied. Used in tests and by the
// engine right after a committed mutation so reads observe it promptly.
func (r *RistrettoQuoteCache) Wait() {
	r.cache.Wait()
}
