// Package cache holds the committed price quotes served to display reads.
// The engine writes a quote after every committed mutation; read-only paths
// (price endpoints, UI snapshots) read from here without joining the
// per-market serialization queue, accepting eventual consistency.
package cache

import (
	"time"

	"github.com/fullcount-labs/fullcount/pkg/types"
)

// QuoteCache is the interface for the committed-quote store.
type QuoteCache interface {
	// Get retrieves the latest committed quote for a market.
	Get(marketID string) (*types.Quote, bool)

	// Set stores a committed quote with a TTL.
	Set(quote *types.Quote, ttl time.Duration) bool

	// Delete removes a market's quote.
	Delete(marketID string)

	// Close releases cache resources.
	Close()
}
