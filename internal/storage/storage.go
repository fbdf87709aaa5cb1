// Package storage provides optional sinks for committed market facts. A sink
// is fed asynchronously by the engine's persist goroutine and is never the
// ledger's source of truth: a broken sink loses history, not market state.
package storage

import (
	"context"

	"github.com/fullcount-labs/fullcount/pkg/types"
)

// Storage receives committed trades and resolutions.
type Storage interface {
	// StoreTrade records an executed trade receipt.
	StoreTrade(ctx context.Context, receipt *types.TradeReceipt) error

	// StoreResolution records a final resolution.
	StoreResolution(ctx context.Context, result *types.ResolutionResult) error

	// Close closes the storage connection.
	Close() error
}
