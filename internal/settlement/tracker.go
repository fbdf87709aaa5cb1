package settlement

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/fullcount-labs/fullcount/internal/resolution"
	"github.com/fullcount-labs/fullcount/pkg/types"
)

// Tracker walks a resolution record's winners through the executor and keeps
// the payouts that failed, keyed by market, for later retry. It never touches
// market state: a failed payout is a settlement fact, not a market one.
type Tracker struct {
	executor Executor
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string][]types.WinnerEntry
}

// Config holds tracker dependencies.
type Config struct {
	Executor Executor
	Logger   *zap.Logger
}

// NewTracker creates a payout tracker.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		executor: cfg.Executor,
		logger:   cfg.Logger,
		pending:  make(map[string][]types.WinnerEntry),
	}
}

// Settle attaches session references to the record and executes every winner
// payout. Failures are collected, recorded for retry, and returned joined;
// the record itself is final either way.
func (t *Tracker) Settle(ctx context.Context, result *types.ResolutionResult, sessions map[common.Address]string) error {
	resolution.AttachSessions(result, sessions)

	var failed []types.WinnerEntry
	var errs []error

	for _, winner := range result.Winners {
		err := t.executor.ExecutePayout(ctx, winner.Address, winner.Payout, winner.SessionRef)
		if err == nil {
			PayoutsExecutedTotal.Inc()
			PayoutAmountTotal.Add(winner.Payout)
			continue
		}

		PayoutsFailedTotal.Inc()
		failure := &types.SettlementFailureError{
			MarketID:   result.MarketID,
			Address:    winner.Address,
			SessionRef: winner.SessionRef,
			Err:        err,
		}
		t.logger.Error("payout-failed",
			zap.String("market-id", result.MarketID),
			zap.String("address", winner.Address.Hex()),
			zap.Float64("amount", winner.Payout),
			zap.Error(err))

		failed = append(failed, winner)
		errs = append(errs, failure)
	}

	if len(failed) > 0 {
		t.mu.Lock()
		t.pending[result.MarketID] = append(t.pending[result.MarketID], failed...)
		t.mu.Unlock()
	}

	t.logger.Info("settlement-completed",
		zap.String("market-id", result.MarketID),
		zap.Int("winners", len(result.Winners)),
		zap.Int("failed", len(failed)),
		zap.Float64("total-payout", result.TotalPayout))

	return errors.Join(errs...)
}

// Retry re-executes the failed payouts recorded for a market. Payouts that
// succeed are cleared; the rest stay pending.
func (t *Tracker) Retry(ctx context.Context, marketID string) error {
	t.mu.Lock()
	entries := t.pending[marketID]
	delete(t.pending, marketID)
	t.mu.Unlock()

	var still []types.WinnerEntry
	var errs []error

	for _, winner := range entries {
		RetriesTotal.Inc()
		err := t.executor.ExecutePayout(ctx, winner.Address, winner.Payout, winner.SessionRef)
		if err == nil {
			PayoutsExecutedTotal.Inc()
			PayoutAmountTotal.Add(winner.Payout)
			continue
		}

		PayoutsFailedTotal.Inc()
		still = append(still, winner)
		errs = append(errs, &types.SettlementFailureError{
			MarketID:   marketID,
			Address:    winner.Address,
			SessionRef: winner.SessionRef,
			Err:        err,
		})
	}

	if len(still) > 0 {
		t.mu.Lock()
		t.pending[marketID] = append(t.pending[marketID], still...)
		t.mu.Unlock()
	}

	return errors.Join(errs...)
}

// Pending returns a copy of the failed payouts recorded for a market.
func (t *Tracker) Pending(marketID string) []types.WinnerEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]types.WinnerEntry(nil), t.pending[marketID]...)
}
