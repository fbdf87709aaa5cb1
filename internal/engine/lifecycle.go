package engine

import (
	"time"

	"github.com/fullcount-labs/fullcount/internal/resolution"
	"github.com/fullcount-labs/fullcount/pkg/types"
	"go.uber.org/zap"
)

// Open transitions a PENDING market to OPEN. Pool quantities are untouched.
func (e *Engine) Open(marketID string) (types.Market, error) {
	entry, err := e.entry(marketID)
	if err != nil {
		return types.Market{}, err
	}

	entry.mu.Lock()

	if entry.market.Status != types.StatusPending {
		from := entry.market.Status
		entry.mu.Unlock()
		InvalidTransitionsTotal.WithLabelValues("open").Inc()
		return types.Market{}, &types.InvalidTransitionError{MarketID: marketID, From: from, Op: "open"}
	}

	now := time.Now()
	entry.market.Status = types.StatusOpen
	entry.market.OpenedAt = &now
	committed := entry.market

	entry.mu.Unlock()

	TransitionsTotal.WithLabelValues(string(types.StatusOpen)).Inc()
	e.logger.Info("market-opened", zap.String("market-id", marketID))

	e.cacheQuote(&committed)
	e.publish(types.Event{
		Type:     types.EventMarketStatus,
		MarketID: marketID,
		Payload:  types.MarketStatusPayload{Status: types.StatusOpen},
	})

	return committed, nil
}

// Close transitions an OPEN market to CLOSED. Trading is rejected afterwards.
func (e *Engine) Close(marketID string) (types.Market, error) {
	entry, err := e.entry(marketID)
	if err != nil {
		return types.Market{}, err
	}

	entry.mu.Lock()

	if entry.market.Status != types.StatusOpen {
		from := entry.market.Status
		entry.mu.Unlock()
		InvalidTransitionsTotal.WithLabelValues("close").Inc()
		return types.Market{}, &types.InvalidTransitionError{MarketID: marketID, From: from, Op: "close"}
	}

	now := time.Now()
	entry.market.Status = types.StatusClosed
	entry.market.ClosedAt = &now
	committed := entry.market

	entry.mu.Unlock()

	TransitionsTotal.WithLabelValues(string(types.StatusClosed)).Inc()
	e.logger.Info("market-closed", zap.String("market-id", marketID))

	e.cacheQuote(&committed)
	e.publish(types.Event{
		Type:     types.EventMarketStatus,
		MarketID: marketID,
		Payload:  types.MarketStatusPayload{Status: types.StatusClosed},
	})

	return committed, nil
}

// Resolve transitions a CLOSED market to RESOLVED and computes the payout
// record inside the same critical section, so no trade or transition can ever
// observe a RESOLVED market without its resolution. Settlement execution runs
// elsewhere, strictly after this commit.
func (e *Engine) Resolve(marketID string, outcome types.Outcome) (*types.ResolutionResult, error) {
	if !outcome.Valid() {
		return nil, &types.InvalidTradeError{
			MarketID: marketID,
			Outcome:  outcome,
			Reason:   "unknown outcome",
		}
	}

	entry, err := e.entry(marketID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()

	if entry.market.Status != types.StatusClosed {
		from := entry.market.Status
		entry.mu.Unlock()
		InvalidTransitionsTotal.WithLabelValues("resolve").Inc()
		return nil, &types.InvalidTransitionError{MarketID: marketID, From: from, Op: "resolve"}
	}

	now := time.Now()
	entry.market.Status = types.StatusResolved
	entry.market.Outcome = &outcome
	entry.market.ResolvedAt = &now

	// Freeze positions and compute payouts before anyone can see RESOLVED.
	e.ledger.Freeze(marketID)
	snapshot := e.ledger.Snapshot(marketID)

	result, err := resolution.Compute(marketID, outcome, now, snapshot)
	if err != nil {
		// Outcome was validated above; a failure here means the snapshot is
		// corrupt and the market must not advance.
		entry.market.Status = types.StatusClosed
		entry.market.Outcome = nil
		entry.market.ResolvedAt = nil
		entry.mu.Unlock()
		return nil, err
	}

	entry.resolution = result
	committed := entry.market

	entry.mu.Unlock()

	TransitionsTotal.WithLabelValues(string(types.StatusResolved)).Inc()
	ResolutionPayoutTotal.Add(result.TotalPayout)
	e.logger.Info("market-resolved",
		zap.String("market-id", marketID),
		zap.String("outcome", string(outcome)),
		zap.Int("winners", len(result.Winners)),
		zap.Int("losers", len(result.Losers)),
		zap.Float64("total-payout", result.TotalPayout))

	e.cacheQuote(&committed)
	e.persist(persistItem{resolution: result})
	e.publish(types.Event{
		Type:     types.EventMarketStatus,
		MarketID: marketID,
		Payload:  types.MarketStatusPayload{Status: types.StatusResolved},
	})
	e.publish(types.Event{
		Type:     types.EventResolution,
		MarketID: marketID,
		Payload: types.ResolutionPayload{
			Outcome:     outcome,
			TotalPayout: result.TotalPayout,
		},
	})

	return result, nil
}
