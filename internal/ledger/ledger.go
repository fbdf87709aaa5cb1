// Package ledger records bettor share holdings per market and outcome. The
// ledger is the only writer of Position records; the market state machine is
// the only caller of RecordTrade, always from inside its per-market atomic
// trade step.
package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fullcount-labs/fullcount/pkg/types"
	"go.uber.org/zap"
)

type positionKey struct {
	marketID string
	bettor   common.Address
	outcome  types.Outcome
}

// Ledger holds accumulated positions for all markets.
type Ledger struct {
	mu        sync.RWMutex
	positions map[positionKey]*types.Position
	frozen    map[string]bool
	logger    *zap.Logger
}

// New creates an empty ledger.
func New(logger *zap.Logger) *Ledger {
	return &Ledger{
		positions: make(map[positionKey]*types.Position),
		frozen:    make(map[string]bool),
		logger:    logger,
	}
}

// RecordTrade upserts the (market, bettor, outcome) position, adding
// shareDelta to the share count and cost to the cumulative cost paid.
// A delta that would drive the share count negative is rejected; the engine
// validates against pool quantities, the ledger guards its own invariant.
func (l *Ledger) RecordTrade(marketID string, bettor common.Address, outcome types.Outcome, shareDelta, cost float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen[marketID] {
		return fmt.Errorf("market %s: ledger is frozen after resolution", marketID)
	}

	key := positionKey{marketID: marketID, bettor: bettor, outcome: outcome}
	pos, exists := l.positions[key]
	if !exists {
		pos = &types.Position{
			MarketID: marketID,
			Bettor:   bettor,
			Outcome:  outcome,
		}
		l.positions[key] = pos
	}

	if pos.Shares+shareDelta < 0 {
		return fmt.Errorf("market %s: bettor %s holds %.4f %s shares, cannot apply delta %.4f",
			marketID, bettor.Hex(), pos.Shares, outcome, shareDelta)
	}

	pos.Shares += shareDelta
	pos.CostPaid += cost
	pos.UpdatedAt = time.Now()

	l.logger.Debug("trade-recorded",
		zap.String("market-id", marketID),
		zap.String("bettor", bettor.Hex()),
		zap.String("outcome", string(outcome)),
		zap.Float64("share-delta", shareDelta),
		zap.Float64("cost", cost),
		zap.Float64("shares", pos.Shares))

	return nil
}

// Shares returns the current share count for one position key, zero if the
// position does not exist.
func (l *Ledger) Shares(marketID string, bettor common.Address, outcome types.Outcome) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pos, exists := l.positions[positionKey{marketID: marketID, bettor: bettor, outcome: outcome}]
	if !exists {
		return 0
	}
	return pos.Shares
}

// Position returns a copy of one position record.
func (l *Ledger) Position(marketID string, bettor common.Address, outcome types.Outcome) (types.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pos, exists := l.positions[positionKey{marketID: marketID, bettor: bettor, outcome: outcome}]
	if !exists {
		return types.Position{}, false
	}
	return *pos, true
}

// Snapshot returns a consistent point-in-time copy of every position in one
// market, sorted by (bettor, outcome) so iteration order is deterministic.
// No partially applied trade is ever visible: RecordTrade holds the same lock.
func (l *Ledger) Snapshot(marketID string) []types.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.Position, 0)
	for key, pos := range l.positions {
		if key.marketID == marketID {
			out = append(out, *pos)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		ci := out[i].Bettor.Cmp(out[j].Bettor)
		if ci != 0 {
			return ci < 0
		}
		return out[i].Outcome < out[j].Outcome
	})

	return out
}

// Freeze makes every position of the market immutable. Called by the state
// machine inside the resolve critical section, before the payout calculator
// reads the snapshot.
func (l *Ledger) Freeze(marketID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.frozen[marketID] = true
	l.logger.Info("ledger-frozen", zap.String("market-id", marketID))
}

// Frozen reports whether the market's positions are frozen.
func (l *Ledger) Frozen(marketID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frozen[marketID]
}
