package engine

import (
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fullcount-labs/fullcount/internal/pricing"
	"github.com/fullcount-labs/fullcount/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ApplyTrade prices and applies one trade as a single atomic unit: cost
// computation, pool mutation and ledger credit all happen under the market's
// lock, against a pool snapshot no concurrent trade has altered. Positive
// deltas buy, negative deltas sell back into the pool.
func (e *Engine) ApplyTrade(marketID string, bettor common.Address, outcome types.Outcome, shareDelta float64) (*types.TradeReceipt, error) {
	timer := prometheus.NewTimer(TradeDurationSeconds)
	defer timer.ObserveDuration()

	if !outcome.Valid() {
		TradesRejectedTotal.WithLabelValues("unknown_outcome").Inc()
		return nil, &types.InvalidTradeError{MarketID: marketID, Outcome: outcome, ShareDelta: shareDelta, Reason: "unknown outcome"}
	}
	if shareDelta == 0 || math.IsNaN(shareDelta) || math.IsInf(shareDelta, 0) {
		TradesRejectedTotal.WithLabelValues("invalid_delta").Inc()
		return nil, &types.InvalidTradeError{MarketID: marketID, Outcome: outcome, ShareDelta: shareDelta, Reason: "share delta must be finite and non-zero"}
	}

	entry, err := e.entry(marketID)
	if err != nil {
		TradesRejectedTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}

	entry.mu.Lock()

	if entry.market.Status != types.StatusOpen {
		from := entry.market.Status
		entry.mu.Unlock()
		TradesRejectedTotal.WithLabelValues("market_not_open").Inc()
		return nil, &types.InvalidTransitionError{MarketID: marketID, From: from, Op: "trade"}
	}

	market := &entry.market

	var cost float64
	if shareDelta > 0 {
		cost, err = pricing.CostToBuy(market.QBall, market.QStrike, market.B, outcome, shareDelta)
	} else {
		sell := -shareDelta

		// Selling more than the pool ever issued would drive the quantity
		// negative; selling more than the bettor holds would corrupt the
		// ledger. Both are rejected before anything mutates.
		if poolQuantity(market, outcome)-sell < 0 {
			entry.mu.Unlock()
			TradesRejectedTotal.WithLabelValues("pool_negative").Inc()
			return nil, &types.InvalidTradeError{MarketID: marketID, Outcome: outcome, ShareDelta: shareDelta, Reason: "sell exceeds pool quantity"}
		}
		if e.ledger.Shares(marketID, bettor, outcome) < sell {
			entry.mu.Unlock()
			TradesRejectedTotal.WithLabelValues("insufficient_shares").Inc()
			return nil, &types.InvalidTradeError{MarketID: marketID, Outcome: outcome, ShareDelta: shareDelta, Reason: "sell exceeds bettor holdings"}
		}

		var proceeds float64
		proceeds, err = pricing.CostToSell(market.QBall, market.QStrike, market.B, outcome, sell)
		cost = -proceeds
	}
	if err != nil {
		entry.mu.Unlock()
		TradesRejectedTotal.WithLabelValues("pricing").Inc()
		return nil, &types.InvalidTradeError{MarketID: marketID, Outcome: outcome, ShareDelta: shareDelta, Reason: err.Error()}
	}
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		entry.mu.Unlock()
		TradesRejectedTotal.WithLabelValues("non_finite_cost").Inc()
		return nil, &types.InvalidTradeError{MarketID: marketID, Outcome: outcome, ShareDelta: shareDelta, Reason: "computed cost is not finite"}
	}

	// Credit the ledger before touching the pool so a rejected credit leaves
	// the whole operation a no-op.
	err = e.ledger.RecordTrade(marketID, bettor, outcome, shareDelta, cost)
	if err != nil {
		entry.mu.Unlock()
		TradesRejectedTotal.WithLabelValues("ledger").Inc()
		return nil, &types.InvalidTradeError{MarketID: marketID, Outcome: outcome, ShareDelta: shareDelta, Reason: err.Error()}
	}

	if outcome == types.OutcomeBall {
		market.QBall += shareDelta
	} else {
		market.QStrike += shareDelta
	}

	pBall, pStrike, priceErr := pricing.Price(market.QBall, market.QStrike, market.B)
	if priceErr != nil {
		// Guarded against above; keep the committed state coherent regardless.
		pBall, pStrike = 0.5, 0.5
	}

	receipt := &types.TradeReceipt{
		MarketID:   marketID,
		Bettor:     bettor,
		Outcome:    outcome,
		ShareDelta: shareDelta,
		Cost:       cost,
		PBall:      pBall,
		PStrike:    pStrike,
		ExecutedAt: time.Now(),
	}
	committed := entry.market

	entry.mu.Unlock()

	TradesAppliedTotal.WithLabelValues(string(outcome)).Inc()
	TradeCostUnits.Observe(math.Abs(cost))
	e.logger.Debug("trade-applied",
		zap.String("market-id", marketID),
		zap.String("bettor", bettor.Hex()),
		zap.String("outcome", string(outcome)),
		zap.Float64("share-delta", shareDelta),
		zap.Float64("cost", cost),
		zap.Float64("p-ball", pBall))

	e.cacheQuote(&committed)
	e.persist(persistItem{receipt: receipt})
	e.publish(types.Event{
		Type:     types.EventPriceChanged,
		MarketID: marketID,
		Payload:  types.PriceChangedPayload{PBall: pBall, PStrike: pStrike},
	})

	if pos, ok := e.ledger.Position(marketID, bettor, outcome); ok {
		e.publish(types.Event{
			Type:     types.EventPosition,
			MarketID: marketID,
			Target:   &bettor,
			Payload: types.PositionPayload{
				Bettor:   bettor,
				Outcome:  outcome,
				Shares:   pos.Shares,
				CostPaid: pos.CostPaid,
			},
		})
	}

	return receipt, nil
}

func poolQuantity(market *types.Market, outcome types.Outcome) float64 {
	if outcome == types.OutcomeBall {
		return market.QBall
	}
	return market.QStrike
}
