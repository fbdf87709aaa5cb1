package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Position is a bettor's accumulated holdings for one outcome of one market.
// Positions are append-only accounting: they are created on first trade,
// updated on every later trade for the same (market, bettor, outcome) key and
// never deleted. Once the owning market is RESOLVED the ledger freezes them.
type Position struct {
	MarketID string         `json:"market_id"`
	Bettor   common.Address `json:"bettor"`
	Outcome  Outcome        `json:"outcome"`
	// Shares is the accumulated share count, never negative.
	Shares float64 `json:"shares"`
	// CostPaid is the cumulative net cost paid, kept for PnL reporting.
	CostPaid  float64   `json:"cost_paid"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TradeReceipt is the committed outcome of a single accepted trade. It carries
// the post-trade prices so the caller and the broadcast path never have to
// re-read market state.
type TradeReceipt struct {
	MarketID   string         `json:"market_id"`
	Bettor     common.Address `json:"bettor"`
	Outcome    Outcome        `json:"outcome"`
	ShareDelta float64        `json:"share_delta"`
	// Cost is positive for buys and negative for sells (proceeds).
	Cost       float64   `json:"cost"`
	PBall      float64   `json:"p_ball"`
	PStrike    float64   `json:"p_strike"`
	ExecutedAt time.Time `json:"executed_at"`
}
