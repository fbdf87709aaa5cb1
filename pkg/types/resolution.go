package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// WinnerEntry is a payout instruction for one winning position. SessionRef is
// the opaque settlement-session identifier supplied by the external custody
// collaborator; the core never generates it.
type WinnerEntry struct {
	Address    common.Address `json:"address"`
	Payout     float64        `json:"payout"`
	SessionRef string         `json:"session_ref,omitempty"`
}

// LoserEntry records a forfeited stake. Losing shares pay nothing, so the
// loss is the cumulative cost paid for the position.
type LoserEntry struct {
	Address    common.Address `json:"address"`
	Loss       float64        `json:"loss"`
	SessionRef string         `json:"session_ref,omitempty"`
}

// ResolutionResult is produced exactly once per market at the RESOLVED
// transition and is immutable afterwards. Re-deriving it from the same market
// and ledger snapshot yields an identical record, which is what makes
// crash-recovery replay safe.
type ResolutionResult struct {
	ID          string        `json:"id"`
	MarketID    string        `json:"market_id"`
	Outcome     Outcome       `json:"outcome"`
	Winners     []WinnerEntry `json:"winners"`
	Losers      []LoserEntry  `json:"losers"`
	TotalPayout float64       `json:"total_payout"`
	ResolvedAt  time.Time     `json:"resolved_at"`
}
