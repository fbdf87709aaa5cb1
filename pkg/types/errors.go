package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// InvalidTransitionError is returned for out-of-order lifecycle calls. The
// attempted operation is a no-op: status and timestamps are left unchanged.
type InvalidTransitionError struct {
	MarketID string
	From     Status
	Op       string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("market %s: cannot %s from status %s", e.MarketID, e.Op, e.From)
}

// NotFoundError is returned for operations on unknown markets.
type NotFoundError struct {
	MarketID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("market %s: not found", e.MarketID)
}

// InvalidTradeError rejects malformed trades: zero delta, a sell that would
// drive a pool quantity or a position negative, or a non-finite cost.
type InvalidTradeError struct {
	MarketID   string
	Outcome    Outcome
	ShareDelta float64
	Reason     string
}

func (e *InvalidTradeError) Error() string {
	return fmt.Sprintf("market %s: invalid trade (%s %+.4f shares): %s",
		e.MarketID, e.Outcome, e.ShareDelta, e.Reason)
}

// ScheduleExhaustedError is returned when a fixed outcome sequence has been
// consumed past its length. The oracle fails loud rather than guessing.
type ScheduleExhaustedError struct {
	GameID   string
	Consumed int
}

func (e *ScheduleExhaustedError) Error() string {
	return fmt.Sprintf("game %s: outcome schedule exhausted after %d draws", e.GameID, e.Consumed)
}

// SettlementFailureError records a failed payout execution. It is never fatal
// to market state: the market is final at RESOLVED regardless, and the failed
// payout is retried separately.
type SettlementFailureError struct {
	MarketID   string
	Address    common.Address
	SessionRef string
	Err        error
}

func (e *SettlementFailureError) Error() string {
	return fmt.Sprintf("market %s: settlement for %s (session %s) failed: %v",
		e.MarketID, e.Address.Hex(), e.SessionRef, e.Err)
}

func (e *SettlementFailureError) Unwrap() error {
	return e.Err
}
