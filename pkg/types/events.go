package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// EventType identifies the kind of live update pushed to subscribers.
type EventType string

const (
	EventPriceChanged EventType = "price-changed"
	EventMarketStatus EventType = "market-status"
	EventResolution   EventType = "resolution"
	EventPosition     EventType = "position"
)

// Event is a typed live update fanned out by the broadcast hub. Target, when
// set, restricts delivery to connections registered for that address;
// otherwise the event goes to every subscriber.
type Event struct {
	Type     EventType `json:"type"`
	MarketID string    `json:"market_id"`
	Payload  any       `json:"payload"`

	Target *common.Address `json:"-"`
}

// PriceChangedPayload carries the post-trade instantaneous prices.
type PriceChangedPayload struct {
	PBall   float64 `json:"p_ball"`
	PStrike float64 `json:"p_strike"`
}

// MarketStatusPayload carries a lifecycle transition.
type MarketStatusPayload struct {
	Status Status `json:"status"`
}

// ResolutionPayload carries the final outcome and total payout.
type ResolutionPayload struct {
	Outcome     Outcome `json:"outcome"`
	TotalPayout float64 `json:"total_payout"`
}

// PositionPayload is a targeted update for one bettor's position.
type PositionPayload struct {
	Bettor   common.Address `json:"bettor"`
	Outcome  Outcome        `json:"outcome"`
	Shares   float64        `json:"shares"`
	CostPaid float64        `json:"cost_paid"`
}
