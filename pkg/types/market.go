package types

import (
	"time"
)

// Outcome is one of the two sides of a binary market.
type Outcome string

const (
	OutcomeBall   Outcome = "BALL"
	OutcomeStrike Outcome = "STRIKE"
)

// Valid reports whether the outcome is one of the two known sides.
func (o Outcome) Valid() bool {
	return o == OutcomeBall || o == OutcomeStrike
}

// Opposite returns the other side of the market.
func (o Outcome) Opposite() Outcome {
	if o == OutcomeBall {
		return OutcomeStrike
	}
	return OutcomeBall
}

// Status is the lifecycle stage of a market.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusOpen     Status = "OPEN"
	StatusClosed   Status = "CLOSED"
	StatusResolved Status = "RESOLVED"
)

// Market is one ball/strike prediction market. The pool quantities QBall and
// QStrike are the LMSR state; they only move while the market is OPEN.
// The state machine in internal/engine is the sole writer of every field.
type Market struct {
	ID       string  `json:"id"`
	GameID   string  `json:"game_id"`
	Question string  `json:"question"`
	Status   Status  `json:"status"`
	QBall    float64 `json:"q_ball"`
	QStrike  float64 `json:"q_strike"`
	// B is the LMSR liquidity parameter, fixed at creation.
	B       float64  `json:"b"`
	Outcome *Outcome `json:"outcome,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	OpenedAt   *time.Time `json:"opened_at,omitempty"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Quote is a committed price snapshot for display reads. Quotes are published
// after each committed mutation and may lag the serialized state by design.
type Quote struct {
	MarketID  string    `json:"market_id"`
	Status    Status    `json:"status"`
	PBall     float64   `json:"p_ball"`
	PStrike   float64   `json:"p_strike"`
	UpdatedAt time.Time `json:"updated_at"`
}
