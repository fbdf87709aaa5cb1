// Package pricing implements the two-outcome logarithmic market scoring rule.
// Everything in here is pure: the market state machine owns the pool
// quantities and calls in with copies.
package pricing

import (
	"fmt"
	"math"

	"github.com/fullcount-labs/fullcount/pkg/types"
)

// Cost evaluates the LMSR cost function C(qBall, qStrike) = b*ln(e^(qBall/b)
// + e^(qStrike/b)). The log-sum-exp form subtracts max(qBall, qStrike) inside
// the exponentials so the function stays finite for pool quantities far
// beyond the naive overflow point (~700*b).
func Cost(qBall, qStrike, b float64) (float64, error) {
	err := validatePool(qBall, qStrike, b)
	if err != nil {
		return 0, err
	}

	m := math.Max(qBall, qStrike)
	return m + b*math.Log(math.Exp((qBall-m)/b)+math.Exp((qStrike-m)/b)), nil
}

// Price returns the instantaneous prices of both outcomes. They sum to 1
// within floating tolerance for every valid pool state.
func Price(qBall, qStrike, b float64) (pBall, pStrike float64, err error) {
	err = validatePool(qBall, qStrike, b)
	if err != nil {
		return 0, 0, err
	}

	m := math.Max(qBall, qStrike)
	eBall := math.Exp((qBall - m) / b)
	eStrike := math.Exp((qStrike - m) / b)
	sum := eBall + eStrike

	return eBall / sum, eStrike / sum, nil
}

// CostToBuy returns the cost of acquiring shareDelta additional shares of
// outcome, holding the other pool fixed. The cost is strictly positive and
// strictly increasing in the existing pool quantity of that outcome.
func CostToBuy(qBall, qStrike, b float64, outcome types.Outcome, shareDelta float64) (float64, error) {
	if shareDelta <= 0 {
		return 0, fmt.Errorf("share delta must be positive, got %f", shareDelta)
	}

	return costDelta(qBall, qStrike, b, outcome, shareDelta)
}

// CostToSell returns the proceeds of selling shareDelta shares of outcome:
// the same cost function walked backwards, so buy-then-sell round-trips to
// the original pool with zero spread.
func CostToSell(qBall, qStrike, b float64, outcome types.Outcome, shareDelta float64) (float64, error) {
	if shareDelta <= 0 {
		return 0, fmt.Errorf("share delta must be positive, got %f", shareDelta)
	}

	proceeds, err := costDelta(qBall, qStrike, b, outcome, -shareDelta)
	if err != nil {
		return 0, err
	}

	return -proceeds, nil
}

// costDelta computes C(q+delta) - C(q) with delta applied to the targeted
// outcome's pool.
func costDelta(qBall, qStrike, b float64, outcome types.Outcome, delta float64) (float64, error) {
	if !outcome.Valid() {
		return 0, fmt.Errorf("unknown outcome %q", outcome)
	}

	before, err := Cost(qBall, qStrike, b)
	if err != nil {
		return 0, err
	}

	newBall, newStrike := qBall, qStrike
	if outcome == types.OutcomeBall {
		newBall += delta
	} else {
		newStrike += delta
	}

	after, err := Cost(newBall, newStrike, b)
	if err != nil {
		return 0, err
	}

	return after - before, nil
}

func validatePool(qBall, qStrike, b float64) error {
	if b <= 0 || math.IsNaN(b) || math.IsInf(b, 0) {
		return fmt.Errorf("liquidity parameter must be positive and finite, got %f", b)
	}
	if qBall < 0 || qStrike < 0 {
		return fmt.Errorf("pool quantities must be non-negative, got ball=%f strike=%f", qBall, qStrike)
	}
	if math.IsNaN(qBall) || math.IsInf(qBall, 0) || math.IsNaN(qStrike) || math.IsInf(qStrike, 0) {
		return fmt.Errorf("pool quantities must be finite, got ball=%f strike=%f", qBall, qStrike)
	}

	return nil
}
