package pricing

import (
	"math"
	"testing"

	"github.com/fullcount-labs/fullcount/pkg/types"
)

const tolerance = 1e-9

func TestPriceSumsToOne(t *testing.T) {
	tests := []struct {
		name    string
		qBall   float64
		qStrike float64
		b       float64
	}{
		{name: "fresh-pool", qBall: 0, qStrike: 0, b: 100},
		{name: "ball-heavy", qBall: 250, qStrike: 10, b: 100},
		{name: "strike-heavy", qBall: 3, qStrike: 900, b: 50},
		{name: "tiny-liquidity", qBall: 1, qStrike: 2, b: 0.5},
		{name: "large-pools", qBall: 1e6, qStrike: 1e6 + 500, b: 100},
		{name: "extreme-pools", qBall: 1e9, qStrike: 1e9 - 1, b: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pBall, pStrike, err := Price(tt.qBall, tt.qStrike, tt.b)
			if err != nil {
				t.Fatalf("Price returned error: %v", err)
			}

			sum := pBall + pStrike
			if math.Abs(sum-1.0) > tolerance {
				t.Errorf("prices sum to %v, want 1.0", sum)
			}
			if pBall <= 0 || pStrike <= 0 {
				t.Errorf("prices must be strictly positive, got %v / %v", pBall, pStrike)
			}
		})
	}
}

func TestFreshPoolIsEvenMoney(t *testing.T) {
	pBall, pStrike, err := Price(0, 0, 100)
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}

	if math.Abs(pBall-0.5) > tolerance || math.Abs(pStrike-0.5) > tolerance {
		t.Errorf("fresh pool prices = %v / %v, want 0.5 / 0.5", pBall, pStrike)
	}
}

// TestWorkedExample pins the b=100 example: buying 10 BALL shares on a fresh
// pool costs 100*ln(e^0.1+e^0) - 100*ln(2) which is about 5.1 units, and the
// BALL price moves above 0.5.
func TestWorkedExample(t *testing.T) {
	cost, err := CostToBuy(0, 0, 100, types.OutcomeBall, 10)
	if err != nil {
		t.Fatalf("CostToBuy returned error: %v", err)
	}

	want := 100*math.Log(math.Exp(0.1)+1) - 100*math.Log(2)
	if math.Abs(cost-want) > tolerance {
		t.Errorf("cost = %v, want %v", cost, want)
	}
	if cost < 5.0 || cost > 5.2 {
		t.Errorf("cost = %v, want roughly 5.1", cost)
	}

	pBall, _, err := Price(10, 0, 100)
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}
	if pBall <= 0.5 {
		t.Errorf("price after buy = %v, want > 0.5", pBall)
	}
}

func TestCostToBuyStrictlyIncreasingInDelta(t *testing.T) {
	var prev float64
	for _, delta := range []float64{1, 2, 5, 10, 50, 200} {
		cost, err := CostToBuy(30, 70, 100, types.OutcomeStrike, delta)
		if err != nil {
			t.Fatalf("CostToBuy(%v) returned error: %v", delta, err)
		}
		if cost <= 0 {
			t.Errorf("CostToBuy(%v) = %v, want > 0", delta, cost)
		}
		if cost <= prev {
			t.Errorf("CostToBuy(%v) = %v, want > cost of smaller delta %v", delta, cost, prev)
		}
		prev = cost
	}
}

// Diminishing liquidity: the same delta costs strictly more as the targeted
// pool grows.
func TestCostIncreasesWithExistingPool(t *testing.T) {
	var prev = -1.0
	for _, q := range []float64{0, 10, 50, 100, 500} {
		cost, err := CostToBuy(q, 40, 100, types.OutcomeBall, 10)
		if err != nil {
			t.Fatalf("CostToBuy at q=%v returned error: %v", q, err)
		}
		if cost <= prev {
			t.Errorf("cost at q=%v is %v, want > %v", q, cost, prev)
		}
		prev = cost
	}
}

func TestBuySellRoundTrip(t *testing.T) {
	const (
		qBall   = 42.0
		qStrike = 17.5
		b       = 75.0
		delta   = 12.0
	)

	buyCost, err := CostToBuy(qBall, qStrike, b, types.OutcomeBall, delta)
	if err != nil {
		t.Fatalf("CostToBuy returned error: %v", err)
	}

	proceeds, err := CostToSell(qBall+delta, qStrike, b, types.OutcomeBall, delta)
	if err != nil {
		t.Fatalf("CostToSell returned error: %v", err)
	}

	// No spread model: selling back what was just bought nets to zero.
	if math.Abs(buyCost-proceeds) > tolerance {
		t.Errorf("round trip: buy cost %v != sell proceeds %v", buyCost, proceeds)
	}
}

func TestNumericalStabilityLargePools(t *testing.T) {
	// Naive exp(q/b) overflows around q/b > 709; the stabilized form must not.
	cost, err := Cost(1e6, 999900, 100)
	if err != nil {
		t.Fatalf("Cost returned error: %v", err)
	}
	if math.IsInf(cost, 0) || math.IsNaN(cost) {
		t.Fatalf("cost is not finite: %v", cost)
	}

	buyCost, err := CostToBuy(1e6, 999900, 100, types.OutcomeBall, 10)
	if err != nil {
		t.Fatalf("CostToBuy returned error: %v", err)
	}
	if math.IsInf(buyCost, 0) || math.IsNaN(buyCost) || buyCost <= 0 {
		t.Fatalf("buy cost is not finite positive: %v", buyCost)
	}
}

func TestInvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
	}{
		{name: "zero-liquidity", run: func() error { _, _, err := Price(0, 0, 0); return err }},
		{name: "negative-liquidity", run: func() error { _, _, err := Price(0, 0, -5); return err }},
		{name: "negative-ball-pool", run: func() error { _, err := Cost(-1, 0, 100); return err }},
		{name: "negative-strike-pool", run: func() error { _, err := Cost(0, -0.001, 100); return err }},
		{name: "zero-delta-buy", run: func() error { _, err := CostToBuy(0, 0, 100, types.OutcomeBall, 0); return err }},
		{name: "negative-delta-buy", run: func() error { _, err := CostToBuy(0, 0, 100, types.OutcomeBall, -3); return err }},
		{name: "zero-delta-sell", run: func() error { _, err := CostToSell(10, 0, 100, types.OutcomeBall, 0); return err }},
		{name: "unknown-outcome", run: func() error { _, err := CostToBuy(0, 0, 100, types.Outcome("FOUL"), 1); return err }},
		{name: "nan-pool", run: func() error { _, err := Cost(math.NaN(), 0, 100); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
