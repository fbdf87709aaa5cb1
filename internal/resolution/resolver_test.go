package resolution

import (
	"reflect"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fullcount-labs/fullcount/pkg/types"
)

var (
	bettorA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	bettorB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

// Two bettors: A holds 10 winning shares bought for 5, B holds 8 losing
// shares bought for 4. Winner is paid one unit per share, loser forfeits the
// stake.
func TestComputeWorkedExample(t *testing.T) {
	resolvedAt := time.Date(2026, 5, 1, 19, 30, 0, 0, time.UTC)
	positions := []types.Position{
		{MarketID: "m1", Bettor: bettorA, Outcome: types.OutcomeBall, Shares: 10, CostPaid: 5},
		{MarketID: "m1", Bettor: bettorB, Outcome: types.OutcomeStrike, Shares: 8, CostPaid: 4},
	}

	result, err := Compute("m1", types.OutcomeBall, resolvedAt, positions)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}

	if len(result.Winners) != 1 || len(result.Losers) != 1 {
		t.Fatalf("winners/losers = %d/%d, want 1/1", len(result.Winners), len(result.Losers))
	}
	if result.Winners[0].Address != bettorA || result.Winners[0].Payout != 10 {
		t.Errorf("winner = %+v, want A with payout 10", result.Winners[0])
	}
	if result.Losers[0].Address != bettorB || result.Losers[0].Loss != 4 {
		t.Errorf("loser = %+v, want B with loss 4", result.Losers[0])
	}
	if result.TotalPayout != 10 {
		t.Errorf("total payout = %v, want 10", result.TotalPayout)
	}
	if result.Outcome != types.OutcomeBall {
		t.Errorf("outcome = %v, want BALL", result.Outcome)
	}
	if !result.ResolvedAt.Equal(resolvedAt) {
		t.Errorf("resolvedAt = %v, want %v", result.ResolvedAt, resolvedAt)
	}
}

// A fully sold-out winning position (0 shares) is not a winner; it still
// appears as a loser entry carrying its net cost basis.
func TestZeroShareWinningPositionIsNotAWinner(t *testing.T) {
	positions := []types.Position{
		{MarketID: "m1", Bettor: bettorA, Outcome: types.OutcomeBall, Shares: 0, CostPaid: 0.5},
	}

	result, err := Compute("m1", types.OutcomeBall, time.Now(), positions)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}

	if len(result.Winners) != 0 {
		t.Errorf("winners = %d, want 0", len(result.Winners))
	}
	if len(result.Losers) != 1 || result.Losers[0].Loss != 0.5 {
		t.Errorf("losers = %+v, want one entry with loss 0.5", result.Losers)
	}
	if result.TotalPayout != 0 {
		t.Errorf("total payout = %v, want 0", result.TotalPayout)
	}
}

// Replaying resolution with the same inputs must produce a bit-identical
// record, ID included, so crash recovery can re-derive it safely.
func TestComputeIsDeterministic(t *testing.T) {
	resolvedAt := time.Date(2026, 5, 1, 19, 30, 0, 0, time.UTC)
	positions := []types.Position{
		{MarketID: "m1", Bettor: bettorA, Outcome: types.OutcomeBall, Shares: 10, CostPaid: 5},
		{MarketID: "m1", Bettor: bettorA, Outcome: types.OutcomeStrike, Shares: 2, CostPaid: 1.1},
		{MarketID: "m1", Bettor: bettorB, Outcome: types.OutcomeStrike, Shares: 8, CostPaid: 4},
	}

	first, err := Compute("m1", types.OutcomeStrike, resolvedAt, positions)
	if err != nil {
		t.Fatalf("first Compute: %v", err)
	}
	second, err := Compute("m1", types.OutcomeStrike, resolvedAt, positions)
	if err != nil {
		t.Fatalf("second Compute: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("replayed result differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if first.ID != second.ID {
		t.Errorf("record IDs differ: %s vs %s", first.ID, second.ID)
	}
}

func TestComputeRejectsUnknownOutcome(t *testing.T) {
	_, err := Compute("m1", types.Outcome("FOUL"), time.Now(), nil)
	if err == nil {
		t.Fatal("expected error for unknown outcome")
	}
}

func TestAttachSessions(t *testing.T) {
	result := &types.ResolutionResult{
		Winners: []types.WinnerEntry{{Address: bettorA, Payout: 10}},
		Losers:  []types.LoserEntry{{Address: bettorB, Loss: 4}},
	}

	AttachSessions(result, map[common.Address]string{
		bettorA: "sess-a",
	})

	if result.Winners[0].SessionRef != "sess-a" {
		t.Errorf("winner session = %q, want sess-a", result.Winners[0].SessionRef)
	}
	if result.Losers[0].SessionRef != "" {
		t.Errorf("loser session = %q, want empty (left for external system)", result.Losers[0].SessionRef)
	}
}
