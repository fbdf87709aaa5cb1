package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/fullcount-labs/fullcount/pkg/types"
)

func openTestSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "fullcount.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoresTrades(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	receipt := &types.TradeReceipt{
		MarketID:   "m1",
		Bettor:     common.HexToAddress("0x00000000000000000000000000000000000000a1"),
		Outcome:    types.OutcomeBall,
		ShareDelta: 10,
		Cost:       5.1,
		PBall:      0.52,
		PStrike:    0.48,
		ExecutedAt: time.Now(),
	}

	for i := 0; i < 3; i++ {
		if err := store.StoreTrade(ctx, receipt); err != nil {
			t.Fatalf("store trade: %v", err)
		}
	}

	n, err := store.TradeCount(ctx, "m1")
	if err != nil {
		t.Fatalf("trade count: %v", err)
	}
	if n != 3 {
		t.Errorf("trade count = %d, want 3", n)
	}

	if n, _ := store.TradeCount(ctx, "other"); n != 0 {
		t.Errorf("unrelated market trade count = %d, want 0", n)
	}
}

func TestSQLiteResolutionReplayIsIgnored(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	result := &types.ResolutionResult{
		ID:          "res-1",
		MarketID:    "m1",
		Outcome:     types.OutcomeStrike,
		Winners:     []types.WinnerEntry{{Address: common.HexToAddress("0xa1"), Payout: 8}},
		Losers:      []types.LoserEntry{{Address: common.HexToAddress("0xb2"), Loss: 3}},
		TotalPayout: 8,
		ResolvedAt:  time.Now(),
	}

	// Replays carry the same deterministic id; the second write is a no-op.
	if err := store.StoreResolution(ctx, result); err != nil {
		t.Fatalf("store resolution: %v", err)
	}
	if err := store.StoreResolution(ctx, result); err != nil {
		t.Fatalf("store resolution replay: %v", err)
	}

	var n int
	err := store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM resolutions WHERE market_id = ?`, "m1").Scan(&n)
	if err != nil {
		t.Fatalf("count resolutions: %v", err)
	}
	if n != 1 {
		t.Errorf("resolution rows = %d, want 1", n)
	}
}

func TestConsoleResolutionReport(t *testing.T) {
	store := NewConsoleStorage(zap.NewNop())
	var buf bytes.Buffer
	store.out = &buf

	result := &types.ResolutionResult{
		ID:       "res-1",
		MarketID: "m1",
		Outcome:  types.OutcomeBall,
		Winners: []types.WinnerEntry{
			{Address: common.HexToAddress("0x00000000000000000000000000000000000000a1"), Payout: 10, SessionRef: "sess-a"},
		},
		Losers: []types.LoserEntry{
			{Address: common.HexToAddress("0x00000000000000000000000000000000000000b2"), Loss: 4},
		},
		TotalPayout: 10,
		ResolvedAt:  time.Now(),
	}

	if err := store.StoreResolution(context.Background(), result); err != nil {
		t.Fatalf("store resolution: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"m1", "BALL", "WIN", "LOSS", "sess-a"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
