// Package resolution computes winners, losers and payout amounts for a
// resolved market. It is deterministic and side-effect-free: it never moves
// funds and never mutates the market or the ledger, it only returns payout
// instructions for the external settlement collaborator.
package resolution

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fullcount-labs/fullcount/pkg/types"
	"github.com/google/uuid"
)

// resultNamespace seeds the UUIDv5 derivation of resolution record IDs, so
// replaying resolution for the same market yields a bit-identical record.
var resultNamespace = uuid.MustParse("b7a9c2e4-5d31-4f8a-9c06-2e7d14ba55f1")

// Compute derives the resolution record for a market. Each winning position
// (matching outcome, shares > 0) pays out one unit of settlement value per
// share; every other position forfeits its cumulative cost paid. The LMSR
// design bounds the sum of payouts by collected liquidity plus the subsidy b.
//
// Positions must be the ledger snapshot taken inside the resolve critical
// section; resolvedAt must be the market's resolvedAt timestamp so replays
// reproduce the record exactly.
func Compute(marketID string, outcome types.Outcome, resolvedAt time.Time, positions []types.Position) (*types.ResolutionResult, error) {
	if !outcome.Valid() {
		return nil, fmt.Errorf("market %s: unknown outcome %q", marketID, outcome)
	}

	result := &types.ResolutionResult{
		ID:         uuid.NewSHA1(resultNamespace, []byte(marketID)).String(),
		MarketID:   marketID,
		Outcome:    outcome,
		Winners:    make([]types.WinnerEntry, 0, len(positions)),
		Losers:     make([]types.LoserEntry, 0, len(positions)),
		ResolvedAt: resolvedAt,
	}

	for _, pos := range positions {
		if pos.Outcome == outcome && pos.Shares > 0 {
			result.Winners = append(result.Winners, types.WinnerEntry{
				Address: pos.Bettor,
				Payout:  pos.Shares,
			})
			result.TotalPayout += pos.Shares
			continue
		}

		// Losing shares pay nothing; the stake is forfeited in full.
		result.Losers = append(result.Losers, types.LoserEntry{
			Address: pos.Bettor,
			Loss:    pos.CostPaid,
		})
	}

	return result, nil
}

// AttachSessions fills in the settlement-session references supplied by the
// custody collaborator. Entries without a mapping are left blank for the
// external system to populate before execution.
func AttachSessions(result *types.ResolutionResult, sessions map[common.Address]string) {
	for i := range result.Winners {
		if ref, ok := sessions[result.Winners[i].Address]; ok {
			result.Winners[i].SessionRef = ref
		}
	}
	for i := range result.Losers {
		if ref, ok := sessions[result.Losers[i].Address]; ok {
			result.Losers[i].SessionRef = ref
		}
	}
}
