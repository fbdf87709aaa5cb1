package oracle

import (
	"math/rand/v2"
	"sync"

	"github.com/fullcount-labs/fullcount/pkg/types"
)

// OutcomeSource produces the outcome for each resolve, one draw per market.
type OutcomeSource interface {
	Next() (types.Outcome, error)
}

// SequenceSource consumes a fixed ordered outcome sequence. Draws past the
// end fail with ScheduleExhausted; the oracle never guesses.
type SequenceSource struct {
	mu       sync.Mutex
	gameID   string
	sequence []types.Outcome
	consumed int
}

// NewSequenceSource creates a source over a fixed outcome sequence.
func NewSequenceSource(gameID string, sequence []types.Outcome) *SequenceSource {
	return &SequenceSource{
		gameID:   gameID,
		sequence: sequence,
	}
}

// Next returns the next unconsumed entry.
func (s *SequenceSource) Next() (types.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consumed >= len(s.sequence) {
		return "", &types.ScheduleExhaustedError{GameID: s.gameID, Consumed: s.consumed}
	}

	outcome := s.sequence[s.consumed]
	s.consumed++
	OutcomesDrawnTotal.WithLabelValues("sequence", string(outcome)).Inc()
	return outcome, nil
}

// RandomSource draws uniformly between the two outcomes. The generator is
// injectable so uniformity is testable with a fixed seed.
type RandomSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource creates a random source over the given generator.
func NewRandomSource(rng *rand.Rand) *RandomSource {
	return &RandomSource{rng: rng}
}

// Next draws one outcome.
func (r *RandomSource) Next() (types.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	outcome := types.OutcomeBall
	if r.rng.IntN(2) == 1 {
		outcome = types.OutcomeStrike
	}
	OutcomesDrawnTotal.WithLabelValues("random", string(outcome)).Inc()
	return outcome, nil
}
