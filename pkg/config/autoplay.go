package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fullcount-labs/fullcount/pkg/types"
)

// AutoPlayFile is the on-disk automation schedule for one game. It is plain
// data; cmd converts it into the oracle's runtime configuration.
type AutoPlayFile struct {
	OpenDelayMS    int      `yaml:"open_delay_ms"`
	CloseDelayMS   int      `yaml:"close_delay_ms"`
	ResolveDelayMS int      `yaml:"resolve_delay_ms"`
	OutcomeMode    string   `yaml:"outcome_mode"` // "sequence" or "random"
	Seed           uint64   `yaml:"seed"`         // random mode only; 0 means seed from time
	Sequence       []string `yaml:"sequence"`     // sequence mode only: "BALL" / "STRIKE"
}

// LoadAutoPlay reads and validates an automation schedule.
func LoadAutoPlay(path string) (*AutoPlayFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read autoplay file: %w", err)
	}

	var file AutoPlayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse autoplay file: %w", err)
	}

	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("validate autoplay file: %w", err)
	}

	return &file, nil
}

// Validate checks delays, mode and outcome spellings.
func (f *AutoPlayFile) Validate() error {
	if f.OpenDelayMS < 0 || f.CloseDelayMS < 0 || f.ResolveDelayMS < 0 {
		return fmt.Errorf("delays cannot be negative")
	}

	switch f.OutcomeMode {
	case "sequence":
		if len(f.Sequence) == 0 {
			return fmt.Errorf("sequence mode requires a non-empty sequence")
		}
		for i, raw := range f.Sequence {
			if !types.Outcome(raw).Valid() {
				return fmt.Errorf("sequence[%d]: unknown outcome %q", i, raw)
			}
		}
	case "random":
		if len(f.Sequence) > 0 {
			return fmt.Errorf("random mode does not take a sequence")
		}
	default:
		return fmt.Errorf("outcome_mode must be 'sequence' or 'random', got %q", f.OutcomeMode)
	}

	return nil
}

// Outcomes returns the parsed sequence for sequence mode.
func (f *AutoPlayFile) Outcomes() []types.Outcome {
	outcomes := make([]types.Outcome, 0, len(f.Sequence))
	for _, raw := range f.Sequence {
		outcomes = append(outcomes, types.Outcome(raw))
	}
	return outcomes
}
