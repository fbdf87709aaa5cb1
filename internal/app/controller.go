package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/fullcount-labs/fullcount/internal/engine"
	"github.com/fullcount-labs/fullcount/internal/settlement"
	"github.com/fullcount-labs/fullcount/pkg/types"
)

// marketController adapts the engine to the oracle's lifecycle capability. A
// fired timer goes through the same serialized operations as an admin call;
// the oracle holds no special power over market state.
type marketController struct {
	engine  *engine.Engine
	tracker *settlement.Tracker
	logger  *zap.Logger
}

func (c *marketController) OnOpenMarket(_ context.Context, marketID string) error {
	_, err := c.engine.Open(marketID)
	return err
}

func (c *marketController) OnCloseMarket(_ context.Context, marketID string) error {
	_, err := c.engine.Close(marketID)
	return err
}

// OnResolve resolves the market and then hands the committed record to
// settlement. A payout failure is logged and retried later; it never
// propagates back into the resolution.
func (c *marketController) OnResolve(ctx context.Context, marketID string, outcome types.Outcome) error {
	result, err := c.engine.Resolve(marketID, outcome)
	if err != nil {
		return err
	}

	if c.tracker != nil {
		if err := c.tracker.Settle(ctx, result, nil); err != nil {
			c.logger.Warn("settlement-incomplete",
				zap.String("market-id", marketID),
				zap.Error(err))
		}
	}

	return nil
}
