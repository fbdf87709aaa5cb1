// Package oracle drives markets through their lifecycle on a per-game timer
// schedule. Automation talks to the state machine only through the
// MarketController capability; it never touches market fields directly.
package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/fullcount-labs/fullcount/pkg/types"
	"go.uber.org/zap"
)

// MarketController is the capability the automation is given over market
// lifecycle. The engine adapter implements it; a fired timer re-enters the
// same serialized operation path as any other caller.
type MarketController interface {
	OnOpenMarket(ctx context.Context, marketID string) error
	OnCloseMarket(ctx context.Context, marketID string) error
	OnResolve(ctx context.Context, marketID string, outcome types.Outcome) error
}

// AutoPlayConfig is one game's automation schedule. CloseDelay is measured
// from open and ResolveDelay from close.
type AutoPlayConfig struct {
	OpenDelay    time.Duration
	CloseDelay   time.Duration
	ResolveDelay time.Duration
	Outcomes     OutcomeSource
}

// Automation is a per-game timer process. While active, each scheduled market
// is walked open -> close -> resolve by one goroutine of one-shot deferred
// steps, every step cancellable until the moment it fires.
type Automation struct {
	gameID string
	cfg    AutoPlayConfig
	ctrl   MarketController
	logger *zap.Logger

	mu     sync.Mutex
	active bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates automation for one game.
func New(gameID string, cfg AutoPlayConfig, ctrl MarketController, logger *zap.Logger) *Automation {
	return &Automation{
		gameID: gameID,
		cfg:    cfg,
		ctrl:   ctrl,
		logger: logger,
	}
}

// Activate marks the game active. Scheduled chains derive from the given
// context, so cancelling it deactivates the game as well.
func (a *Automation) Activate(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active {
		return
	}

	a.ctx, a.cancel = context.WithCancel(ctx)
	a.active = true
	GamesActive.Inc()
	a.logger.Info("game-automation-activated", zap.String("game-id", a.gameID))
}

// Deactivate cancels every pending timer and waits for in-flight chains to
// observe the cancellation. A timer firing concurrently with deactivation is
// a no-op once the cancellation has committed.
func (a *Automation) Deactivate() {
	a.mu.Lock()
	if !a.active {
		a.mu.Unlock()
		return
	}
	a.active = false
	cancel := a.cancel
	a.mu.Unlock()

	cancel()
	a.wg.Wait()
	GamesActive.Dec()
	a.logger.Info("game-automation-deactivated", zap.String("game-id", a.gameID))
}

// ScheduleMarket starts the open/close/resolve chain for one market. The
// outcome slot is consumed now, one per scheduled market in order, so an
// exhausted fixed sequence fails loud here rather than mid-chain.
func (a *Automation) ScheduleMarket(marketID string) error {
	a.mu.Lock()
	if !a.active {
		a.mu.Unlock()
		return context.Canceled
	}
	ctx := a.ctx
	a.mu.Unlock()

	outcome, err := a.cfg.Outcomes.Next()
	if err != nil {
		a.logger.Error("outcome-schedule-error",
			zap.String("game-id", a.gameID),
			zap.String("market-id", marketID),
			zap.Error(err))
		return err
	}

	MarketsScheduledTotal.Inc()
	a.logger.Info("market-scheduled",
		zap.String("game-id", a.gameID),
		zap.String("market-id", marketID),
		zap.String("outcome", string(outcome)),
		zap.Duration("open-delay", a.cfg.OpenDelay),
		zap.Duration("close-delay", a.cfg.CloseDelay),
		zap.Duration("resolve-delay", a.cfg.ResolveDelay))

	a.wg.Add(1)
	go a.runChain(ctx, marketID, outcome)

	return nil
}

func (a *Automation) runChain(ctx context.Context, marketID string, outcome types.Outcome) {
	defer a.wg.Done()

	steps := []struct {
		op    string
		delay time.Duration
		run   func(context.Context) error
	}{
		{op: "open", delay: a.cfg.OpenDelay, run: func(ctx context.Context) error {
			return a.ctrl.OnOpenMarket(ctx, marketID)
		}},
		{op: "close", delay: a.cfg.CloseDelay, run: func(ctx context.Context) error {
			return a.ctrl.OnCloseMarket(ctx, marketID)
		}},
		{op: "resolve", delay: a.cfg.ResolveDelay, run: func(ctx context.Context) error {
			return a.ctrl.OnResolve(ctx, marketID, outcome)
		}},
	}

	for _, step := range steps {
		if !a.sleep(ctx, step.delay) {
			TimersCancelledTotal.WithLabelValues(step.op).Inc()
			a.logger.Info("timer-cancelled",
				zap.String("game-id", a.gameID),
				zap.String("market-id", marketID),
				zap.String("op", step.op))
			return
		}

		err := step.run(ctx)
		if err != nil {
			CallbackErrorsTotal.WithLabelValues(step.op).Inc()
			a.logger.Error("automation-callback-error",
				zap.String("game-id", a.gameID),
				zap.String("market-id", marketID),
				zap.String("op", step.op),
				zap.Error(err))
			return
		}
	}
}

// sleep waits for the delay and reports whether the step should still run.
// The ctx.Err re-check covers a timer that fires in the same instant the
// cancellation commits.
func (a *Automation) sleep(ctx context.Context, delay time.Duration) bool {
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
		}
	}

	return ctx.Err() == nil
}
