// Package engine owns market lifecycle state and pool quantities. It is the
// only component allowed to mutate a market's numeric state. Every mutating
// operation on one market runs as a single serialized unit under that
// market's own lock; operations on different markets never contend.
package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fullcount-labs/fullcount/internal/ledger"
	"github.com/fullcount-labs/fullcount/internal/pricing"
	"github.com/fullcount-labs/fullcount/pkg/cache"
	"github.com/fullcount-labs/fullcount/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher fans out committed change events. Publishing must never block a
// market mutation; the broadcast hub satisfies that by dropping on full
// subscriber buffers.
type Publisher interface {
	Publish(event types.Event)
}

// Store receives already-committed facts for durability. Writes happen on the
// engine's persist goroutine, never inside a market's critical section, so a
// slow store can never stall or fail a mutation.
type Store interface {
	StoreTrade(ctx context.Context, receipt *types.TradeReceipt) error
	StoreResolution(ctx context.Context, result *types.ResolutionResult) error
}

// marketEntry pairs one market with its serialization lock.
type marketEntry struct {
	mu         sync.Mutex
	market     types.Market
	resolution *types.ResolutionResult
}

// Engine is the multi-market state machine.
type Engine struct {
	mu      sync.RWMutex
	entries map[string]*marketEntry

	ledger    *ledger.Ledger
	quotes    cache.QuoteCache
	publisher Publisher
	store     Store
	quoteTTL  time.Duration
	logger    *zap.Logger

	persistChan chan persistItem
	ctx         context.Context
	wg          sync.WaitGroup
}

// Config holds engine dependencies. Quotes, Publisher and Store are optional;
// a nil value disables that side channel.
type Config struct {
	Logger    *zap.Logger
	Ledger    *ledger.Ledger
	Quotes    cache.QuoteCache
	Publisher Publisher
	Store     Store
	QuoteTTL  time.Duration
}

type persistItem struct {
	receipt    *types.TradeReceipt
	resolution *types.ResolutionResult
}

// New creates a market engine.
func New(cfg *Config) *Engine {
	ttl := cfg.QuoteTTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &Engine{
		entries:     make(map[string]*marketEntry),
		ledger:      cfg.Ledger,
		quotes:      cfg.Quotes,
		publisher:   cfg.Publisher,
		store:       cfg.Store,
		quoteTTL:    ttl,
		logger:      cfg.Logger,
		persistChan: make(chan persistItem, 4096),
	}
}

// Start launches the persist goroutine.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx = ctx
	e.logger.Info("market-engine-starting")

	e.wg.Add(1)
	go e.persistLoop()

	return nil
}

// Stop drains the persist goroutine and closes the engine.
func (e *Engine) Stop() error {
	e.logger.Info("market-engine-stopping")
	close(e.persistChan)
	e.wg.Wait()
	return nil
}

func (e *Engine) persistLoop() {
	defer e.wg.Done()

	for item := range e.persistChan {
		if e.store == nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		var err error
		switch {
		case item.receipt != nil:
			err = e.store.StoreTrade(ctx, item.receipt)
		case item.resolution != nil:
			err = e.store.StoreResolution(ctx, item.resolution)
		}
		cancel()

		if err != nil {
			PersistErrorsTotal.Inc()
			e.logger.Warn("persist-error", zap.Error(err))
		}
	}
}

// persist hands a committed fact to the persist goroutine without blocking.
func (e *Engine) persist(item persistItem) {
	if e.store == nil {
		return
	}

	select {
	case e.persistChan <- item:
	default:
		PersistDroppedTotal.Inc()
		e.logger.Error("persist-channel-full-dropping",
			zap.Int("buffer-size", cap(e.persistChan)))
	}
}

// CreateMarket registers a new PENDING market with the given liquidity
// parameter. The liquidity parameter is fixed for the market's lifetime.
func (e *Engine) CreateMarket(gameID, question string, b float64) (types.Market, error) {
	// Reject invalid liquidity up front; the pricing engine would refuse
	// every later call anyway.
	if _, _, err := pricing.Price(0, 0, b); err != nil {
		return types.Market{}, err
	}

	market := types.Market{
		ID:        uuid.New().String(),
		GameID:    gameID,
		Question:  question,
		Status:    types.StatusPending,
		B:         b,
		CreatedAt: time.Now(),
	}

	e.mu.Lock()
	e.entries[market.ID] = &marketEntry{market: market}
	e.mu.Unlock()

	MarketsCreatedTotal.Inc()
	e.logger.Info("market-created",
		zap.String("market-id", market.ID),
		zap.String("game-id", gameID),
		zap.Float64("b", b))

	e.cacheQuote(&market)

	return market, nil
}

func (e *Engine) entry(marketID string) (*marketEntry, error) {
	e.mu.RLock()
	entry, exists := e.entries[marketID]
	e.mu.RUnlock()

	if !exists {
		return nil, &types.NotFoundError{MarketID: marketID}
	}
	return entry, nil
}

// Get returns a copy of the market's committed state.
func (e *Engine) Get(marketID string) (types.Market, error) {
	entry, err := e.entry(marketID)
	if err != nil {
		return types.Market{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.market, nil
}

// List returns copies of all markets sorted by creation time.
func (e *Engine) List() []types.Market {
	e.mu.RLock()
	entries := make([]*marketEntry, 0, len(e.entries))
	for _, entry := range e.entries {
		entries = append(entries, entry)
	}
	e.mu.RUnlock()

	out := make([]types.Market, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		out = append(out, entry.market)
		entry.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out
}

// Quote serves the latest committed prices for display reads. It prefers the
// quote cache and falls back to committed state on a miss; either way it does
// not join the market's serialization queue for longer than a state copy.
func (e *Engine) Quote(marketID string) (types.Quote, error) {
	if e.quotes != nil {
		if quote, found := e.quotes.Get(marketID); found {
			return *quote, nil
		}
	}

	market, err := e.Get(marketID)
	if err != nil {
		return types.Quote{}, err
	}

	quote := quoteFor(&market)
	if e.quotes != nil {
		e.quotes.Set(&quote, e.quoteTTL)
	}
	return quote, nil
}

// Resolution returns the resolution record of a RESOLVED market.
func (e *Engine) Resolution(marketID string) (*types.ResolutionResult, error) {
	entry, err := e.entry(marketID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.resolution == nil {
		return nil, &types.InvalidTransitionError{
			MarketID: marketID,
			From:     entry.market.Status,
			Op:       "read resolution",
		}
	}

	result := *entry.resolution
	result.Winners = append([]types.WinnerEntry(nil), entry.resolution.Winners...)
	result.Losers = append([]types.LoserEntry(nil), entry.resolution.Losers...)
	return &result, nil
}

// cacheQuote publishes the committed prices of a market to the quote cache.
func (e *Engine) cacheQuote(market *types.Market) {
	if e.quotes == nil {
		return
	}

	quote := quoteFor(market)
	e.quotes.Set(&quote, e.quoteTTL)
}

func quoteFor(market *types.Market) types.Quote {
	pBall, pStrike, err := pricing.Price(market.QBall, market.QStrike, market.B)
	if err != nil {
		// Committed state is validated on every mutation; this is unreachable
		// for stored markets, but fall back to even money rather than panic.
		pBall, pStrike = 0.5, 0.5
	}

	return types.Quote{
		MarketID:  market.ID,
		Status:    market.Status,
		PBall:     pBall,
		PStrike:   pStrike,
		UpdatedAt: time.Now(),
	}
}

func (e *Engine) publish(event types.Event) {
	if e.publisher != nil {
		e.publisher.Publish(event)
	}
}
