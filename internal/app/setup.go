package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/fullcount-labs/fullcount/internal/broadcast"
	"github.com/fullcount-labs/fullcount/internal/engine"
	"github.com/fullcount-labs/fullcount/internal/ledger"
	"github.com/fullcount-labs/fullcount/internal/oracle"
	"github.com/fullcount-labs/fullcount/internal/settlement"
	"github.com/fullcount-labs/fullcount/internal/storage"
	"github.com/fullcount-labs/fullcount/pkg/cache"
	"github.com/fullcount-labs/fullcount/pkg/config"
	"github.com/fullcount-labs/fullcount/pkg/healthprobe"
	"github.com/fullcount-labs/fullcount/pkg/httpserver"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	quotes, err := setupQuoteCache(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup quote cache: %w", err)
	}

	hub := broadcast.New(broadcast.Config{Logger: logger})

	store, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	led := ledger.New(logger)
	eng := engine.New(&engine.Config{
		Logger:    logger,
		Ledger:    led,
		Quotes:    quotes,
		Publisher: hub,
		Store:     store,
		QuoteTTL:  cfg.QuoteCacheTTL,
	})

	tracker := setupSettlement(cfg, logger)

	automation, err := setupAutomation(cfg, logger, eng, tracker, opts)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup automation: %w", err)
	}

	httpServer := setupHTTPServer(cfg, logger, healthChecker, eng, led, hub, tracker, automation)

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		engine:        eng,
		ledger:        led,
		quotes:        quotes,
		hub:           hub,
		tracker:       tracker,
		automation:    automation,
		storage:       store,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupQuoteCache(cfg *config.Config, logger *zap.Logger) (cache.QuoteCache, error) {
	return cache.NewRistretto(&cache.Config{
		NumCounters: int64(cfg.QuoteCacheItems) * 10,
		MaxItems:    int64(cfg.QuoteCacheItems),
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.StorageMode {
	case "postgres":
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil

	case "sqlite":
		sqlStorage, err := storage.NewSQLiteStorage(cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("create sqlite storage: %w", err)
		}
		return sqlStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

// setupSettlement returns nil when no settlement endpoint is configured;
// payouts then stay in the resolution record for the external collaborator.
func setupSettlement(cfg *config.Config, logger *zap.Logger) *settlement.Tracker {
	if cfg.SettlementURL == "" {
		logger.Info("settlement-disabled",
			zap.String("reason", "SETTLEMENT_URL not set"))
		return nil
	}

	executor := settlement.NewHTTP(settlement.HTTPConfig{
		Endpoint:          cfg.SettlementURL,
		Timeout:           cfg.SettlementTimeout,
		RequestsPerSecond: cfg.SettlementRPS,
		Burst:             cfg.SettlementBurst,
		Logger:            logger,
	})
	return settlement.NewTracker(settlement.Config{
		Executor: executor,
		Logger:   logger,
	})
}

func setupAutomation(
	cfg *config.Config,
	logger *zap.Logger,
	eng *engine.Engine,
	tracker *settlement.Tracker,
	opts *Options,
) (*oracle.Automation, error) {
	if opts.DisableAutomation || cfg.AutoPlayFile == "" {
		return nil, nil
	}

	file, err := config.LoadAutoPlay(cfg.AutoPlayFile)
	if err != nil {
		return nil, err
	}

	autoCfg, err := BuildAutoPlayConfig(cfg.GameID, file)
	if err != nil {
		return nil, err
	}

	ctrl := &marketController{engine: eng, tracker: tracker, logger: logger}
	return oracle.New(cfg.GameID, autoCfg, ctrl, logger), nil
}

// BuildAutoPlayConfig converts an on-disk schedule into the oracle's runtime
// configuration. Exported for the simulator.
func BuildAutoPlayConfig(gameID string, file *config.AutoPlayFile) (oracle.AutoPlayConfig, error) {
	autoCfg := oracle.AutoPlayConfig{
		OpenDelay:    time.Duration(file.OpenDelayMS) * time.Millisecond,
		CloseDelay:   time.Duration(file.CloseDelayMS) * time.Millisecond,
		ResolveDelay: time.Duration(file.ResolveDelayMS) * time.Millisecond,
	}

	switch file.OutcomeMode {
	case "sequence":
		autoCfg.Outcomes = oracle.NewSequenceSource(gameID, file.Outcomes())
	case "random":
		seed := file.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		autoCfg.Outcomes = oracle.NewRandomSource(rand.New(rand.NewPCG(seed, 0)))
	default:
		return oracle.AutoPlayConfig{}, fmt.Errorf("unknown outcome mode %q", file.OutcomeMode)
	}

	return autoCfg, nil
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	eng *engine.Engine,
	led *ledger.Ledger,
	hub *broadcast.Hub,
	tracker *settlement.Tracker,
	automation *oracle.Automation,
) *httpserver.Server {
	serverCfg := &httpserver.Config{
		Port:             cfg.HTTPPort,
		Logger:           logger,
		HealthChecker:    healthChecker,
		Engine:           eng,
		Ledger:           led,
		Hub:              hub,
		Settlement:       tracker,
		DefaultLiquidity: cfg.DefaultLiquidity,
	}
	// Assign through a nil check so the handler sees a nil interface, not a
	// nil *Automation boxed in a non-nil one.
	if automation != nil {
		serverCfg.Scheduler = automation
	}
	return httpserver.New(serverCfg)
}
