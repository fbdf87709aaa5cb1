// Package app wires the market engine, oracle, broadcast hub, settlement
// tracker and HTTP server into one process and owns their lifecycle.
package app

import (
	"context"

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

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server

	engine     *engine.Engine
	ledger     *ledger.Ledger
	quotes     cache.QuoteCache
	hub        *broadcast.Hub
	tracker    *settlement.Tracker
	automation *oracle.Automation
	storage    storage.Storage

	ctx    context.Context
	cancel context.CancelFunc
}

// Options holds application options.
type Options struct {
	// DisableAutomation ignores AUTOPLAY_FILE; markets are driven manually
	// through the admin API.
	DisableAutomation bool
}
