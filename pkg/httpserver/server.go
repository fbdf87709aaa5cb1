// Package httpserver exposes the market engine over a thin REST dispatch
// layer plus the websocket feed, metrics and health probes. Handlers
// translate between HTTP and engine calls; every rule lives in the engine.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fullcount-labs/fullcount/internal/broadcast"
	"github.com/fullcount-labs/fullcount/internal/engine"
	"github.com/fullcount-labs/fullcount/internal/ledger"
	"github.com/fullcount-labs/fullcount/internal/settlement"
	"github.com/fullcount-labs/fullcount/pkg/healthprobe"
)

// Server provides the HTTP API, metrics and health checks.
type Server struct {
	server        *http.Server
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
}

// Config holds server configuration. Hub and Settlement are optional; their
// routes are only mounted when present.
type Config struct {
	Port             string
	Logger           *zap.Logger
	HealthChecker    *healthprobe.HealthChecker
	Engine           *engine.Engine
	Ledger           *ledger.Ledger
	Hub              *broadcast.Hub
	Settlement       *settlement.Tracker
	Scheduler        MarketScheduler
	DefaultLiquidity float64
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Operational routes
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	h := &handler{
		engine:           cfg.Engine,
		ledger:           cfg.Ledger,
		settlement:       cfg.Settlement,
		scheduler:        cfg.Scheduler,
		defaultLiquidity: cfg.DefaultLiquidity,
		logger:           cfg.Logger,
	}

	r.Route("/api/markets", func(r chi.Router) {
		r.Post("/", h.createMarket)
		r.Get("/", h.listMarkets)
		r.Get("/{marketID}", h.getMarket)
		r.Get("/{marketID}/quote", h.getQuote)
		r.Get("/{marketID}/positions", h.getPositions)
		r.Get("/{marketID}/resolution", h.getResolution)
		r.Post("/{marketID}/trades", h.applyTrade)
	})

	r.Route("/api/admin/markets/{marketID}", func(r chi.Router) {
		r.Post("/open", h.openMarket)
		r.Post("/close", h.closeMarket)
		r.Post("/resolve", h.resolveMarket)
		if cfg.Settlement != nil {
			r.Post("/settlement/retry", h.retrySettlement)
		}
	})

	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.HandleWS)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server:        server,
		logger:        cfg.Logger,
		healthChecker: cfg.HealthChecker,
	}
}

// Handler returns the router for tests to drive without a listener.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}
