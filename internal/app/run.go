package app

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("storage-mode", a.cfg.StorageMode),
		zap.String("game-id", a.cfg.GameID),
		zap.Bool("automation", a.automation != nil),
		zap.Bool("settlement", a.tracker != nil),
		zap.String("log-level", a.cfg.LogLevel))

	if err := a.engine.Start(a.ctx); err != nil {
		return err
	}

	if a.automation != nil {
		a.automation.Activate(a.ctx)
	}

	g, gctx := errgroup.WithContext(a.ctx)

	g.Go(func() error {
		return a.httpServer.Start()
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
		case <-gctx.Done():
			a.logger.Info("context-cancelled")
		}

		return a.Shutdown()
	})

	a.healthChecker.SetReady(true)
	a.logger.Info("application-ready", zap.String("http-addr", ":"+a.cfg.HTTPPort))

	return g.Wait()
}
