package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application. Components close in
// dependency order: stop accepting requests, stop the oracle's timers, drain
// the engine's persist queue, then release the side channels.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	if a.automation != nil {
		a.automation.Deactivate()
	}

	if err := a.engine.Stop(); err != nil {
		a.logger.Error("engine-stop-error", zap.Error(err))
	}

	a.hub.Close()

	if err := a.storage.Close(); err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	a.quotes.Close()

	a.logger.Info("application-shutdown-complete")

	return nil
}
