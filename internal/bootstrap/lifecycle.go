package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	infragin "github.com/jcaisse/curated-content-portal-sub001/infrastructure/gin"
	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
)

const signalChannelBufferSize = 1

// RunUntilInterrupt blocks until SIGINT, SIGTERM, ctx cancellation or a
// server error, then shuts everything down.
func RunUntilInterrupt(ctx context.Context, app *App, errCh <-chan error, server *infragin.Server) error {
	sigChan := make(chan os.Signal, signalChannelBufferSize)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var serverErr error
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			app.Logger.Error("Server error", logger.Error(err))
			serverErr = fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigChan:
		app.Logger.Info("Shutdown signal received", logger.String("signal", sig.String()))
	case <-ctx.Done():
		app.Logger.Info("Context cancelled, shutting down")
	}

	if err := Shutdown(app, server); err != nil && serverErr == nil {
		return err
	}
	return serverErr
}

// Shutdown stops the scheduler first so no new runs start, then the HTTP
// server, then cancels and waits for in-flight runs.
func Shutdown(app *App, server *infragin.Server) error {
	log := app.Logger
	ctx, cancel := context.WithTimeout(context.Background(), app.Config.Service.ShutdownTimeout)
	defer cancel()

	if sched := app.Services.Scheduler; sched != nil {
		log.Info("Stopping crawl scheduler")
		if err := sched.Stop(ctx); err != nil {
			log.Error("Failed to stop scheduler", logger.Error(err))
		}
	}

	var firstErr error
	log.Info("Stopping HTTP server")
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Failed to stop server", logger.Error(err))
		firstErr = fmt.Errorf("failed to stop server: %w", err)
	}

	log.Info("Stopping crawl runner")
	if err := app.Services.Runner.Shutdown(ctx); err != nil {
		log.Error("Crawl runs did not finish before shutdown timeout", logger.Error(err))
		if firstErr == nil {
			firstErr = fmt.Errorf("stop runner: %w", err)
		}
	}

	log.Info("Shutdown complete")
	return firstErr
}
