// Package bootstrap wires curator's components together.
//
// Serving follows these phases:
//   - Phase 1: Config & Logger - load configuration and create the logger
//   - Phase 2: Database - connect to PostgreSQL
//   - Phase 3: Events - connect to Redis and create the publisher (if enabled)
//   - Phase 4: Services - scoring, crawl controller, runner, moderation, scheduler
//   - Phase 5: Server - create and start the HTTP server
//   - Phase 6: Run - wait for a signal or error, then shut down
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	"github.com/jcaisse/curated-content-portal-sub001/internal/database"
)

// App holds the connections and services built by NewApp.
type App struct {
	*CommandDeps

	DB       *sqlx.DB
	Store    *database.Store
	Redis    *redis.Client
	Services *Services
}

// NewApp runs phases 2 to 4.
func NewApp(ctx context.Context, deps *CommandDeps) (*App, error) {
	db, err := SetupDatabase(ctx, deps.Config, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	redisClient := SetupRedis(deps.Config, deps.Logger)
	store := database.New(db)

	services, err := SetupServices(deps, store, redisClient)
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to setup services: %w", err)
	}

	return &App{
		CommandDeps: deps,
		DB:          db,
		Store:       store,
		Redis:       redisClient,
		Services:    services,
	}, nil
}

// Close releases the Redis and database connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("Failed to close redis", logger.Error(err))
		}
	}
	if err := database.Close(a.DB); err != nil {
		a.Logger.Error("Failed to close database", logger.Error(err))
	}
}

// Serve runs the HTTP API and the crawl scheduler until a signal arrives or
// ctx is cancelled.
func Serve(ctx context.Context, deps *CommandDeps) error {
	app, err := NewApp(ctx, deps)
	if err != nil {
		return err
	}
	defer app.Close()

	server := SetupHTTPServer(app)

	if app.Services.Scheduler != nil {
		app.Services.Scheduler.Start()
	}

	return RunUntilInterrupt(ctx, app, server.StartAsync(), server)
}
