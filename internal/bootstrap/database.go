package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	"github.com/jcaisse/curated-content-portal-sub001/internal/config"
	"github.com/jcaisse/curated-content-portal-sub001/internal/database"
)

// SetupDatabase connects to PostgreSQL.
func SetupDatabase(ctx context.Context, cfg *config.Config, log logger.Logger) (*sqlx.DB, error) {
	db, err := database.NewPostgresConnection(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}

	log.Info("Connected to database",
		logger.String("host", cfg.Database.Host),
		logger.Int("port", cfg.Database.Port),
		logger.String("database", cfg.Database.Database),
	)
	return db, nil
}
