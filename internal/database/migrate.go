package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	"github.com/jcaisse/curated-content-portal-sub001/migrations"
)

// Migrator applies the embedded schema migrations.
type Migrator struct {
	m   *migrate.Migrate
	log logger.Logger
}

// NewMigrator binds the embedded migrations to db.
func NewMigrator(db *sqlx.DB, log logger.Logger) (*Migrator, error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return &Migrator{m: m, log: log}, nil
}

// Up applies all pending migrations.
func (g *Migrator) Up() error {
	if err := g.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			g.log.Info("No pending migrations")
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}
	g.log.Info("Migrations applied successfully")
	return nil
}

// Down rolls back steps migrations, at least one.
func (g *Migrator) Down(steps int) error {
	steps = max(steps, 1)
	if err := g.m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			g.log.Info("No migrations to roll back")
			return nil
		}
		return fmt.Errorf("rollback migrations: %w", err)
	}
	g.log.Info("Migrations rolled back", logger.Int("steps", steps))
	return nil
}

// Version reports the applied version. A fresh database reports 0.
func (g *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get migration version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the migration source and database driver. The driver closes
// the underlying pool as well.
func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	return errors.Join(srcErr, dbErr)
}
