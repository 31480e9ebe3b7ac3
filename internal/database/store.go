package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
	"github.com/jcaisse/curated-content-portal-sub001/internal/moderation"
)

// Postgres error codes mapped to domain errors.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqInvalidText         = "22P02"
)

// Store implements every curator repository over one *sqlx.DB. Values
// handed out by WithinTx are bound to the transaction.
type Store struct {
	db   *sqlx.DB
	q    sqlx.ExtContext
	inTx bool
}

// New returns a Store over db.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, q: db}
}

// DB exposes the underlying pool for health checks and migrations.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithinTx runs fn in one transaction, committing when fn returns nil.
// Items read through the transactional store are locked until commit.
func (s *Store) WithinTx(ctx context.Context, fn func(moderation.Store) error) error {
	return s.withTx(ctx, func(tx *Store) error { return fn(tx) })
}

func (s *Store) withTx(ctx context.Context, fn func(*Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(&Store{db: s.db, q: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// mapError converts driver errors into domain errors and wraps the rest with op.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrConflict)
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		case pqInvalidText:
			// A malformed id cannot match any row.
			return domain.ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// execExpectOne runs a statement that must touch exactly one row.
func (s *Store) execExpectOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// stringArray encodes nil as an empty array; the array columns are NOT NULL.
func stringArray(values []string) pq.StringArray {
	if values == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(values)
}
