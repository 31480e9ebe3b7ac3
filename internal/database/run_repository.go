package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

const runColumns = `id, crawler_id, status, keywords, started_at, completed_at,
	items_processed, items_queued, error_message, created_at`

type runRow struct {
	domain.CrawlRun
	Keywords pq.StringArray `db:"keywords"`
}

func (r runRow) toDomain() domain.CrawlRun {
	run := r.CrawlRun
	run.Keywords = []string(r.Keywords)
	if run.Keywords == nil {
		run.Keywords = []string{}
	}
	return run
}

func runsFromRows(rows []runRow) []domain.CrawlRun {
	runs := make([]domain.CrawlRun, len(rows))
	for i := range rows {
		runs[i] = rows[i].toDomain()
	}
	return runs
}

// CreateRun inserts a new run. An unknown crawler yields domain.ErrNotFound.
func (s *Store) CreateRun(ctx context.Context, run *domain.CrawlRun) error {
	query := `
		INSERT INTO crawl_runs (
			id, crawler_id, status, keywords, started_at, completed_at,
			items_processed, items_queued, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.q.ExecContext(ctx, query,
		run.ID, run.CrawlerID, run.Status, stringArray(run.Keywords), run.StartedAt, run.CompletedAt,
		run.ItemsProcessed, run.ItemsQueued, run.ErrorMessage, run.CreatedAt,
	)
	return mapError("create run", err)
}

// UpdateRun writes the run's progress and status. Only PENDING and RUNNING
// rows are updated, so a finished run is never rewritten; updating one
// yields domain.ErrNotFound.
func (s *Store) UpdateRun(ctx context.Context, run *domain.CrawlRun) error {
	query := `
		UPDATE crawl_runs
		SET status = $2, started_at = $3, completed_at = $4,
			items_processed = $5, items_queued = $6, error_message = $7
		WHERE id = $1 AND status IN ('PENDING', 'RUNNING')
	`
	return s.execExpectOne(ctx, "update run", query,
		run.ID, run.Status, run.StartedAt, run.CompletedAt,
		run.ItemsProcessed, run.ItemsQueued, run.ErrorMessage,
	)
}

// GetRun returns one run.
func (s *Store) GetRun(ctx context.Context, id string) (*domain.CrawlRun, error) {
	var row runRow
	if err := sqlx.GetContext(ctx, s.q, &row, `SELECT `+runColumns+` FROM crawl_runs WHERE id = $1`, id); err != nil {
		return nil, mapError("get run", err)
	}
	run := row.toDomain()
	return &run, nil
}

// ListRuns returns the crawler's runs newest first, at most limit when limit > 0.
func (s *Store) ListRuns(ctx context.Context, crawlerID string, limit int) ([]domain.CrawlRun, error) {
	rows := []runRow{}
	query := `SELECT ` + runColumns + ` FROM crawl_runs WHERE crawler_id = $1 ORDER BY created_at DESC`
	args := []any{crawlerID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	if err := sqlx.SelectContext(ctx, s.q, &rows, query, args...); err != nil {
		return nil, mapError("list runs", err)
	}
	return runsFromRows(rows), nil
}

// ListRunsSince returns runs that started at or after since, newest first.
func (s *Store) ListRunsSince(ctx context.Context, crawlerID string, since time.Time) ([]domain.CrawlRun, error) {
	rows := []runRow{}
	query := `
		SELECT ` + runColumns + ` FROM crawl_runs
		WHERE crawler_id = $1 AND started_at >= $2
		ORDER BY started_at DESC
	`
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, crawlerID, since); err != nil {
		return nil, mapError("list runs since", err)
	}
	return runsFromRows(rows), nil
}
