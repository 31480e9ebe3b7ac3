package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

const crawlerColumns = `id, name, description, is_active, min_match_score, created_at, updated_at`

// CreateCrawler inserts c with its keywords and sources. Ids are assigned
// where missing. A duplicate name yields domain.ErrConflict.
func (s *Store) CreateCrawler(ctx context.Context, c *domain.Crawler) (*domain.Crawler, error) {
	created := *c
	if created.ID == "" {
		created.ID = uuid.NewString()
	}

	query := `
		INSERT INTO crawlers (id, name, description, is_active, min_match_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := s.withTx(ctx, func(tx *Store) error {
		row := tx.q.QueryRowxContext(ctx, query,
			created.ID, created.Name, created.Description, created.IsActive, created.MinMatchScore,
		)
		if err := row.Scan(&created.CreatedAt, &created.UpdatedAt); err != nil {
			return mapError("create crawler", err)
		}
		return tx.replaceChildren(ctx, &created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// GetCrawler returns the crawler with its keywords and sources.
func (s *Store) GetCrawler(ctx context.Context, id string) (*domain.Crawler, error) {
	var c domain.Crawler
	query := `SELECT ` + crawlerColumns + ` FROM crawlers WHERE id = $1`

	if err := sqlx.GetContext(ctx, s.q, &c, query, id); err != nil {
		return nil, mapError("get crawler", err)
	}

	crawlers := []domain.Crawler{c}
	if err := s.loadChildren(ctx, crawlers); err != nil {
		return nil, err
	}
	return &crawlers[0], nil
}

// ListCrawlers returns every crawler ordered by name.
func (s *Store) ListCrawlers(ctx context.Context) ([]domain.Crawler, error) {
	return s.listCrawlers(ctx, `SELECT `+crawlerColumns+` FROM crawlers ORDER BY name`)
}

// ListActiveCrawlers returns active crawlers ordered by name.
func (s *Store) ListActiveCrawlers(ctx context.Context) ([]domain.Crawler, error) {
	return s.listCrawlers(ctx, `SELECT `+crawlerColumns+` FROM crawlers WHERE is_active = true ORDER BY name`)
}

func (s *Store) listCrawlers(ctx context.Context, query string) ([]domain.Crawler, error) {
	crawlers := []domain.Crawler{}
	if err := sqlx.SelectContext(ctx, s.q, &crawlers, query); err != nil {
		return nil, mapError("list crawlers", err)
	}
	if err := s.loadChildren(ctx, crawlers); err != nil {
		return nil, err
	}
	return crawlers, nil
}

// UpdateCrawler replaces the crawler's settings, keywords and sources.
func (s *Store) UpdateCrawler(ctx context.Context, c *domain.Crawler) (*domain.Crawler, error) {
	updated := *c
	query := `
		UPDATE crawlers
		SET name = $2, description = $3, is_active = $4, min_match_score = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := s.withTx(ctx, func(tx *Store) error {
		row := tx.q.QueryRowxContext(ctx, query,
			updated.ID, updated.Name, updated.Description, updated.IsActive, updated.MinMatchScore,
		)
		if err := row.Scan(&updated.CreatedAt, &updated.UpdatedAt); err != nil {
			return mapError("update crawler", err)
		}
		return tx.replaceChildren(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCrawler removes the crawler. Runs, keywords, sources and
// moderation items cascade; posts are kept.
func (s *Store) DeleteCrawler(ctx context.Context, id string) error {
	return s.execExpectOne(ctx, "delete crawler", `DELETE FROM crawlers WHERE id = $1`, id)
}

// replaceChildren rewrites the crawler's keyword and source rows, keeping
// their order. Must run inside a transaction.
func (s *Store) replaceChildren(ctx context.Context, c *domain.Crawler) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM crawler_keywords WHERE crawler_id = $1`, c.ID); err != nil {
		return mapError("clear crawler keywords", err)
	}
	for i, k := range c.Keywords {
		_, err := s.q.ExecContext(ctx,
			`INSERT INTO crawler_keywords (crawler_id, keyword, position) VALUES ($1, $2, $3)`,
			c.ID, k, i,
		)
		if err != nil {
			return mapError("insert crawler keyword", err)
		}
	}

	if _, err := s.q.ExecContext(ctx, `DELETE FROM crawler_sources WHERE crawler_id = $1`, c.ID); err != nil {
		return mapError("clear crawler sources", err)
	}
	for i := range c.Sources {
		src := &c.Sources[i]
		if src.ID == "" {
			src.ID = uuid.NewString()
		}
		src.CrawlerID = c.ID
		_, err := s.q.ExecContext(ctx,
			`INSERT INTO crawler_sources (id, crawler_id, url, type, enabled, position) VALUES ($1, $2, $3, $4, $5, $6)`,
			src.ID, c.ID, src.URL, src.Type, src.Enabled, i,
		)
		if err != nil {
			return mapError("insert crawler source", err)
		}
	}
	return nil
}

type keywordRow struct {
	CrawlerID string `db:"crawler_id"`
	Keyword   string `db:"keyword"`
}

// loadChildren fills Keywords and Sources for crawlers in place.
func (s *Store) loadChildren(ctx context.Context, crawlers []domain.Crawler) error {
	if len(crawlers) == 0 {
		return nil
	}

	ids := make([]string, len(crawlers))
	index := make(map[string]int, len(crawlers))
	for i := range crawlers {
		ids[i] = crawlers[i].ID
		index[crawlers[i].ID] = i
		crawlers[i].Keywords = []string{}
		crawlers[i].Sources = []domain.Source{}
	}

	var keywords []keywordRow
	err := sqlx.SelectContext(ctx, s.q, &keywords, `
		SELECT crawler_id, keyword FROM crawler_keywords
		WHERE crawler_id = ANY($1)
		ORDER BY crawler_id, position
	`, pq.Array(ids))
	if err != nil {
		return mapError("load crawler keywords", err)
	}
	for _, k := range keywords {
		c := &crawlers[index[k.CrawlerID]]
		c.Keywords = append(c.Keywords, k.Keyword)
	}

	var sources []domain.Source
	err = sqlx.SelectContext(ctx, s.q, &sources, `
		SELECT id, crawler_id, url, type, enabled FROM crawler_sources
		WHERE crawler_id = ANY($1)
		ORDER BY crawler_id, position
	`, pq.Array(ids))
	if err != nil {
		return mapError("load crawler sources", err)
	}
	for _, src := range sources {
		c := &crawlers[index[src.CrawlerID]]
		c.Sources = append(c.Sources, src)
	}
	return nil
}
