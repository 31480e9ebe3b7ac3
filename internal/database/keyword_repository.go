package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

// CreateKeyword adds k to the global catalog. Names are unique
// case-insensitively; a duplicate yields domain.ErrConflict.
func (s *Store) CreateKeyword(ctx context.Context, k *domain.Keyword) (*domain.Keyword, error) {
	created := *k
	if created.ID == "" {
		created.ID = uuid.NewString()
	}

	query := `
		INSERT INTO keywords (id, name, created_by, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, name, created_by, created_at
	`
	if err := s.q.QueryRowxContext(ctx, query, created.ID, created.Name, created.CreatedBy).StructScan(&created); err != nil {
		return nil, mapError("create keyword", err)
	}
	return &created, nil
}

// ListKeywords returns the catalog ordered by name.
func (s *Store) ListKeywords(ctx context.Context) ([]domain.Keyword, error) {
	keywords := []domain.Keyword{}
	query := `SELECT id, name, created_by, created_at FROM keywords ORDER BY name`
	if err := sqlx.SelectContext(ctx, s.q, &keywords, query); err != nil {
		return nil, mapError("list keywords", err)
	}
	return keywords, nil
}

// ListKeywordNames returns catalog names ordered by name.
func (s *Store) ListKeywordNames(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := sqlx.SelectContext(ctx, s.q, &names, `SELECT name FROM keywords ORDER BY name`); err != nil {
		return nil, mapError("list keyword names", err)
	}
	return names, nil
}

// DeleteKeyword removes a catalog entry.
func (s *Store) DeleteKeyword(ctx context.Context, id string) error {
	return s.execExpectOne(ctx, "delete keyword", `DELETE FROM keywords WHERE id = $1`, id)
}
