package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

const postColumns = `id, url_hash, url, crawler_id, title, summary, content,
	image_url, author, source, language, tags, status, published_at, created_at, updated_at`

type postRow struct {
	domain.Post
	Tags pq.StringArray `db:"tags"`
}

func (r postRow) toDomain() *domain.Post {
	post := r.Post
	post.Tags = []string(r.Tags)
	if post.Tags == nil {
		post.Tags = []string{}
	}
	return &post
}

// UpsertPost creates the post for post.URLHash or updates the existing one,
// which keeps its id and created_at.
func (s *Store) UpsertPost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	query := `
		INSERT INTO posts (
			id, url_hash, url, crawler_id, title, summary, content,
			image_url, author, source, language, tags, status, published_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		ON CONFLICT (url_hash) DO UPDATE SET
			url = EXCLUDED.url,
			crawler_id = EXCLUDED.crawler_id,
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			content = EXCLUDED.content,
			image_url = EXCLUDED.image_url,
			author = EXCLUDED.author,
			source = EXCLUDED.source,
			language = EXCLUDED.language,
			tags = EXCLUDED.tags,
			status = EXCLUDED.status,
			published_at = EXCLUDED.published_at,
			updated_at = NOW()
		RETURNING ` + postColumns

	var row postRow
	err := s.q.QueryRowxContext(ctx, query,
		post.ID, post.URLHash, post.URL, post.CrawlerID, post.Title, post.Summary, post.Content,
		post.ImageURL, post.Author, post.Source, post.Language, stringArray(post.Tags), post.Status, post.PublishedAt,
	).StructScan(&row)
	if err != nil {
		return nil, mapError("upsert post", err)
	}
	return row.toDomain(), nil
}

// GetPostByURLHash returns the post published for urlHash.
func (s *Store) GetPostByURLHash(ctx context.Context, urlHash string) (*domain.Post, error) {
	var row postRow
	query := `SELECT ` + postColumns + ` FROM posts WHERE url_hash = $1`
	if err := sqlx.GetContext(ctx, s.q, &row, query, urlHash); err != nil {
		return nil, mapError("get post", err)
	}
	return row.toDomain(), nil
}
