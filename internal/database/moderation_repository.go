package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

const itemColumns = `id, crawler_id, run_id, url, url_hash, title, summary, content,
	image_url, author, source, language, score, matched_keywords, status,
	decided_by, decided_at, rejection_reason, metadata, discovered_at, updated_at`

type itemRow struct {
	domain.ModerationItem
	MatchedKeywords pq.StringArray `db:"matched_keywords"`
}

func (r itemRow) toDomain() *domain.ModerationItem {
	item := r.ModerationItem
	item.MatchedKeywords = []string(r.MatchedKeywords)
	if item.MatchedKeywords == nil {
		item.MatchedKeywords = []string{}
	}
	return &item
}

// QueuePost upserts item by (crawler_id, url_hash). On conflict the content,
// score, matched keywords and run are overwritten, the status returns to
// PENDING and the decision fields are cleared. Existing metadata keys not
// present in item.Metadata, such as postId, are kept.
func (s *Store) QueuePost(ctx context.Context, item *domain.ModerationItem) (*domain.ModerationItem, error) {
	if err := item.ValidateForQueue(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO moderation_items (
			id, crawler_id, run_id, url, url_hash, title, summary, content,
			image_url, author, source, language, score, matched_keywords,
			status, metadata, discovered_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			'PENDING', $15, NOW(), NOW()
		)
		ON CONFLICT (crawler_id, url_hash) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			url = EXCLUDED.url,
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			content = EXCLUDED.content,
			image_url = EXCLUDED.image_url,
			author = EXCLUDED.author,
			source = EXCLUDED.source,
			language = EXCLUDED.language,
			score = EXCLUDED.score,
			matched_keywords = EXCLUDED.matched_keywords,
			status = 'PENDING',
			decided_by = NULL,
			decided_at = NULL,
			rejection_reason = NULL,
			metadata = moderation_items.metadata || EXCLUDED.metadata,
			discovered_at = NOW(),
			updated_at = NOW()
		RETURNING ` + itemColumns

	var row itemRow
	err := s.q.QueryRowxContext(ctx, query,
		item.ID, item.CrawlerID, item.RunID, item.URL, item.URLHash, item.Title, item.Summary, item.Content,
		item.ImageURL, item.Author, item.Source, item.Language, item.Score, stringArray(item.MatchedKeywords),
		item.Metadata,
	).StructScan(&row)
	if err != nil {
		return nil, mapError("queue post", err)
	}
	return row.toDomain(), nil
}

// GetItem returns a moderation item. Inside a transaction the row is locked
// until commit.
func (s *Store) GetItem(ctx context.Context, id string) (*domain.ModerationItem, error) {
	query := `SELECT ` + itemColumns + ` FROM moderation_items WHERE id = $1`
	if s.inTx {
		query += ` FOR UPDATE`
	}

	var row itemRow
	if err := sqlx.GetContext(ctx, s.q, &row, query, id); err != nil {
		return nil, mapError("get moderation item", err)
	}
	return row.toDomain(), nil
}

// UpdateStatus applies d and stamps decided_at.
func (s *Store) UpdateStatus(ctx context.Context, id string, d domain.Decision) (*domain.ModerationItem, error) {
	query := `
		UPDATE moderation_items
		SET status = $2, decided_by = $3, decided_at = NOW(), rejection_reason = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + itemColumns

	var row itemRow
	if err := s.q.QueryRowxContext(ctx, query, id, d.Status, d.DecidedBy, d.RejectionReason).StructScan(&row); err != nil {
		return nil, mapError("update moderation status", err)
	}
	return row.toDomain(), nil
}

// AttachPost records postID under metadata.postId.
func (s *Store) AttachPost(ctx context.Context, itemID, postID string) (*domain.ModerationItem, error) {
	query := `
		UPDATE moderation_items
		SET metadata = jsonb_set(metadata, '{postId}', to_jsonb($2::text)), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + itemColumns

	var row itemRow
	if err := s.q.QueryRowxContext(ctx, query, itemID, postID).StructScan(&row); err != nil {
		return nil, mapError("attach post", err)
	}
	return row.toDomain(), nil
}

// ListQueue returns the crawler's items in status, most recently discovered first.
func (s *Store) ListQueue(ctx context.Context, crawlerID string, status domain.ModerationStatus) ([]domain.ModerationItem, error) {
	rows := []itemRow{}
	query := `
		SELECT ` + itemColumns + ` FROM moderation_items
		WHERE crawler_id = $1 AND status = $2
		ORDER BY discovered_at DESC, id
	`
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, crawlerID, status); err != nil {
		return nil, mapError("list moderation queue", err)
	}

	items := make([]domain.ModerationItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].toDomain()
	}
	return items, nil
}

// DeleteItem hard-deletes a moderation item.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	return s.execExpectOne(ctx, "delete moderation item", `DELETE FROM moderation_items WHERE id = $1`, id)
}
