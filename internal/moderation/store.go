package moderation

import (
	"context"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
	"github.com/jcaisse/curated-content-portal-sub001/internal/events"
)

// Store is the moderation and post persistence the service needs. The same
// interface is handed to WithinTx callbacks, bound to the transaction.
type Store interface {
	GetItem(ctx context.Context, id string) (*domain.ModerationItem, error)
	// UpdateStatus applies d and stamps decidedAt. Returns domain.ErrNotFound for unknown ids.
	UpdateStatus(ctx context.Context, id string, d domain.Decision) (*domain.ModerationItem, error)
	// AttachPost records postID in the item's metadata.
	AttachPost(ctx context.Context, itemID, postID string) (*domain.ModerationItem, error)
	// UpsertPost creates or updates the post keyed by post.URLHash and returns the stored row.
	UpsertPost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	ListQueue(ctx context.Context, crawlerID string, status domain.ModerationStatus) ([]domain.ModerationItem, error)
	DeleteItem(ctx context.Context, id string) error
}

// Transactor runs fn inside one transaction, committing when fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(Store) error) error
}

// EventPublisher receives post.published events after commit.
type EventPublisher interface {
	PublishAsync(event events.Event)
}

// Recorder counts decisions.
type Recorder interface {
	RecordDecision(status domain.ModerationStatus)
}
