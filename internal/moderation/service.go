// Package moderation implements the approve, reject and archive workflows
// over queued items, including promotion of approved items into posts.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
	"github.com/jcaisse/curated-content-portal-sub001/internal/events"
)

// DefaultChunkSize bounds how many items one transaction touches.
const DefaultChunkSize = 100

// Result is one item a workflow changed. Post is set for approvals.
type Result struct {
	Item domain.ModerationItem `json:"item"`
	Post *domain.Post          `json:"post,omitempty"`
}

// Service runs moderation workflows. Every operation re-reads current state
// before mutating it; nothing is cached between calls.
type Service struct {
	store     Store
	tx        Transactor
	publisher EventPublisher
	recorder  Recorder
	log       logger.Logger
	tracer    trace.Tracer
	chunkSize int
	now       func() time.Time
	newID     func() string
}

// Option configures a Service.
type Option func(*Service)

// WithChunkSize sets the number of items committed per transaction.
func WithChunkSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithPublisher emits post.published events for approvals.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRecorder counts decisions.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a Service. tx may be the same value as store.
func NewService(store Store, tx Transactor, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		tx:        tx,
		log:       log,
		tracer:    otel.Tracer("curator/moderation"),
		chunkSize: DefaultChunkSize,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Approve publishes each existing item as a post keyed by its global URL
// hash, marks the item APPROVED and records the post id in its metadata.
// Missing ids are skipped.
func (s *Service) Approve(ctx context.Context, itemIDs []string, moderatorID string) ([]Result, error) {
	return s.apply(ctx, "", itemIDs, domain.Decision{Status: domain.ModerationStatusApproved, DecidedBy: moderatorID})
}

// Reject marks each existing item REJECTED with an optional reason.
func (s *Service) Reject(ctx context.Context, itemIDs []string, moderatorID string, reason *string) ([]Result, error) {
	return s.apply(ctx, "", itemIDs, domain.Decision{
		Status:          domain.ModerationStatusRejected,
		DecidedBy:       moderatorID,
		RejectionReason: reason,
	})
}

// Archive marks each existing item ARCHIVED.
func (s *Service) Archive(ctx context.Context, itemIDs []string, moderatorID string) ([]Result, error) {
	return s.apply(ctx, "", itemIDs, domain.Decision{Status: domain.ModerationStatusArchived, DecidedBy: moderatorID})
}

// ApplyBatch runs the workflow for status over itemIDs, skipping ids that are
// missing or belong to another crawler.
func (s *Service) ApplyBatch(
	ctx context.Context,
	crawlerID string,
	itemIDs []string,
	status domain.ModerationStatus,
	moderatorID string,
	reason *string,
) ([]Result, error) {
	if crawlerID == "" {
		return nil, domain.NewValidationError("crawlerId", "is required")
	}
	return s.apply(ctx, crawlerID, itemIDs, decisionFor(status, moderatorID, reason))
}

// Decide applies one decision to one item of crawlerID. Unlike the batch
// workflows it reports domain.ErrNotFound when the item does not exist.
func (s *Service) Decide(
	ctx context.Context,
	crawlerID, itemID string,
	status domain.ModerationStatus,
	moderatorID string,
	reason *string,
) (*Result, error) {
	results, err := s.ApplyBatch(ctx, crawlerID, []string{itemID}, status, moderatorID, reason)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.ErrNotFound
	}
	return &results[0], nil
}

// Queue lists a crawler's items in status, most recently discovered first.
func (s *Service) Queue(ctx context.Context, crawlerID string, status domain.ModerationStatus) ([]domain.ModerationItem, error) {
	if status == "" {
		status = domain.ModerationStatusPending
	}
	items, err := s.store.ListQueue(ctx, crawlerID, status)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return items, nil
}

// Delete hard-deletes an item of crawlerID regardless of its status.
func (s *Service) Delete(ctx context.Context, crawlerID, itemID string) error {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.CrawlerID != crawlerID {
		return domain.ErrNotFound
	}
	if err = s.store.DeleteItem(ctx, itemID); err != nil {
		return err
	}

	s.log.Info("Moderation item deleted", logger.CrawlerID(crawlerID), logger.ItemID(itemID))
	return nil
}

func decisionFor(status domain.ModerationStatus, moderatorID string, reason *string) domain.Decision {
	d := domain.Decision{Status: status, DecidedBy: moderatorID}
	if status == domain.ModerationStatusRejected {
		d.RejectionReason = reason
	}
	return d
}

func (s *Service) apply(ctx context.Context, crawlerID string, itemIDs []string, d domain.Decision) ([]Result, error) {
	if d.DecidedBy == "" {
		return nil, domain.NewValidationError("moderatorId", "is required")
	}
	switch d.Status {
	case domain.ModerationStatusApproved, domain.ModerationStatusRejected, domain.ModerationStatusArchived:
	default:
		return nil, domain.NewValidationError("status", "must be one of APPROVED, REJECTED, ARCHIVED")
	}

	ctx, span := s.tracer.Start(ctx, "moderation.apply", trace.WithAttributes(
		attribute.String("status", string(d.Status)),
		attribute.Int("items", len(itemIDs)),
	))
	defer span.End()

	ids := dedupe(itemIDs)
	results := make([]Result, 0, len(ids))

	for start := 0; start < len(ids); start += s.chunkSize {
		chunk := ids[start:min(start+s.chunkSize, len(ids))]

		var committed []Result
		err := s.tx.WithinTx(ctx, func(st Store) error {
			committed = committed[:0]
			for _, id := range chunk {
				res, err := s.applyOne(ctx, st, crawlerID, id, d)
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				if err != nil {
					return fmt.Errorf("item %s: %w", id, err)
				}
				committed = append(committed, *res)
			}
			return nil
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.log.Error("Moderation chunk failed",
				logger.String("status", string(d.Status)),
				logger.Int("chunk_start", start),
				logger.Int("committed", len(results)),
				logger.Error(err),
			)
			return results, fmt.Errorf("%s items: %w", d.Status, err)
		}

		results = append(results, committed...)
		s.afterCommit(committed, d.Status)
	}

	s.log.Info("Moderation decision applied",
		logger.String("status", string(d.Status)),
		logger.String("moderator", d.DecidedBy),
		logger.Int("requested", len(ids)),
		logger.Int("applied", len(results)),
	)
	return results, nil
}

func (s *Service) applyOne(ctx context.Context, st Store, crawlerID, id string, d domain.Decision) (*Result, error) {
	item, err := st.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if crawlerID != "" && item.CrawlerID != crawlerID {
		return nil, domain.ErrNotFound
	}

	var post *domain.Post
	if d.Status == domain.ModerationStatusApproved {
		post, err = st.UpsertPost(ctx, domain.NewPublishedPost(s.newID(), item, s.now().UTC()))
		if err != nil {
			return nil, fmt.Errorf("upsert post: %w", err)
		}
	}

	updated, err := st.UpdateStatus(ctx, id, d)
	if err != nil {
		return nil, err
	}

	if post != nil {
		updated, err = st.AttachPost(ctx, id, post.ID)
		if err != nil {
			return nil, fmt.Errorf("attach post: %w", err)
		}
	}

	return &Result{Item: *updated, Post: post}, nil
}

func (s *Service) afterCommit(results []Result, status domain.ModerationStatus) {
	for i := range results {
		if s.recorder != nil {
			s.recorder.RecordDecision(status)
		}
		if post := results[i].Post; post != nil && s.publisher != nil {
			s.publisher.PublishAsync(events.PostPublished(post, results[i].Item.ID))
		}
	}
}

// dedupe rewrites ids in canonical UUID form and drops repeats and ids that
// do not parse; only canonical ids reach a chunk's transaction.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		id := parsed.String()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
