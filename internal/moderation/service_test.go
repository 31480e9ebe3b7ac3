package moderation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
	"github.com/jcaisse/curated-content-portal-sub001/internal/events"
	"github.com/jcaisse/curated-content-portal-sub001/internal/moderation"
	"github.com/jcaisse/curated-content-portal-sub001/internal/testhelpers"
	"github.com/jcaisse/curated-content-portal-sub001/internal/urlhash"
)

const moderator = "mod-1"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) PublishAsync(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

type fakeRecorder struct {
	decisions []domain.ModerationStatus
}

func (r *fakeRecorder) RecordDecision(s domain.ModerationStatus) {
	r.decisions = append(r.decisions, s)
}

func newService(t *testing.T, store *testhelpers.MemoryStore, opts ...moderation.Option) *moderation.Service {
	t.Helper()
	opts = append([]moderation.Option{moderation.WithClock(func() time.Time { return fixedNow })}, opts...)
	return moderation.NewService(store, store, testhelpers.NewTestLogger(), opts...)
}

func seedCrawler(t *testing.T, store *testhelpers.MemoryStore, name string) *domain.Crawler {
	t.Helper()
	c, err := store.CreateCrawler(context.Background(), &domain.Crawler{
		Name:          name,
		IsActive:      true,
		MinMatchScore: domain.DefaultMinMatchScore,
	})
	require.NoError(t, err)
	return c
}

func seedItem(t *testing.T, store *testhelpers.MemoryStore, crawlerID, rawURL string) *domain.ModerationItem {
	t.Helper()
	hash, err := urlhash.Hash(rawURL)
	require.NoError(t, err)

	item, err := store.QueuePost(context.Background(), &domain.ModerationItem{
		CrawlerID:       crawlerID,
		URL:             rawURL,
		URLHash:         hash,
		Title:           "Title for " + rawURL,
		Summary:         "summary",
		Content:         "content",
		Score:           0.9,
		MatchedKeywords: []string{"go"},
	})
	require.NoError(t, err)
	return item
}

func TestService_Approve_PublishesPost(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	svc := newService(t, store, moderation.WithPublisher(pub), moderation.WithRecorder(rec))

	c := seedCrawler(t, store, "golang")
	item := seedItem(t, store, c.ID, "https://example.com/a")

	results, err := svc.Approve(context.Background(), []string{item.ID}, moderator)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	require.NotNil(t, res.Post)
	assert.Equal(t, domain.PostStatusPublished, res.Post.Status)
	require.NotNil(t, res.Post.PublishedAt)
	assert.Equal(t, fixedNow, *res.Post.PublishedAt)
	assert.Equal(t, item.URLHash, res.Post.URLHash)
	assert.Equal(t, []string{"go"}, res.Post.Tags)

	assert.Equal(t, domain.ModerationStatusApproved, res.Item.Status)
	require.NotNil(t, res.Item.DecidedBy)
	assert.Equal(t, moderator, *res.Item.DecidedBy)
	assert.NotNil(t, res.Item.DecidedAt)
	assert.Equal(t, res.Post.ID, res.Item.Metadata.PostID)

	stored, err := store.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ModerationStatusApproved, stored.Status)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypePostPublished, pub.events[0].Type)
	assert.Equal(t, res.Post.ID, pub.events[0].Data["postId"])
	assert.Equal(t, []domain.ModerationStatus{domain.ModerationStatusApproved}, rec.decisions)
}

func TestService_Approve_Idempotent(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	svc := newService(t, store)

	c := seedCrawler(t, store, "golang")
	item := seedItem(t, store, c.ID, "https://example.com/a")

	first, err := svc.Approve(context.Background(), []string{item.ID}, moderator)
	require.NoError(t, err)
	second, err := svc.Approve(context.Background(), []string{item.ID}, moderator)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, 1, store.PostCount())
	assert.Equal(t, first[0].Post.ID, second[0].Post.ID)
}

func TestService_Approve_SameURLAcrossCrawlersConverges(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	svc := newService(t, store)

	a := seedCrawler(t, store, "a")
	b := seedCrawler(t, store, "b")
	itemA := seedItem(t, store, a.ID, "https://example.com/shared")
	itemB := seedItem(t, store, b.ID, "https://example.com/shared?utm_source=feed")

	results, err := svc.Approve(context.Background(), []string{itemA.ID, itemB.ID}, moderator)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, store.PostCount())
	assert.Equal(t, results[0].Post.ID, results[1].Post.ID)
}

func TestService_Approve_SkipsMissing(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	svc := newService(t, store)

	c := seedCrawler(t, store, "golang")
	item := seedItem(t, store, c.ID, "https://example.com/a")

	results, err := svc.Approve(context.Background(), []string{item.ID, "missing-id"}, moderator)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, item.ID, results[0].Item.ID)
}

func TestService_Approve_NormalizesIDs(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	svc := newService(t, store)

	c := seedCrawler(t, store, "golang")
	item := seedItem(t, store, c.ID, "https://example.com/a")

	ids := []string{"urn:uuid:" + item.ID, strings.ToUpper(item.ID), "{" + item.ID + "}"}
	results, err := svc.Approve(context.Background(), ids, moderator)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, item.ID, results[0].Item.ID)
	assert.Equal(t, domain.ModerationStatusApproved, results[0].Item.Status)
}

func TestService_Approve_DuplicateIDsAppliedOnce(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	svc := newService(t, store)

	c := seedCrawler(t, store, "golang")
	item := seedItem(t, store, c.ID, "https://example.com/a")

	results, err := svc.Approve(context.Background(), []string{item.ID, item.ID, ""}, moderator)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestService_RejectAndArchive(t *testing.T) {
	reason := "off topic"

	tests := []struct {
		name   string
		run    func(*moderation.Service, []string) ([]moderation.Result, error)
		status domain.ModerationStatus
		reason *string
	}{
		{
			name: "reject with reason",
			run: func(s *moderation.Service, ids []string) ([]moderation.Result, error) {
				return s.Reject(context.Background(), ids, moderator, &reason)
			},
			status: domain.ModerationStatusRejected,
			reason: &reason,
		},
		{
			name: "reject without reason",
			run: func(s *moderation.Service, ids []string) ([]moderation.Result, error) {
				return s.Reject(context.Background(), ids, moderator, nil)
			},
			status: domain.ModerationStatusRejected,
		},
		{
			name: "archive",
			run: func(s *moderation.Service, ids []string) ([]moderation.Result, error) {
				return s.Archive(context.Background(), ids, moderator)
			},
			status: domain.ModerationStatusArchived,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testhelpers.NewMemoryStore()
			svc := newService(t, store)
			c := seedCrawler(t, store, "golang")
			item := seedItem(t, store, c.ID, "https://example.com/a")

			results, err := tt.run(svc, []string{item.ID, "missing"})
			require.NoError(t, err)
			require.Len(t, results, 1)

			got := results[0]
			assert.Nil(t, got.Post)
			assert.Equal(t, tt.status, got.Item.Status)
			assert.Equal(t, tt.reason, got.Item.RejectionReason)
			assert.Empty(t, got.Item.Metadata.PostID)
			assert.Equal(t, 0, store.PostCount())
		})
	}
}

func TestService_RequeueAfterReject(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	svc := newService(t, store)
	c := seedCrawler(t, store, "golang")
	item := seedItem(t, store, c.ID, "https://example.com/a")

	reason := "stale"
	_, err := svc.Reject(context.Background(), []string{item.ID}, moderator, &reason)
	require.NoError(t, err)

	again := seedItem(t, store, c.ID, "https://example.com/a")
	assert.Equal(t, item.ID, again.ID)
	assert.Equal(t, domain.ModerationStatusPending, again.Status)
	assert.Nil(t, again.DecidedBy)
	assert.Nil(t, again.DecidedAt)
	assert.Nil(t, again.RejectionReason)
	assert.Equal(t, 1, store.ItemCount())

	queue, err := svc.Queue(context.Background(), c.ID, "")
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, item.ID, queue[0].ID)
}

func TestService_Validation(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	svc := newService(t, store)
	c := seedCrawler(t, store, "golang")
	item := seedItem(t, store, c.ID, "https://example.com/a")

	_, err := svc.Approve(context.Background(), []string{item.ID}, "")
	verr, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "moderatorId", verr.Field)

	_, err = svc.ApplyBatch(context.Background(), c.ID, []string{item.ID}, domain.ModerationStatusPending, moderator, nil)
	verr, ok = domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "status", verr.Field)

	_, err = svc.ApplyBatch(context.Background(), "", []string{item.ID}, domain.ModerationStatusApproved, moderator, nil)
	_, ok = domain.AsValidationError(err)
	assert.True(t, ok)

	stored, err := store.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ModerationStatusPending, stored.Status)
}

func TestService_ChunkFailureKeepsEarlierChunks(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	svc := newService(t, store, moderation.WithChunkSize(2))
	c := seedCrawler(t, store, "golang")

	ids := make([]string, 5)
	for i := range ids {
		ids[i] = seedItem(t, store, c.ID, fmt.Sprintf("https://example.com/%d", i)).ID
	}

	boom := errors.New("connection reset")
	store.Faults.UpdateStatus = func(id string) error {
		if id == ids[3] {
			return boom
		}
		return nil
	}

	results, err := svc.Approve(context.Background(), ids, moderator)
	require.ErrorIs(t, err, boom)
	assert.Len(t, results, 2)

	for i, id := range ids {
		item, getErr := store.GetItem(context.Background(), id)
		require.NoError(t, getErr)
		if i < 2 {
			assert.Equal(t, domain.ModerationStatusApproved, item.Status, "item %d", i)
		} else {
			assert.Equal(t, domain.ModerationStatusPending, item.Status, "item %d", i)
		}
	}
	// The post for ids[2] was rolled back with its chunk.
	assert.Equal(t, 2, store.PostCount())
}

func TestService_Decide(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	svc := newService(t, store)
	a := seedCrawler(t, store, "a")
	b := seedCrawler(t, store, "b")
	item := seedItem(t, store, a.ID, "https://example.com/a")

	_, err := svc.Decide(context.Background(), b.ID, item.ID, domain.ModerationStatusApproved, moderator, nil)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Decide(context.Background(), a.ID, "missing", domain.ModerationStatusApproved, moderator, nil)
	require.ErrorIs(t, err, domain.ErrNotFound)

	reason := "ignored for approvals"
	res, err := svc.Decide(context.Background(), a.ID, item.ID, domain.ModerationStatusApproved, moderator, &reason)
	require.NoError(t, err)
	assert.Equal(t, domain.ModerationStatusApproved, res.Item.Status)
	assert.Nil(t, res.Item.RejectionReason)
	assert.NotNil(t, res.Post)
}

func TestService_Queue(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	svc := newService(t, store)
	c := seedCrawler(t, store, "golang")
	other := seedCrawler(t, store, "other")

	older := seedItem(t, store, c.ID, "https://example.com/older")
	newer := seedItem(t, store, c.ID, "https://example.com/newer")
	seedItem(t, store, other.ID, "https://example.com/elsewhere")
	rejected := seedItem(t, store, c.ID, "https://example.com/rejected")
	_, err := svc.Reject(context.Background(), []string{rejected.ID}, moderator, nil)
	require.NoError(t, err)

	pending, err := svc.Queue(context.Background(), c.ID, domain.ModerationStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, newer.ID, pending[0].ID)
	assert.Equal(t, older.ID, pending[1].ID)

	rejectedQueue, err := svc.Queue(context.Background(), c.ID, domain.ModerationStatusRejected)
	require.NoError(t, err)
	require.Len(t, rejectedQueue, 1)
	assert.Equal(t, rejected.ID, rejectedQueue[0].ID)
}

func TestService_Delete(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	svc := newService(t, store)
	a := seedCrawler(t, store, "a")
	b := seedCrawler(t, store, "b")
	item := seedItem(t, store, a.ID, "https://example.com/a")

	require.ErrorIs(t, svc.Delete(context.Background(), b.ID, item.ID), domain.ErrNotFound)
	require.NoError(t, svc.Delete(context.Background(), a.ID, item.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), a.ID, item.ID), domain.ErrNotFound)
	assert.Equal(t, 0, store.ItemCount())
}
