// Package testhelpers provides shared test utilities for curator packages.
package testhelpers

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
	"github.com/jcaisse/curated-content-portal-sub001/internal/moderation"
)

// Faults lets tests inject storage errors. A nil hook never fails.
type Faults struct {
	QueuePost    func(item *domain.ModerationItem) error
	UpdateRun    func(run *domain.CrawlRun) error
	UpdateStatus func(id string) error
	UpsertPost   func(post *domain.Post) error
}

// MemoryStore is an in-memory implementation of every curator store. It
// honours the same uniqueness and upsert rules as the Postgres schema:
// crawler names are unique, keyword names are unique case-insensitively,
// moderation items are unique per (crawler, urlHash) and posts per urlHash.
type MemoryStore struct {
	// Now stamps timestamps. Defaults to time.Now.
	Now    func() time.Time
	Faults Faults

	txMu sync.Mutex
	mu   sync.RWMutex
	data memoryData
	seq  int64
}

type memoryData struct {
	crawlers map[string]domain.Crawler
	keywords map[string]domain.Keyword
	runs     map[string]domain.CrawlRun
	items    map[string]domain.ModerationItem
	itemSeq  map[string]int64
	posts    map[string]domain.Post
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Now: time.Now,
		data: memoryData{
			crawlers: make(map[string]domain.Crawler),
			keywords: make(map[string]domain.Keyword),
			runs:     make(map[string]domain.CrawlRun),
			items:    make(map[string]domain.ModerationItem),
			itemSeq:  make(map[string]int64),
			posts:    make(map[string]domain.Post),
		},
	}
}

func (m *MemoryStore) now() time.Time {
	return m.Now().UTC()
}

// WithinTx runs fn against a transactional view of the store. When fn fails,
// the items and posts it wrote are restored; writes made outside the view in
// the meantime are kept. Transactions are serialized.
func (m *MemoryStore) WithinTx(_ context.Context, fn func(moderation.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	tx := &memoryTx{MemoryStore: m}
	if err := fn(tx); err != nil {
		m.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i](&m.data)
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

// memoryTx records an undo step for every successful write.
type memoryTx struct {
	*MemoryStore
	undo []func(d *memoryData)
}

func (tx *memoryTx) UpdateStatus(ctx context.Context, id string, d domain.Decision) (*domain.ModerationItem, error) {
	restore := tx.itemRestorer(id)
	out, err := tx.MemoryStore.UpdateStatus(ctx, id, d)
	if err == nil {
		tx.undo = append(tx.undo, restore)
	}
	return out, err
}

func (tx *memoryTx) AttachPost(ctx context.Context, itemID, postID string) (*domain.ModerationItem, error) {
	restore := tx.itemRestorer(itemID)
	out, err := tx.MemoryStore.AttachPost(ctx, itemID, postID)
	if err == nil {
		tx.undo = append(tx.undo, restore)
	}
	return out, err
}

func (tx *memoryTx) DeleteItem(ctx context.Context, id string) error {
	restore := tx.itemRestorer(id)
	err := tx.MemoryStore.DeleteItem(ctx, id)
	if err == nil {
		tx.undo = append(tx.undo, restore)
	}
	return err
}

func (tx *memoryTx) UpsertPost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	tx.mu.RLock()
	prior, existed := tx.data.posts[post.URLHash]
	tx.mu.RUnlock()

	out, err := tx.MemoryStore.UpsertPost(ctx, post)
	if err == nil {
		hash := post.URLHash
		tx.undo = append(tx.undo, func(d *memoryData) {
			if existed {
				d.posts[hash] = prior
				return
			}
			delete(d.posts, hash)
		})
	}
	return out, err
}

// itemRestorer captures the item's current state.
func (tx *memoryTx) itemRestorer(id string) func(d *memoryData) {
	tx.mu.RLock()
	prior, existed := tx.data.items[id]
	seq, hasSeq := tx.data.itemSeq[id]
	tx.mu.RUnlock()

	return func(d *memoryData) {
		if !existed {
			delete(d.items, id)
			delete(d.itemSeq, id)
			return
		}
		d.items[id] = prior
		if hasSeq {
			d.itemSeq[id] = seq
		}
	}
}

// Crawlers

// CreateCrawler stores c, assigning ids where missing.
func (m *MemoryStore) CreateCrawler(_ context.Context, c *domain.Crawler) (*domain.Crawler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.data.crawlers {
		if existing.Name == c.Name {
			return nil, domain.ErrConflict
		}
	}

	stored := cloneCrawler(*c)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := m.now()
	stored.CreatedAt, stored.UpdatedAt = now, now
	assignSourceIDs(&stored)
	m.data.crawlers[stored.ID] = stored

	out := cloneCrawler(stored)
	return &out, nil
}

// GetCrawler returns the crawler with its keywords and sources.
func (m *MemoryStore) GetCrawler(_ context.Context, id string) (*domain.Crawler, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.data.crawlers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneCrawler(c)
	return &out, nil
}

// ListCrawlers returns all crawlers ordered by name.
func (m *MemoryStore) ListCrawlers(_ context.Context) ([]domain.Crawler, error) {
	return m.listCrawlers(func(domain.Crawler) bool { return true }), nil
}

// ListActiveCrawlers returns active crawlers ordered by name.
func (m *MemoryStore) ListActiveCrawlers(_ context.Context) ([]domain.Crawler, error) {
	return m.listCrawlers(func(c domain.Crawler) bool { return c.IsActive }), nil
}

func (m *MemoryStore) listCrawlers(keep func(domain.Crawler) bool) []domain.Crawler {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Crawler, 0, len(m.data.crawlers))
	for _, c := range m.data.crawlers {
		if keep(c) {
			out = append(out, cloneCrawler(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UpdateCrawler replaces the crawler's fields, keywords and sources.
func (m *MemoryStore) UpdateCrawler(_ context.Context, c *domain.Crawler) (*domain.Crawler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.data.crawlers[c.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for id, other := range m.data.crawlers {
		if id != c.ID && other.Name == c.Name {
			return nil, domain.ErrConflict
		}
	}

	stored := cloneCrawler(*c)
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = m.now()
	assignSourceIDs(&stored)
	m.data.crawlers[c.ID] = stored

	out := cloneCrawler(stored)
	return &out, nil
}

// DeleteCrawler removes the crawler and cascades to its runs and items.
func (m *MemoryStore) DeleteCrawler(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data.crawlers[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.data.crawlers, id)
	maps.DeleteFunc(m.data.runs, func(_ string, r domain.CrawlRun) bool { return r.CrawlerID == id })
	maps.DeleteFunc(m.data.items, func(_ string, it domain.ModerationItem) bool { return it.CrawlerID == id })
	return nil
}

// Keywords

// CreateKeyword stores k. Names are unique case-insensitively.
func (m *MemoryStore) CreateKeyword(_ context.Context, k *domain.Keyword) (*domain.Keyword, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.data.keywords {
		if strings.EqualFold(existing.Name, k.Name) {
			return nil, domain.ErrConflict
		}
	}
	stored := *k
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = m.now()
	m.data.keywords[stored.ID] = stored
	return &stored, nil
}

// ListKeywords returns the catalog ordered by name.
func (m *MemoryStore) ListKeywords(_ context.Context) ([]domain.Keyword, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slices.Collect(maps.Values(m.data.keywords))
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListKeywordNames returns catalog names ordered by name.
func (m *MemoryStore) ListKeywordNames(ctx context.Context) ([]string, error) {
	keywords, _ := m.ListKeywords(ctx)
	names := make([]string, len(keywords))
	for i := range keywords {
		names[i] = keywords[i].Name
	}
	return names, nil
}

// DeleteKeyword removes a catalog entry.
func (m *MemoryStore) DeleteKeyword(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data.keywords[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.data.keywords, id)
	return nil
}

// Runs

// CreateRun stores a new run.
func (m *MemoryStore) CreateRun(_ context.Context, run *domain.CrawlRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data.crawlers[run.CrawlerID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := m.data.runs[run.ID]; ok {
		return domain.ErrConflict
	}
	m.data.runs[run.ID] = cloneRun(*run)
	return nil
}

// UpdateRun overwrites a run that has not yet reached a terminal status.
func (m *MemoryStore) UpdateRun(_ context.Context, run *domain.CrawlRun) error {
	if f := m.Faults.UpdateRun; f != nil {
		if err := f(run); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.data.runs[run.ID]
	if !ok || existing.Status.IsTerminal() {
		return domain.ErrNotFound
	}
	m.data.runs[run.ID] = cloneRun(*run)
	return nil
}

// GetRun returns a stored run.
func (m *MemoryStore) GetRun(_ context.Context, id string) (*domain.CrawlRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.data.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneRun(r)
	return &out, nil
}

// ListRuns returns the crawler's runs newest first, at most limit when limit > 0.
func (m *MemoryStore) ListRuns(_ context.Context, crawlerID string, limit int) ([]domain.CrawlRun, error) {
	runs := m.runsFor(crawlerID, func(domain.CrawlRun) bool { return true })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// ListRunsSince returns runs started at or after since, newest first.
func (m *MemoryStore) ListRunsSince(_ context.Context, crawlerID string, since time.Time) ([]domain.CrawlRun, error) {
	return m.runsFor(crawlerID, func(r domain.CrawlRun) bool {
		return r.StartedAt != nil && !r.StartedAt.Before(since)
	}), nil
}

func (m *MemoryStore) runsFor(crawlerID string, keep func(domain.CrawlRun) bool) []domain.CrawlRun {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.CrawlRun, 0)
	for _, r := range m.data.runs {
		if r.CrawlerID == crawlerID && keep(r) {
			out = append(out, cloneRun(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Moderation

// QueuePost upserts by (crawlerId, urlHash). On conflict the content is
// overwritten, status reset to PENDING and decision fields cleared.
func (m *MemoryStore) QueuePost(_ context.Context, item *domain.ModerationItem) (*domain.ModerationItem, error) {
	if err := item.ValidateForQueue(); err != nil {
		return nil, err
	}
	if f := m.Faults.QueuePost; f != nil {
		if err := f(item); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data.crawlers[item.CrawlerID]; !ok {
		return nil, domain.ErrNotFound
	}

	now := m.now()
	stored := cloneItem(*item)
	stored.Status = domain.ModerationStatusPending
	stored.DecidedBy, stored.DecidedAt, stored.RejectionReason = nil, nil, nil
	stored.DiscoveredAt, stored.UpdatedAt = now, now

	for id, existing := range m.data.items {
		if existing.CrawlerID == item.CrawlerID && existing.URLHash == item.URLHash {
			stored.ID = id
			if stored.Metadata.PostID == "" {
				stored.Metadata.PostID = existing.Metadata.PostID
			}
			break
		}
	}
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	m.seq++
	m.data.items[stored.ID] = stored
	m.data.itemSeq[stored.ID] = m.seq

	out := cloneItem(stored)
	return &out, nil
}

// GetItem returns a moderation item.
func (m *MemoryStore) GetItem(_ context.Context, id string) (*domain.ModerationItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.data.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneItem(it)
	return &out, nil
}

// UpdateStatus applies d and stamps decidedAt.
func (m *MemoryStore) UpdateStatus(_ context.Context, id string, d domain.Decision) (*domain.ModerationItem, error) {
	if f := m.Faults.UpdateStatus; f != nil {
		if err := f(id); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.data.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	now := m.now()
	by := d.DecidedBy
	it.Status = d.Status
	it.DecidedBy = &by
	it.DecidedAt = &now
	it.RejectionReason = d.RejectionReason
	it.UpdatedAt = now
	m.data.items[id] = it

	out := cloneItem(it)
	return &out, nil
}

// AttachPost records postID in the item's metadata.
func (m *MemoryStore) AttachPost(_ context.Context, itemID, postID string) (*domain.ModerationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.data.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	it.Metadata.PostID = postID
	m.data.items[itemID] = it

	out := cloneItem(it)
	return &out, nil
}

// ListQueue returns the crawler's items with status, most recently discovered first.
func (m *MemoryStore) ListQueue(_ context.Context, crawlerID string, status domain.ModerationStatus) ([]domain.ModerationItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.ModerationItem, 0)
	for _, it := range m.data.items {
		if it.CrawlerID == crawlerID && it.Status == status {
			out = append(out, cloneItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DiscoveredAt.Equal(out[j].DiscoveredAt) {
			return out[i].DiscoveredAt.After(out[j].DiscoveredAt)
		}
		return m.data.itemSeq[out[i].ID] > m.data.itemSeq[out[j].ID]
	})
	return out, nil
}

// DeleteItem hard-deletes a moderation item.
func (m *MemoryStore) DeleteItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.data.items, id)
	delete(m.data.itemSeq, id)
	return nil
}

// Posts

// UpsertPost creates or updates the post keyed by urlHash. An existing
// post keeps its id and createdAt.
func (m *MemoryStore) UpsertPost(_ context.Context, post *domain.Post) (*domain.Post, error) {
	if f := m.Faults.UpsertPost; f != nil {
		if err := f(post); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *post
	stored.Tags = slices.Clone(post.Tags)
	if existing, ok := m.data.posts[post.URLHash]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	}
	stored.UpdatedAt = m.now()
	m.data.posts[post.URLHash] = stored

	out := stored
	return &out, nil
}

// GetPostByURLHash returns the post for urlHash.
func (m *MemoryStore) GetPostByURLHash(_ context.Context, urlHash string) (*domain.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.data.posts[urlHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// PostCount reports how many posts exist.
func (m *MemoryStore) PostCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data.posts)
}

// ItemCount reports how many moderation items exist.
func (m *MemoryStore) ItemCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data.items)
}

func assignSourceIDs(c *domain.Crawler) {
	for i := range c.Sources {
		if c.Sources[i].ID == "" {
			c.Sources[i].ID = uuid.NewString()
		}
		c.Sources[i].CrawlerID = c.ID
	}
}

func cloneCrawler(c domain.Crawler) domain.Crawler {
	c.Keywords = slices.Clone(c.Keywords)
	c.Sources = slices.Clone(c.Sources)
	return c
}

func cloneRun(r domain.CrawlRun) domain.CrawlRun {
	r.Keywords = slices.Clone(r.Keywords)
	return r
}

func cloneItem(it domain.ModerationItem) domain.ModerationItem {
	it.MatchedKeywords = slices.Clone(it.MatchedKeywords)
	return it
}
