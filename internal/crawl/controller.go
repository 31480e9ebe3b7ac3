// Package crawl runs crawlers: it discovers documents from a crawler's
// sources, scores them against the crawler's keywords and queues relevant
// ones for moderation, tracking each execution as a CrawlRun.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
	"github.com/jcaisse/curated-content-portal-sub001/internal/events"
	"github.com/jcaisse/curated-content-portal-sub001/internal/metrics"
	"github.com/jcaisse/curated-content-portal-sub001/internal/scoring"
	"github.com/jcaisse/curated-content-portal-sub001/internal/urlhash"
)

// ErrRunFailed wraps the reason a run ended FAILED.
var ErrRunFailed = errors.New("crawl run failed")

const (
	reasonCancelled      = "cancelled"
	reasonAllSourcesDown = "all sources failed discovery"
)

// CrawlerStore reads crawler configuration.
type CrawlerStore interface {
	GetCrawler(ctx context.Context, id string) (*domain.Crawler, error)
	// ListKeywordNames returns the global keyword catalog.
	ListKeywordNames(ctx context.Context) ([]string, error)
}

// RunStore persists run lifecycle.
type RunStore interface {
	CreateRun(ctx context.Context, run *domain.CrawlRun) error
	// UpdateRun writes status, timestamps, counters and error of a non-terminal run.
	UpdateRun(ctx context.Context, run *domain.CrawlRun) error
}

// Queue upserts items by (crawlerId, urlHash), resetting them to PENDING.
type Queue interface {
	QueuePost(ctx context.Context, item *domain.ModerationItem) (*domain.ModerationItem, error)
}

// Store is everything the Controller persists through.
type Store interface {
	CrawlerStore
	RunStore
	Queue
}

// Recorder receives run and item metrics.
type Recorder interface {
	RecordItem(outcome string)
	RecordRun(run *domain.CrawlRun)
	RunStarted() (done func())
}

// EventPublisher receives crawl_run.finished events.
type EventPublisher interface {
	PublishAsync(event events.Event)
}

// Controller executes crawl runs.
type Controller struct {
	store             Store
	discoverer        Discoverer
	scorer            *scoring.Scorer
	recorder          Recorder
	publisher         EventPublisher
	log               logger.Logger
	tracer            trace.Tracer
	maxItemsPerSource int
	now               func() time.Time
	newID             func() string
}

// Option configures a Controller.
type Option func(*Controller)

// WithScorer replaces the default scorer.
func WithScorer(s *scoring.Scorer) Option {
	return func(c *Controller) { c.scorer = s }
}

// WithRecorder records metrics for runs and items.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithPublisher emits crawl_run.finished events.
func WithPublisher(p EventPublisher) Option {
	return func(c *Controller) { c.publisher = p }
}

// WithMaxItemsPerSource caps documents read from one source. Zero means no cap.
func WithMaxItemsPerSource(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.maxItemsPerSource = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController returns a Controller.
func NewController(store Store, discoverer Discoverer, log logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		store:      store,
		discoverer: discoverer,
		scorer:     scoring.New(),
		log:        log,
		tracer:     otel.Tracer("curator/crawl"),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// runState accumulates a run's progress.
type runState struct {
	crawler      *domain.Crawler
	run          *domain.CrawlRun
	log          logger.Logger
	sourcesOK    int
	sourcesTried int
}

// Run executes one crawl of crawlerID and returns the finished run.
//
// The crawler must exist and be active; otherwise domain.ErrNotFound or
// domain.ErrCrawlerInactive is returned and no run is recorded. Once the
// run exists it always reaches a terminal status. When that status is
// FAILED the run is returned together with an error wrapping ErrRunFailed.
// Cancelling ctx stops the run between items.
func (c *Controller) Run(ctx context.Context, crawlerID string) (*domain.CrawlRun, error) {
	crawler, err := c.store.GetCrawler(ctx, crawlerID)
	if err != nil {
		return nil, fmt.Errorf("get crawler: %w", err)
	}
	if !crawler.IsActive {
		return nil, domain.ErrCrawlerInactive
	}

	keywords, err := c.keywordsFor(ctx, crawler)
	if err != nil {
		return nil, err
	}

	run := domain.NewCrawlRun(c.newID(), crawler.ID, keywords, c.now().UTC())
	if err := c.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	ctx, span := c.tracer.Start(ctx, "crawl.run", trace.WithAttributes(
		attribute.String("crawler.id", crawler.ID),
		attribute.String("run.id", run.ID),
	))
	defer span.End()

	st := &runState{
		crawler: crawler,
		run:     run,
		log:     c.log.With(logger.CrawlerID(crawler.ID), logger.RunID(run.ID)),
	}

	if c.recorder != nil {
		done := c.recorder.RunStarted()
		defer done()
	}

	if err := c.execute(ctx, st); err != nil {
		c.fail(ctx, st, err.Error())
	}

	c.finish(st)

	if run.Status == domain.RunStatusFailed {
		reason := ""
		if run.ErrorMessage != nil {
			reason = *run.ErrorMessage
		}
		span.SetStatus(codes.Error, reason)
		return run, fmt.Errorf("%w: %s", ErrRunFailed, reason)
	}
	return run, nil
}

// keywordsFor returns the crawler's keywords, or the global catalog when it has none.
func (c *Controller) keywordsFor(ctx context.Context, crawler *domain.Crawler) ([]string, error) {
	if len(crawler.Keywords) > 0 {
		return crawler.Keywords, nil
	}
	names, err := c.store.ListKeywordNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	return names, nil
}

// execute drives the run from PENDING to a terminal status. A returned error
// means the run must be failed with that message.
func (c *Controller) execute(ctx context.Context, st *runState) error {
	run := st.run
	if err := run.Start(c.now().UTC()); err != nil {
		return err
	}
	if err := c.store.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}

	st.log.Info("Crawl run started",
		logger.Int("sources", len(st.crawler.EnabledSources())),
		logger.Strings("keywords", run.Keywords),
	)

	for _, source := range st.crawler.EnabledSources() {
		if ctx.Err() != nil {
			break
		}
		c.crawlSource(ctx, st, source)

		if err := c.store.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
			return fmt.Errorf("record progress: %w", err)
		}
	}

	// The terminal status is staged on a copy and adopted only once stored,
	// so a failed write leaves the run RUNNING for fail to record.
	final := *run
	now := c.now().UTC()
	switch {
	case ctx.Err() != nil:
		if err := final.Fail(now, reasonCancelled); err != nil {
			return err
		}
	case st.sourcesTried > 0 && st.sourcesOK == 0:
		if err := final.Fail(now, reasonAllSourcesDown); err != nil {
			return err
		}
	default:
		if err := final.Complete(now); err != nil {
			return err
		}
	}

	if err := c.store.UpdateRun(context.WithoutCancel(ctx), &final); err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	*run = final
	return nil
}

// crawlSource discovers and processes one source. Discovery errors are
// logged and leave the source uncounted as successful.
func (c *Controller) crawlSource(ctx context.Context, st *runState, source domain.Source) {
	ctx, span := c.tracer.Start(ctx, "crawl.source", trace.WithAttributes(
		attribute.String("source.url", source.URL),
		attribute.String("source.type", string(source.Type)),
	))
	defer span.End()

	st.sourcesTried++
	log := st.log.With(logger.String("source_url", source.URL))

	docs, err := c.discoverer.Discover(ctx, source)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("Source discovery failed", logger.Error(err))
		return
	}
	st.sourcesOK++

	if c.maxItemsPerSource > 0 && len(docs) > c.maxItemsPerSource {
		docs = docs[:c.maxItemsPerSource]
	}

	queued := 0
	for i := range docs {
		if ctx.Err() != nil {
			return
		}
		st.run.ItemsProcessed++
		outcome := c.processItem(ctx, st, &docs[i], log)
		if outcome == metrics.OutcomeQueued {
			st.run.ItemsQueued++
			queued++
		}
		if c.recorder != nil {
			c.recorder.RecordItem(outcome)
		}
	}

	span.SetAttributes(attribute.Int("items.discovered", len(docs)), attribute.Int("items.queued", queued))
	log.Debug("Source crawled",
		logger.Int("discovered", len(docs)),
		logger.Int("queued", queued),
	)
}

// processItem scores one document and queues it when it clears the
// crawler's threshold. Failures are isolated to the item.
func (c *Controller) processItem(ctx context.Context, st *runState, doc *domain.Document, log logger.Logger) string {
	hash, err := urlhash.Hash(doc.URL)
	if err != nil {
		log.Warn("Skipping document with invalid URL", logger.String("url", doc.URL), logger.Error(err))
		return metrics.OutcomeFailed
	}

	result := c.scorer.Evaluate(doc.Title, doc.Summary, doc.Content, st.run.Keywords)
	if result.Score < st.crawler.MinMatchScore {
		return metrics.OutcomeDiscarded
	}

	item := newModerationItem(c.newID(), st.run, doc, hash, result)
	if _, err := c.store.QueuePost(ctx, item); err != nil {
		log.Error("Failed to queue item",
			logger.String("url", doc.URL),
			logger.Float64("score", result.Score),
			logger.Error(err),
		)
		return metrics.OutcomeFailed
	}
	return metrics.OutcomeQueued
}

// fail ends the run FAILED, unless it already reached a terminal status.
func (c *Controller) fail(ctx context.Context, st *runState, reason string) {
	if st.run.Status.IsTerminal() {
		return
	}
	if err := st.run.Fail(c.now().UTC(), reason); err != nil {
		st.log.Error("Failed to mark run failed", logger.Error(err))
		return
	}
	if err := c.store.UpdateRun(context.WithoutCancel(ctx), st.run); err != nil {
		st.log.Error("Failed to persist failed run", logger.Error(err))
	}
}

func (c *Controller) finish(st *runState) {
	run := st.run
	fields := []logger.Field{
		logger.String("status", string(run.Status)),
		logger.Int("items_processed", run.ItemsProcessed),
		logger.Int("items_queued", run.ItemsQueued),
		logger.Int("sources_failed", st.sourcesTried-st.sourcesOK),
	}
	if d, ok := run.Duration(); ok {
		fields = append(fields, logger.Duration("duration", d))
	}
	if run.Status == domain.RunStatusFailed {
		if run.ErrorMessage != nil {
			fields = append(fields, logger.String("reason", *run.ErrorMessage))
		}
		st.log.Warn("Crawl run failed", fields...)
	} else {
		st.log.Info("Crawl run completed", fields...)
	}

	if c.recorder != nil {
		c.recorder.RecordRun(run)
	}
	if c.publisher != nil {
		c.publisher.PublishAsync(events.RunFinished(run))
	}
}

func newModerationItem(id string, run *domain.CrawlRun, doc *domain.Document, hash string, result scoring.Result) *domain.ModerationItem {
	title := strings.TrimSpace(doc.Title)
	if title == "" {
		title = doc.URL
	}

	matched := result.Matched
	if matched == nil {
		matched = []string{}
	}

	runID := run.ID
	return &domain.ModerationItem{
		ID:              id,
		CrawlerID:       run.CrawlerID,
		RunID:           &runID,
		URL:             doc.URL,
		URLHash:         hash,
		Title:           title,
		Summary:         doc.Summary,
		Content:         doc.Content,
		ImageURL:        optional(doc.ImageURL),
		Author:          optional(doc.Author),
		Source:          optional(doc.Source),
		Language:        optional(doc.Language),
		Score:           result.Score,
		MatchedKeywords: matched,
		Status:          domain.ModerationStatusPending,
		Metadata: domain.ItemMetadata{
			FeedGUID:          doc.GUID,
			SourcePublishedAt: doc.PublishedAt,
		},
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
