package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
	"github.com/jcaisse/curated-content-portal-sub001/internal/stats"
)

// CrawlerStore is the crawler and run persistence the handlers use.
type CrawlerStore interface {
	CreateCrawler(ctx context.Context, c *domain.Crawler) (*domain.Crawler, error)
	GetCrawler(ctx context.Context, id string) (*domain.Crawler, error)
	ListCrawlers(ctx context.Context) ([]domain.Crawler, error)
	UpdateCrawler(ctx context.Context, c *domain.Crawler) (*domain.Crawler, error)
	DeleteCrawler(ctx context.Context, id string) error
	ListRuns(ctx context.Context, crawlerID string, limit int) ([]domain.CrawlRun, error)
	ListRunsSince(ctx context.Context, crawlerID string, since time.Time) ([]domain.CrawlRun, error)
}

// Triggerer starts a crawl run in the background.
type Triggerer interface {
	Trigger(ctx context.Context, crawlerID string) error
}

// CrawlersHandler handles crawler administration, runs and stats.
type CrawlersHandler struct {
	store           CrawlerStore
	runner          Triggerer
	log             logger.Logger
	defaultMinScore float64
	now             func() time.Time
}

// NewCrawlersHandler creates a crawlers handler. defaultMinScore applies to
// crawlers created without a threshold.
func NewCrawlersHandler(store CrawlerStore, runner Triggerer, log logger.Logger, defaultMinScore float64) *CrawlersHandler {
	return &CrawlersHandler{
		store:           store,
		runner:          runner,
		log:             log,
		defaultMinScore: defaultMinScore,
		now:             time.Now,
	}
}

// List handles GET /api/v1/crawlers
func (h *CrawlersHandler) List(c *gin.Context) {
	crawlers, err := h.store.ListCrawlers(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err, "crawler")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"crawlers": crawlers,
		"count":    len(crawlers),
	})
}

// Get handles GET /api/v1/crawlers/:id
func (h *CrawlersHandler) Get(c *gin.Context) {
	crawler, err := h.store.GetCrawler(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.log, err, "crawler")
		return
	}
	c.JSON(http.StatusOK, crawler)
}

// Create handles POST /api/v1/crawlers
func (h *CrawlersHandler) Create(c *gin.Context) {
	var req CrawlerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	crawler := domain.Crawler{IsActive: true, MinMatchScore: h.defaultMinScore}
	req.apply(&crawler)
	crawler.Normalize()
	if err := crawler.Validate(); err != nil {
		handleError(c, h.log, err, "crawler")
		return
	}

	created, err := h.store.CreateCrawler(c.Request.Context(), &crawler)
	if err != nil {
		handleError(c, h.log, err, "crawler")
		return
	}

	h.log.Info("Crawler created",
		logger.CrawlerID(created.ID),
		logger.String("name", created.Name),
	)
	c.JSON(http.StatusCreated, created)
}

// Update handles PUT /api/v1/crawlers/:id
func (h *CrawlersHandler) Update(c *gin.Context) {
	var req CrawlerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	crawler, err := h.store.GetCrawler(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.log, err, "crawler")
		return
	}

	req.apply(crawler)
	crawler.Normalize()
	if err = crawler.Validate(); err != nil {
		handleError(c, h.log, err, "crawler")
		return
	}

	updated, err := h.store.UpdateCrawler(c.Request.Context(), crawler)
	if err != nil {
		handleError(c, h.log, err, "crawler")
		return
	}

	h.log.Info("Crawler updated", logger.CrawlerID(updated.ID))
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/crawlers/:id
func (h *CrawlersHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteCrawler(c.Request.Context(), id); err != nil {
		handleError(c, h.log, err, "crawler")
		return
	}

	h.log.Info("Crawler deleted", logger.CrawlerID(id))
	c.Status(http.StatusNoContent)
}

// Run handles POST /api/v1/crawlers/:id/run. The run continues after the
// response; its errors are logged by the runner.
func (h *CrawlersHandler) Run(c *gin.Context) {
	id := c.Param("id")
	if err := h.runner.Trigger(c.Request.Context(), id); err != nil {
		handleError(c, h.log, err, "crawler")
		return
	}

	c.JSON(http.StatusAccepted, RunAccepted{Success: true, CrawlerID: id})
}

// Stats handles GET /api/v1/crawlers/:id/stats
func (h *CrawlersHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := h.store.GetCrawler(ctx, id); err != nil {
		handleError(c, h.log, err, "crawler")
		return
	}

	now := h.now()
	runs, err := h.store.ListRunsSince(ctx, id, now.Add(-stats.Week))
	if err != nil {
		handleError(c, h.log, err, "crawler")
		return
	}

	c.JSON(http.StatusOK, stats.ForCrawler(runs, now))
}

// Runs handles GET /api/v1/crawlers/:id/runs?limit=N
func (h *CrawlersHandler) Runs(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := h.store.GetCrawler(ctx, id); err != nil {
		handleError(c, h.log, err, "crawler")
		return
	}

	runs, err := h.store.ListRuns(ctx, id, parseLimit(c))
	if err != nil {
		handleError(c, h.log, err, "crawler")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}
