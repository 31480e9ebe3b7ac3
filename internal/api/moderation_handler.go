package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
	"github.com/jcaisse/curated-content-portal-sub001/internal/moderation"
)

// Moderator runs moderation workflows. *moderation.Service implements it.
type Moderator interface {
	Queue(ctx context.Context, crawlerID string, status domain.ModerationStatus) ([]domain.ModerationItem, error)
	Decide(
		ctx context.Context,
		crawlerID, itemID string,
		status domain.ModerationStatus,
		moderatorID string,
		reason *string,
	) (*moderation.Result, error)
	ApplyBatch(
		ctx context.Context,
		crawlerID string,
		itemIDs []string,
		status domain.ModerationStatus,
		moderatorID string,
		reason *string,
	) ([]moderation.Result, error)
	Delete(ctx context.Context, crawlerID, itemID string) error
}

// CrawlerGetter looks up a crawler.
type CrawlerGetter interface {
	GetCrawler(ctx context.Context, id string) (*domain.Crawler, error)
}

// ModerationHandler handles a crawler's moderation queue.
type ModerationHandler struct {
	service  Moderator
	crawlers CrawlerGetter
	log      logger.Logger
}

// NewModerationHandler creates a moderation handler.
func NewModerationHandler(service Moderator, crawlers CrawlerGetter, log logger.Logger) *ModerationHandler {
	return &ModerationHandler{service: service, crawlers: crawlers, log: log}
}

// Queue handles GET /api/v1/crawlers/:id/moderation?status=PENDING
func (h *ModerationHandler) Queue(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	status := domain.ModerationStatusPending
	if raw := c.Query("status"); raw != "" {
		parsed, err := domain.ParseModerationStatus(raw)
		if err != nil {
			handleError(c, h.log, err, "moderation item")
			return
		}
		status = parsed
	}

	if _, err := h.crawlers.GetCrawler(ctx, id); err != nil {
		handleError(c, h.log, err, "crawler")
		return
	}

	items, err := h.service.Queue(ctx, id, status)
	if err != nil {
		handleError(c, h.log, err, "moderation item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  items,
		"count":  len(items),
		"status": status,
	})
}

// Decide handles PUT /api/v1/crawlers/:id/moderation/:itemId
func (h *ModerationHandler) Decide(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	status, err := domain.ParseDecision(req.Status)
	if err != nil {
		handleError(c, h.log, err, "moderation item")
		return
	}

	result, err := h.service.Decide(c.Request.Context(), c.Param("id"), c.Param("itemId"),
		status, moderatorID(c), req.RejectionReason)
	if err != nil {
		handleError(c, h.log, err, "moderation item")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Batch handles POST /api/v1/crawlers/:id/moderation/batch
func (h *ModerationHandler) Batch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	status, err := req.status()
	if err != nil {
		handleError(c, h.log, err, "moderation item")
		return
	}

	results, err := h.service.ApplyBatch(c.Request.Context(), c.Param("id"), req.ItemIDs,
		status, moderatorID(c), req.RejectionReason)
	if err != nil {
		handleError(c, h.log, err, "moderation item")
		return
	}

	c.JSON(http.StatusOK, BatchResponse{Results: results, Count: len(results)})
}

// Delete handles DELETE /api/v1/crawlers/:id/moderation/:itemId
func (h *ModerationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), c.Param("itemId")); err != nil {
		handleError(c, h.log, err, "moderation item")
		return
	}
	c.Status(http.StatusNoContent)
}
