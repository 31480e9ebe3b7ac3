package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

// KeywordStore is the global keyword catalog.
type KeywordStore interface {
	CreateKeyword(ctx context.Context, k *domain.Keyword) (*domain.Keyword, error)
	ListKeywords(ctx context.Context) ([]domain.Keyword, error)
	DeleteKeyword(ctx context.Context, id string) error
}

// KeywordsHandler handles the keyword catalog.
type KeywordsHandler struct {
	store KeywordStore
	log   logger.Logger
}

func NewKeywordsHandler(store KeywordStore, log logger.Logger) *KeywordsHandler {
	return &KeywordsHandler{store: store, log: log}
}

// List handles GET /api/v1/keywords
func (h *KeywordsHandler) List(c *gin.Context) {
	keywords, err := h.store.ListKeywords(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err, "keyword")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"keywords": keywords,
		"count":    len(keywords),
	})
}

// Create handles POST /api/v1/keywords
func (h *KeywordsHandler) Create(c *gin.Context) {
	var req KeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	name, err := domain.NormalizeKeywordName(req.Name)
	if err != nil {
		handleError(c, h.log, err, "keyword")
		return
	}

	created, err := h.store.CreateKeyword(c.Request.Context(), &domain.Keyword{Name: name, CreatedBy: moderatorID(c)})
	if err != nil {
		handleError(c, h.log, err, "keyword")
		return
	}

	h.log.Info("Keyword created",
		logger.String("keyword_id", created.ID),
		logger.String("name", created.Name),
	)
	c.JSON(http.StatusCreated, created)
}

// Delete handles DELETE /api/v1/keywords/:id
func (h *KeywordsHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteKeyword(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, h.log, err, "keyword")
		return
	}
	c.Status(http.StatusNoContent)
}
