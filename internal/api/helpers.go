// Package api implements curator's HTTP API.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/jwt"
	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	"github.com/jcaisse/curated-content-portal-sub001/internal/crawl"
	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

const (
	moderatorHeader  = "X-Moderator-ID"
	defaultModerator = "system"

	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// respondError sends a JSON error response.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondNotFound(c *gin.Context, resource string) {
	respondError(c, http.StatusNotFound, resource+" not found")
}

func respondInvalidBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
}

// handleError maps domain errors to status codes. Anything unrecognised is
// logged and answered with a 500.
func handleError(c *gin.Context, log logger.Logger, err error, resource string) {
	if ve, ok := domain.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondNotFound(c, resource)
	case errors.Is(err, domain.ErrConflict):
		respondError(c, http.StatusConflict, resource+" already exists")
	case errors.Is(err, domain.ErrCrawlerInactive):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, crawl.ErrRunnerClosed):
		respondError(c, http.StatusServiceUnavailable, err.Error())
	default:
		logger.FromContext(c.Request.Context(), log).Error("Request failed",
			logger.String("path", c.FullPath()),
			logger.Error(err),
		)
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

// moderatorID identifies who is acting: the bearer token subject, then the
// X-Moderator-ID header, then "system".
func moderatorID(c *gin.Context) string {
	if claims, ok := jwt.GetClaims(c); ok && claims.Subject != "" {
		return claims.Subject
	}
	if id := c.GetHeader(moderatorHeader); id != "" {
		return id
	}
	return defaultModerator
}

// parseLimit reads ?limit, clamped to [1, maxRunsLimit].
func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultRunsLimit)))
	if err != nil || limit <= 0 {
		return defaultRunsLimit
	}
	return min(limit, maxRunsLimit)
}
