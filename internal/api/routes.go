package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	infragin "github.com/jcaisse/curated-content-portal-sub001/infrastructure/gin"
)

// Handlers groups every route handler.
type Handlers struct {
	Crawlers   *CrawlersHandler
	Moderation *ModerationHandler
	Keywords   *KeywordsHandler
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Instrument wraps every route registered below when set.
	Instrument gin.HandlerFunc
}

// SetupRoutes registers the API under /api/v1, guarded by bearer tokens when
// jwtSecret is set. /metrics stays public.
func SetupRoutes(router *gin.Engine, h Handlers, jwtSecret string) {
	if h.Instrument != nil {
		router.Use(h.Instrument)
	}
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	v1 := infragin.ProtectedGroup(router, "/api/v1", jwtSecret)

	crawlers := v1.Group("/crawlers")
	crawlers.GET("", h.Crawlers.List)
	crawlers.POST("", h.Crawlers.Create)
	crawlers.GET("/:id", h.Crawlers.Get)
	crawlers.PUT("/:id", h.Crawlers.Update)
	crawlers.DELETE("/:id", h.Crawlers.Delete)
	crawlers.POST("/:id/run", h.Crawlers.Run)
	crawlers.GET("/:id/stats", h.Crawlers.Stats)
	crawlers.GET("/:id/runs", h.Crawlers.Runs)

	crawlers.GET("/:id/moderation", h.Moderation.Queue)
	crawlers.POST("/:id/moderation/batch", h.Moderation.Batch)
	crawlers.PUT("/:id/moderation/:itemId", h.Moderation.Decide)
	crawlers.DELETE("/:id/moderation/:itemId", h.Moderation.Delete)

	keywords := v1.Group("/keywords")
	keywords.GET("", h.Keywords.List)
	keywords.POST("", h.Keywords.Create)
	keywords.DELETE("/:id", h.Keywords.Delete)
}
