package bootstrap

import (
	"context"

	infragin "github.com/jcaisse/curated-content-portal-sub001/infrastructure/gin"
	infraredis "github.com/jcaisse/curated-content-portal-sub001/infrastructure/redis"
	"github.com/jcaisse/curated-content-portal-sub001/internal/api"
)

// SetupHTTPServer creates the HTTP server over app's services.
func SetupHTTPServer(app *App) *infragin.Server {
	cfg, log := app.Config, app.Logger

	handlers := api.Handlers{
		Crawlers:   api.NewCrawlersHandler(app.Store, app.Services.Runner, log, cfg.Crawl.DefaultMinMatchScore),
		Moderation: api.NewModerationHandler(app.Services.Moderation, app.Store, log),
		Keywords:   api.NewKeywordsHandler(app.Store, log),
		Metrics:    app.Services.Metrics.Handler(),
		Instrument: app.Services.Metrics.Middleware(),
	}

	var redisPing api.Pinger
	if app.Redis != nil {
		client := app.Redis
		redisPing = api.PingFunc(func(ctx context.Context) error { return infraredis.Ping(ctx, client) })
	}

	return api.NewServer(cfg, handlers, app.Store, redisPing, log)
}
