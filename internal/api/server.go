package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	infragin "github.com/jcaisse/curated-content-portal-sub001/infrastructure/gin"
	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	"github.com/jcaisse/curated-content-portal-sub001/internal/config"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// NewServer builds the HTTP server. redis may be nil when Redis is disabled.
func NewServer(cfg *config.Config, h Handlers, db, redis Pinger, log logger.Logger) *infragin.Server {
	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Server.Port).
		WithLogger(log).
		WithHost(cfg.Server.Host).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.Server.CORSOrigins).
		WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout).
		WithDatabaseHealthCheck(pingFunc(db)).
		WithRoutes(func(router *gin.Engine) {
			SetupRoutes(router, h, cfg.Auth.JWTSecret)
		})

	if redis != nil {
		builder = builder.WithRedisHealthCheck(pingFunc(redis))
	}
	return builder.Build()
}

func pingFunc(p Pinger) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
		defer cancel()
		return p.Ping(ctx)
	}
}
