package bootstrap

import (
	"github.com/redis/go-redis/v9"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	infraredis "github.com/jcaisse/curated-content-portal-sub001/infrastructure/redis"
	"github.com/jcaisse/curated-content-portal-sub001/internal/config"
)

// SetupRedis connects when Redis is enabled. It returns nil when Redis is
// disabled or unreachable; events are then dropped.
func SetupRedis(cfg *config.Config, log logger.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	client, err := infraredis.NewClient(infraredis.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis not available, events disabled", logger.Error(err))
		return nil
	}

	log.Info("Event publisher initialized",
		logger.String("redis_address", cfg.Redis.Address),
		logger.String("stream", cfg.Redis.Stream),
	)
	return client
}
