// Package redis constructs verified go-redis clients.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	infracontext "github.com/jcaisse/curated-content-portal-sub001/infrastructure/context"
)

// Config holds Redis connection settings.
type Config struct {
	Address  string
	Password string
	DB       int
}

// ErrEmptyAddress is returned when no address is configured.
var ErrEmptyAddress = errors.New("redis address is required")

// NewClient connects and pings; the client is closed again if the ping fails.
func NewClient(cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := infracontext.WithPingTimeout()
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Ping reports whether client is reachable within the ping timeout.
func Ping(ctx context.Context, client *redis.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, infracontext.DefaultPingTimeout)
	defer cancel()
	return client.Ping(pingCtx).Err()
}
