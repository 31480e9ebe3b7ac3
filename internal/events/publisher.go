package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
)

const (
	asyncPublishTimeout = 5 * time.Second
	// Streams are trimmed approximately to this many entries.
	maxStreamLength = 10000
)

// Publisher writes events to a Redis Stream. A nil *Publisher is valid and
// drops every event, so callers need not check whether Redis is enabled.
type Publisher struct {
	client *redis.Client
	stream string
	log    logger.Logger
}

// NewPublisher returns nil when client is nil.
func NewPublisher(client *redis.Client, stream string, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{client: client, stream: stream, log: log}
}

// Publish appends event to the stream, filling its id and timestamp when unset.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil {
		return nil
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: maxStreamLength,
		Approx: true,
		Values: map[string]any{
			"type":  string(event.Type),
			"event": string(payload),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish %s to stream %s: %w", event.Type, p.stream, err)
	}

	p.log.Debug("Published event",
		logger.String("event_type", string(event.Type)),
		logger.CrawlerID(event.CrawlerID),
		logger.String("stream_id", id),
	)
	return nil
}

// PublishAsync publishes on a detached context and logs failures.
func (p *Publisher) PublishAsync(event Event) {
	if p == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil {
			p.log.Warn("Event publish failed",
				logger.String("event_type", string(event.Type)),
				logger.CrawlerID(event.CrawlerID),
				logger.Error(err),
			)
		}
	}()
}
