// Package events publishes curator domain events to a Redis Stream.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

// Type names an event.
type Type string

const (
	TypePostPublished    Type = "post.published"
	TypeCrawlRunFinished Type = "crawl_run.finished"
)

// Event is the envelope written to the stream.
type Event struct {
	ID        uuid.UUID      `json:"eventId"`
	Type      Type           `json:"type"`
	CrawlerID string         `json:"crawlerId"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// PostPublished describes a post made public by approving itemID.
func PostPublished(post *domain.Post, itemID string) Event {
	return Event{
		Type:      TypePostPublished,
		CrawlerID: post.CrawlerID,
		Data: map[string]any{
			"postId":  post.ID,
			"itemId":  itemID,
			"urlHash": post.URLHash,
			"url":     post.URL,
			"title":   post.Title,
		},
	}
}

// RunFinished describes a run that reached a terminal status.
func RunFinished(run *domain.CrawlRun) Event {
	data := map[string]any{
		"runId":          run.ID,
		"status":         string(run.Status),
		"itemsProcessed": run.ItemsProcessed,
		"itemsQueued":    run.ItemsQueued,
	}
	if d, ok := run.Duration(); ok {
		data["durationMs"] = d.Milliseconds()
	}
	if run.ErrorMessage != nil {
		data["error"] = *run.ErrorMessage
	}
	return Event{Type: TypeCrawlRunFinished, CrawlerID: run.CrawlerID, Data: data}
}
