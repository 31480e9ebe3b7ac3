package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ModerationStatus is the review state of a ModerationItem.
type ModerationStatus string

const (
	ModerationStatusPending  ModerationStatus = "PENDING"
	ModerationStatusApproved ModerationStatus = "APPROVED"
	ModerationStatusRejected ModerationStatus = "REJECTED"
	ModerationStatusArchived ModerationStatus = "ARCHIVED"
)

// ParseModerationStatus accepts any of the four statuses, case-insensitively.
func ParseModerationStatus(s string) (ModerationStatus, error) {
	status := ModerationStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case ModerationStatusPending, ModerationStatusApproved, ModerationStatusRejected, ModerationStatusArchived:
		return status, nil
	default:
		return "", NewValidationError("status", "must be one of PENDING, APPROVED, REJECTED, ARCHIVED")
	}
}

// ParseDecision accepts only the statuses a moderator can set.
func ParseDecision(s string) (ModerationStatus, error) {
	status, err := ParseModerationStatus(s)
	if err != nil || status == ModerationStatusPending {
		return "", NewValidationError("status", "must be one of APPROVED, REJECTED, ARCHIVED")
	}
	return status, nil
}

// ItemMetadata is the structured metadata stored with a moderation item.
type ItemMetadata struct {
	// PostID is set once the item has been approved and published.
	PostID string `json:"postId,omitempty"`
	// FeedGUID is the identifier the source feed gave the entry.
	FeedGUID string `json:"feedGuid,omitempty"`
	// SourcePublishedAt is when the source says the entry was published.
	SourcePublishedAt *time.Time `json:"sourcePublishedAt,omitempty"`
}

// Scan implements sql.Scanner for JSONB columns.
func (m *ItemMetadata) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*m = ItemMetadata{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.New("unsupported type for ItemMetadata")
	}
	if len(data) == 0 {
		*m = ItemMetadata{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Value implements driver.Valuer for JSONB columns.
func (m ItemMetadata) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// ModerationItem is a discovered candidate awaiting a moderator's decision.
// (CrawlerID, URLHash) is unique.
type ModerationItem struct {
	ID              string           `db:"id"               json:"id"`
	CrawlerID       string           `db:"crawler_id"       json:"crawlerId"`
	RunID           *string          `db:"run_id"           json:"runId,omitempty"`
	URL             string           `db:"url"              json:"url"`
	URLHash         string           `db:"url_hash"         json:"urlHash"`
	Title           string           `db:"title"            json:"title"`
	Summary         string           `db:"summary"          json:"summary"`
	Content         string           `db:"content"          json:"content"`
	ImageURL        *string          `db:"image_url"        json:"imageUrl,omitempty"`
	Author          *string          `db:"author"           json:"author,omitempty"`
	Source          *string          `db:"source"           json:"source,omitempty"`
	Language        *string          `db:"language"         json:"language,omitempty"`
	Score           float64          `db:"score"            json:"score"`
	MatchedKeywords []string         `db:"-"                json:"matchedKeywords"`
	Status          ModerationStatus `db:"status"           json:"status"`
	DecidedBy       *string          `db:"decided_by"       json:"decidedBy,omitempty"`
	DecidedAt       *time.Time       `db:"decided_at"       json:"decidedAt,omitempty"`
	RejectionReason *string          `db:"rejection_reason" json:"rejectionReason,omitempty"`
	Metadata        ItemMetadata     `db:"metadata"         json:"metadata"`
	DiscoveredAt    time.Time        `db:"discovered_at"    json:"discoveredAt"`
	UpdatedAt       time.Time        `db:"updated_at"       json:"updatedAt"`
}

// ValidateForQueue checks the fields queuePost relies on.
func (m *ModerationItem) ValidateForQueue() error {
	switch {
	case m.CrawlerID == "":
		return NewValidationError("crawlerId", "is required")
	case m.URL == "":
		return NewValidationError("url", "is required")
	case m.URLHash == "":
		return NewValidationError("urlHash", "is required")
	case strings.TrimSpace(m.Title) == "":
		return NewValidationError("title", "is required")
	case m.Score < 0 || m.Score > 1:
		return NewValidationError("score", "must be between 0 and 1")
	}
	return nil
}

// Decision is a moderator's verdict on an item.
type Decision struct {
	Status          ModerationStatus
	DecidedBy       string
	RejectionReason *string
}
