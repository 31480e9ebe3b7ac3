package api

import (
	"strings"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
	"github.com/jcaisse/curated-content-portal-sub001/internal/moderation"
)

// CrawlerRequest is the body of POST and PUT /crawlers. On update, omitted
// fields keep their stored values; keywords and sources are replaced when present.
type CrawlerRequest struct {
	Name          *string         `json:"name"`
	Description   *string         `json:"description"`
	IsActive      *bool           `json:"isActive"`
	MinMatchScore *float64        `json:"minMatchScore"`
	Keywords      []string        `json:"keywords"`
	Sources       []SourceRequest `json:"sources"`
}

// SourceRequest describes one crawler source. Enabled defaults to true.
type SourceRequest struct {
	URL     string `json:"url"`
	Type    string `json:"type"`
	Enabled *bool  `json:"enabled"`
}

// apply copies the set fields onto c.
func (r *CrawlerRequest) apply(c *domain.Crawler) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Description != nil {
		desc := strings.TrimSpace(*r.Description)
		c.Description = &desc
		if desc == "" {
			c.Description = nil
		}
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	if r.MinMatchScore != nil {
		c.MinMatchScore = *r.MinMatchScore
	}
	if r.Keywords != nil {
		c.Keywords = r.Keywords
	}
	if r.Sources != nil {
		c.Sources = make([]domain.Source, 0, len(r.Sources))
		for _, s := range r.Sources {
			enabled := true
			if s.Enabled != nil {
				enabled = *s.Enabled
			}
			c.Sources = append(c.Sources, domain.Source{
				URL:     s.URL,
				Type:    domain.SourceType(s.Type),
				Enabled: enabled,
			})
		}
	}
}

// DecisionRequest is the body of PUT /crawlers/:id/moderation/:itemId.
type DecisionRequest struct {
	Status          string  `binding:"required" json:"status"`
	RejectionReason *string `json:"rejectionReason"`
}

// BatchRequest is the body of POST /crawlers/:id/moderation/batch.
type BatchRequest struct {
	Action          string   `binding:"required" json:"action"`
	ItemIDs         []string `binding:"required" json:"itemIds"`
	RejectionReason *string  `json:"rejectionReason"`
}

var batchActions = map[string]domain.ModerationStatus{
	"approve": domain.ModerationStatusApproved,
	"reject":  domain.ModerationStatusRejected,
	"archive": domain.ModerationStatusArchived,
}

func (r *BatchRequest) status() (domain.ModerationStatus, error) {
	status, ok := batchActions[strings.ToLower(strings.TrimSpace(r.Action))]
	if !ok {
		return "", domain.NewValidationError("action", "must be one of approve, reject, archive")
	}
	return status, nil
}

// BatchResponse lists the items a batch changed.
type BatchResponse struct {
	Results []moderation.Result `json:"results"`
	Count   int                 `json:"count"`
}

// KeywordRequest is the body of POST /keywords.
type KeywordRequest struct {
	Name string `binding:"required" json:"name"`
}

// RunAccepted is returned when a run has been handed to the runner.
type RunAccepted struct {
	Success   bool   `json:"success"`
	CrawlerID string `json:"crawlerId"`
}
