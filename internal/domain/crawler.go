package domain

import (
	"net/url"
	"strings"
	"time"
)

// DefaultMinMatchScore is the relevance threshold used when a crawler does not set one.
const DefaultMinMatchScore = 0.75

const maxCrawlerNameLength = 200

// SourceType identifies how a source is read.
type SourceType string

const (
	SourceTypeRSS  SourceType = "rss"
	SourceTypeAtom SourceType = "atom"
	SourceTypeHTML SourceType = "html"
)

// IsFeed reports whether the source is a syndication feed.
func (t SourceType) IsFeed() bool {
	return t == SourceTypeRSS || t == SourceTypeAtom
}

func (t SourceType) valid() bool {
	return t.IsFeed() || t == SourceTypeHTML
}

// Crawler is a configured content-discovery job.
type Crawler struct {
	ID            string    `db:"id"              json:"id"`
	Name          string    `db:"name"            json:"name"`
	Description   *string   `db:"description"     json:"description,omitempty"`
	IsActive      bool      `db:"is_active"       json:"isActive"`
	MinMatchScore float64   `db:"min_match_score" json:"minMatchScore"`
	Keywords      []string  `db:"-"               json:"keywords"`
	Sources       []Source  `db:"-"               json:"sources"`
	CreatedAt     time.Time `db:"created_at"      json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at"      json:"updatedAt"`
}

// Source is one location a crawler reads candidate content from.
type Source struct {
	ID        string     `db:"id"         json:"id"`
	CrawlerID string     `db:"crawler_id" json:"crawlerId"`
	URL       string     `db:"url"        json:"url"`
	Type      SourceType `db:"type"       json:"type"`
	Enabled   bool       `db:"enabled"    json:"enabled"`
}

// Normalize trims the name, drops blank and duplicate keywords (case-insensitive)
// and lowercases source types.
func (c *Crawler) Normalize() {
	c.Name = strings.TrimSpace(c.Name)

	seen := make(map[string]struct{}, len(c.Keywords))
	keywords := make([]string, 0, len(c.Keywords))
	for _, k := range c.Keywords {
		k = strings.TrimSpace(k)
		key := strings.ToLower(k)
		if k == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keywords = append(keywords, k)
	}
	c.Keywords = keywords

	for i := range c.Sources {
		c.Sources[i].URL = strings.TrimSpace(c.Sources[i].URL)
		c.Sources[i].Type = SourceType(strings.ToLower(string(c.Sources[i].Type)))
		if c.Sources[i].Type == "" {
			c.Sources[i].Type = SourceTypeRSS
		}
	}
}

// Validate checks name, threshold and sources.
func (c *Crawler) Validate() error {
	if c.Name == "" {
		return NewValidationError("name", "is required")
	}
	if len(c.Name) > maxCrawlerNameLength {
		return NewValidationError("name", "must be at most 200 characters")
	}
	if c.MinMatchScore < 0 || c.MinMatchScore > 1 {
		return NewValidationError("minMatchScore", "must be between 0 and 1")
	}
	for _, s := range c.Sources {
		u, err := url.Parse(s.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return NewValidationError("sources.url", "must be an absolute http(s) URL: "+s.URL)
		}
		if !s.Type.valid() {
			return NewValidationError("sources.type", "must be one of rss, atom, html")
		}
	}
	return nil
}

// EnabledSources returns the sources a run should read.
func (c *Crawler) EnabledSources() []Source {
	out := make([]Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}
