package domain

import "time"

// PostStatus is the publication state of a Post.
type PostStatus string

const (
	PostStatusPublished PostStatus = "PUBLISHED"
)

// Post is published content. URLHash is globally unique, so the same URL
// approved through two crawlers converges to one Post.
type Post struct {
	ID          string     `db:"id"           json:"id"`
	URLHash     string     `db:"url_hash"     json:"urlHash"`
	URL         string     `db:"url"          json:"url"`
	CrawlerID   string     `db:"crawler_id"   json:"crawlerId"`
	Title       string     `db:"title"        json:"title"`
	Summary     string     `db:"summary"      json:"summary"`
	Content     string     `db:"content"      json:"content"`
	ImageURL    *string    `db:"image_url"    json:"imageUrl,omitempty"`
	Author      *string    `db:"author"       json:"author,omitempty"`
	Source      *string    `db:"source"       json:"source,omitempty"`
	Language    *string    `db:"language"     json:"language,omitempty"`
	Tags        []string   `db:"-"            json:"tags"`
	Status      PostStatus `db:"status"       json:"status"`
	PublishedAt *time.Time `db:"published_at" json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `db:"created_at"   json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at"   json:"updatedAt"`
}

// NewPublishedPost copies item's content into a PUBLISHED post stamped at now.
// id is only used when no post exists yet for the URL hash.
func NewPublishedPost(id string, item *ModerationItem, now time.Time) *Post {
	return &Post{
		ID:          id,
		URLHash:     item.URLHash,
		URL:         item.URL,
		CrawlerID:   item.CrawlerID,
		Title:       item.Title,
		Summary:     item.Summary,
		Content:     item.Content,
		ImageURL:    item.ImageURL,
		Author:      item.Author,
		Source:      item.Source,
		Language:    item.Language,
		Tags:        item.MatchedKeywords,
		Status:      PostStatusPublished,
		PublishedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
