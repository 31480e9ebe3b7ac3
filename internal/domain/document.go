package domain

import "time"

// Document is one candidate discovered in a source, before scoring.
type Document struct {
	URL         string
	GUID        string
	Title       string
	Summary     string
	Content     string
	ImageURL    string
	Author      string
	Source      string
	Language    string
	PublishedAt *time.Time
}
