package crawl

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

const summaryLength = 300

// FeedDiscoverer reads RSS and Atom sources.
type FeedDiscoverer struct {
	fetch *fetcher
}

// Discover fetches and parses the feed. Entries without a usable link are skipped.
func (d *FeedDiscoverer) Discover(ctx context.Context, source domain.Source) ([]domain.Document, error) {
	body, err := d.fetch.get(ctx, source.URL)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParseFeed(string(body))
}

// ParseFeed turns a feed body into documents.
func ParseFeed(body string) ([]domain.Document, error) {
	parsed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	docs := make([]domain.Document, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		link := entryLink(entry)
		if link == "" {
			continue
		}

		rawContent := entry.Content
		if rawContent == "" {
			rawContent = entry.Description
		}
		page := parseHTML(rawContent)

		summary := htmlToText(entry.Description)
		if summary == "" {
			summary = page.text
		}

		doc := domain.Document{
			URL:         link,
			GUID:        entry.GUID,
			Title:       strings.TrimSpace(entry.Title),
			Summary:     truncate(summary, summaryLength),
			Content:     page.text,
			ImageURL:    entryImage(entry, page),
			Author:      entryAuthor(entry),
			Source:      strings.TrimSpace(parsed.Title),
			Language:    parsed.Language,
			PublishedAt: entry.PublishedParsed,
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func entryLink(entry *gofeed.Item) string {
	if entry.Link != "" {
		return entry.Link
	}
	if strings.HasPrefix(entry.GUID, "http") {
		return entry.GUID
	}
	return ""
}

func entryAuthor(entry *gofeed.Item) string {
	if entry.Author != nil && entry.Author.Name != "" {
		return entry.Author.Name
	}
	for _, a := range entry.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return ""
}

// entryImage prefers the feed's declared image, then an image enclosure,
// then the first <img> in the entry body.
func entryImage(entry *gofeed.Item, page parsedHTML) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}
	for _, enc := range entry.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return page.image
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
