package crawl

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

// Elements stripped before reading text.
const nonContentSelectors = "script, style, noscript, nav, header, footer, aside, form"

// PageDiscoverer treats an html source as a single article.
type PageDiscoverer struct {
	fetch *fetcher
}

// Discover fetches the page and returns it as one document.
func (d *PageDiscoverer) Discover(ctx context.Context, source domain.Source) ([]domain.Document, error) {
	body, err := d.fetch.get(ctx, source.URL)
	if err != nil {
		return nil, err
	}

	doc, err := ExtractPage(source.URL, body)
	if err != nil {
		return nil, err
	}
	return []domain.Document{*doc}, nil
}

// ExtractPage reads title, description, author, language, lead image and
// body text from an article page.
func ExtractPage(pageURL string, body []byte) (*domain.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = meta(doc, "meta[property='og:title']")
	}

	description := meta(doc, "meta[name='description']")
	if description == "" {
		description = meta(doc, "meta[property='og:description']")
	}

	root := doc.Find("article").First()
	hasArticle := root.Length() > 0
	if !hasArticle {
		root = doc.Find("body").First()
	}
	root.Find(nonContentSelectors).Remove()
	text := collapseSpace(root.Text())

	// Without an <article> element the body carries navigation and sidebars;
	// readability isolates the main content when it can.
	if !hasArticle {
		if readable := readableText(pageURL, body); readable != "" {
			text = readable
		}
	}

	image := meta(doc, "meta[property='og:image']")
	if image == "" {
		image, _ = root.Find("img[src]").First().Attr("src")
	}

	lang, _ := doc.Find("html").Attr("lang")

	return &domain.Document{
		URL:      pageURL,
		Title:    title,
		Summary:  truncate(description, summaryLength),
		Content:  text,
		ImageURL: image,
		Author:   meta(doc, "meta[name='author']"),
		Source:   meta(doc, "meta[property='og:site_name']"),
		Language: lang,
	}, nil
}

// readableText runs readability over the page. It returns "" when the page
// cannot be parsed or yields no text.
func readableText(pageURL string, body []byte) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return ""
	}
	return collapseSpace(article.TextContent)
}

func meta(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

type parsedHTML struct {
	text  string
	image string
}

// parseHTML flattens an HTML fragment to text and finds its first image.
// Plain text passes through unchanged.
func parseHTML(fragment string) parsedHTML {
	if strings.TrimSpace(fragment) == "" {
		return parsedHTML{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return parsedHTML{text: collapseSpace(fragment)}
	}

	doc.Find(nonContentSelectors).Remove()
	image, _ := doc.Find("img[src]").First().Attr("src")
	return parsedHTML{text: collapseSpace(doc.Text()), image: image}
}

func htmlToText(fragment string) string {
	return parseHTML(fragment).text
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
