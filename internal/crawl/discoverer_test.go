package crawl_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcaisse/curated-content-portal-sub001/internal/crawl"
	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Go Weekly</title>
    <link>https://goweekly.example.com</link>
    <language>en</language>
    <item>
      <title>Generics in practice</title>
      <link>https://goweekly.example.com/generics</link>
      <guid>gw-1</guid>
      <author>gopher@example.com (Gopher)</author>
      <pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
      <description><![CDATA[<p>Type <b>parameters</b> explained.</p><img src="https://img.example.com/g.png"><script>track()</script>]]></description>
    </item>
    <item>
      <title>Release notes</title>
      <guid>https://goweekly.example.com/release</guid>
      <description>Plain text summary</description>
      <enclosure url="https://img.example.com/r.jpg" type="image/jpeg" length="100"/>
    </item>
    <item>
      <title>No link at all</title>
      <guid>opaque-id</guid>
    </item>
  </channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Source</title>
  <entry>
    <title>Atom entry</title>
    <link href="https://atom.example.com/entry"/>
    <id>urn:uuid:1</id>
    <updated>2026-03-01T00:00:00Z</updated>
    <author><name>Ada</name></author>
    <content type="html">&lt;p&gt;Body &lt;em&gt;text&lt;/em&gt;&lt;/p&gt;</content>
  </entry>
</feed>`

const articlePage = `<!doctype html>
<html lang="fr">
<head>
  <title>Un article</title>
  <meta name="description" content="Résumé de l'article">
  <meta name="author" content="Marie">
  <meta property="og:site_name" content="Le Site">
  <meta property="og:image" content="https://img.example.com/og.png">
</head>
<body>
  <nav>Menu Accueil</nav>
  <article>
    <h1>Un article</h1>
    <p>Premier   paragraphe.</p>
    <script>var x = 1;</script>
    <p>Second paragraphe.</p>
  </article>
  <footer>Pied de page</footer>
</body>
</html>`

func serve(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "curator-test", r.UserAgent())
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newDiscoverer() *crawl.SourceDiscoverer {
	return crawl.NewSourceDiscoverer(crawl.FetchConfig{Timeout: 5 * time.Second, UserAgent: "curator-test", MaxAttempts: 1})
}

func TestSourceDiscoverer_RSS(t *testing.T) {
	srv := serve(t, "application/rss+xml", rssFeed)

	docs, err := newDiscoverer().Discover(context.Background(), domain.Source{URL: srv.URL, Type: domain.SourceTypeRSS})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	first := docs[0]
	assert.Equal(t, "https://goweekly.example.com/generics", first.URL)
	assert.Equal(t, "gw-1", first.GUID)
	assert.Equal(t, "Generics in practice", first.Title)
	assert.Equal(t, "Type parameters explained.", first.Content)
	assert.Equal(t, "Type parameters explained.", first.Summary)
	assert.Equal(t, "https://img.example.com/g.png", first.ImageURL)
	assert.Equal(t, "Go Weekly", first.Source)
	assert.Equal(t, "en", first.Language)
	require.NotNil(t, first.PublishedAt)
	assert.Equal(t, 2026, first.PublishedAt.Year())

	second := docs[1]
	assert.Equal(t, "https://goweekly.example.com/release", second.URL)
	assert.Equal(t, "Plain text summary", second.Content)
	assert.Equal(t, "https://img.example.com/r.jpg", second.ImageURL)
}

func TestSourceDiscoverer_Atom(t *testing.T) {
	srv := serve(t, "application/atom+xml", atomFeed)

	docs, err := newDiscoverer().Discover(context.Background(), domain.Source{URL: srv.URL, Type: domain.SourceTypeAtom})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "https://atom.example.com/entry", docs[0].URL)
	assert.Equal(t, "Body text", docs[0].Content)
	assert.Equal(t, "Ada", docs[0].Author)
	assert.Equal(t, "Atom Source", docs[0].Source)
}

func TestSourceDiscoverer_HTMLPage(t *testing.T) {
	srv := serve(t, "text/html", articlePage)

	docs, err := newDiscoverer().Discover(context.Background(), domain.Source{URL: srv.URL, Type: domain.SourceTypeHTML})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, srv.URL, doc.URL)
	assert.Equal(t, "Un article", doc.Title)
	assert.Equal(t, "Résumé de l'article", doc.Summary)
	assert.Equal(t, "Un article Premier paragraphe. Second paragraphe.", doc.Content)
	assert.Equal(t, "https://img.example.com/og.png", doc.ImageURL)
	assert.Equal(t, "Marie", doc.Author)
	assert.Equal(t, "Le Site", doc.Source)
	assert.Equal(t, "fr", doc.Language)
}

func TestSourceDiscoverer_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(atomFeed))
	}))
	t.Cleanup(srv.Close)

	d := crawl.NewSourceDiscoverer(crawl.FetchConfig{Timeout: 5 * time.Second, MaxAttempts: 2})
	docs, err := d.Discover(context.Background(), domain.Source{URL: srv.URL, Type: domain.SourceTypeAtom})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSourceDiscoverer_Errors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(failing.Close)
	garbage := serve(t, "text/plain", "this is not a feed")

	tests := []struct {
		name   string
		source domain.Source
		target error
	}{
		{name: "bad status", source: domain.Source{URL: failing.URL, Type: domain.SourceTypeRSS}},
		{name: "not a feed", source: domain.Source{URL: garbage.URL, Type: domain.SourceTypeRSS}},
		{name: "unknown type", source: domain.Source{URL: garbage.URL, Type: "sitemap"}, target: crawl.ErrUnsupportedSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newDiscoverer().Discover(context.Background(), tt.source)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

const layoutPage = `<!doctype html>
<html lang="en">
<head><title>Layout page</title></head>
<body>
  <div class="sidebar"><a href="/a">Home</a> <a href="/b">Archive</a></div>
  <div class="content">
    <h2>Shipping a crawler</h2>
    <p>Production crawlers spend most of their time waiting on the network, so bounding concurrency, honouring timeouts and retrying transient failures matter more than raw parsing speed.</p>
    <p>Feeds are cheap to poll, while full article pages need extraction that survives navigation blocks, cookie banners and sidebars, which is where readability earns its keep.</p>
  </div>
</body>
</html>`

func TestExtractPage_WithoutArticleElement(t *testing.T) {
	doc, err := crawl.ExtractPage("https://blog.example.com/post", []byte(layoutPage))
	require.NoError(t, err)

	assert.Equal(t, "Layout page", doc.Title)
	assert.Equal(t, "en", doc.Language)
	assert.Contains(t, doc.Content, "Production crawlers spend most of their time waiting on the network")
}
