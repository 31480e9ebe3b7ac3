package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/httpclient"
	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/retry"
	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

// ErrUnsupportedSource is returned for source types no discoverer handles.
var ErrUnsupportedSource = errors.New("unsupported source type")

const (
	defaultFetchTimeout = 30 * time.Second
	defaultUserAgent    = "curator/1.0 (+https://github.com/jcaisse/curated-content-portal-sub001)"
	maxBodyBytes        = 10 << 20
)

// Discoverer reads candidate documents from one source.
type Discoverer interface {
	Discover(ctx context.Context, source domain.Source) ([]domain.Document, error)
}

// FetchConfig configures HTTP access to sources.
type FetchConfig struct {
	Timeout   time.Duration
	UserAgent string
	// MaxAttempts per request, counting the first. Zero uses the retry default.
	MaxAttempts int
	// RequestsPerSecond caps outbound requests across all sources. Zero means unlimited.
	RequestsPerSecond float64
}

// SourceDiscoverer dispatches on source type: feeds go through gofeed and
// html sources are read as a single article page.
type SourceDiscoverer struct {
	feed *FeedDiscoverer
	page *PageDiscoverer
}

// NewSourceDiscoverer builds discoverers sharing one HTTP client.
func NewSourceDiscoverer(cfg FetchConfig) *SourceDiscoverer {
	f := newFetcher(cfg)
	return &SourceDiscoverer{
		feed: &FeedDiscoverer{fetch: f},
		page: &PageDiscoverer{fetch: f},
	}
}

// Discover implements Discoverer.
func (d *SourceDiscoverer) Discover(ctx context.Context, source domain.Source) ([]domain.Document, error) {
	switch {
	case source.Type.IsFeed():
		return d.feed.Discover(ctx, source)
	case source.Type == domain.SourceTypeHTML:
		return d.page.Discover(ctx, source)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, source.Type)
	}
}

type fetcher struct {
	client  *http.Client
	retry   retry.Config
	limiter *rate.Limiter
}

func newFetcher(cfg FetchConfig) *fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	backoff := retry.DefaultConfig()
	if cfg.MaxAttempts > 0 {
		backoff.MaxAttempts = cfg.MaxAttempts
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &fetcher{
		client:  httpclient.New(httpclient.Config{Timeout: cfg.Timeout, UserAgent: cfg.UserAgent}),
		retry:   backoff,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// get fetches url and returns at most maxBodyBytes of a 2xx body. Timeouts,
// refused connections and 5xx/429 responses are retried with backoff.
func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := retry.Do(ctx, f.retry, func(ctx context.Context) error {
		b, err := f.getOnce(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *fetcher) getOnce(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &retry.StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
