// Package httpclient builds the outbound HTTP clients used to read sources.
package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	DefaultTimeout             = 30 * time.Second
	DefaultMaxIdleConnsPerHost = 4
	DefaultMaxRedirects        = 5

	defaultIdleConnTimeout     = 90 * time.Second
	defaultTLSHandshakeTimeout = 10 * time.Second
)

// ErrTooManyRedirects is returned once a request follows more than
// Config.MaxRedirects redirects.
var ErrTooManyRedirects = errors.New("too many redirects")

// Config configures a client. Zero values fall back to the defaults above.
type Config struct {
	Timeout             time.Duration
	UserAgent           string
	MaxIdleConnsPerHost int
	MaxRedirects        int
}

// New returns a client that stamps every request with cfg.UserAgent and
// caps redirect chains.
func New(cfg Config) *http.Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = DefaultMaxRedirects
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	transport.IdleConnTimeout = defaultIdleConnTimeout
	transport.TLSHandshakeTimeout = defaultTLSHandshakeTimeout
	transport.ResponseHeaderTimeout = cfg.Timeout

	var rt http.RoundTripper = transport
	if cfg.UserAgent != "" {
		rt = &userAgentTransport{next: transport, userAgent: cfg.UserAgent}
	}

	maxRedirects := cfg.MaxRedirects
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: rt,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("%w: %d", ErrTooManyRedirects, len(via))
			}
			return nil
		},
	}
}

type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(clone)
}
