// Package urlhash derives the deduplication key for discovered content: a
// SHA-256 digest of the canonical form of its URL.
package urlhash

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

var (
	ErrEmptyURL    = errors.New("url is empty")
	ErrNotAbsolute = errors.New("url must have an http(s) scheme and host")
)

// Query parameters that identify campaigns or clicks rather than content.
var trackingParams = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"gclsrc":  {},
	"dclid":   {},
	"msclkid": {},
	"mc_cid":  {},
	"mc_eid":  {},
	"ref_src": {},
}

// Canonicalize folds equivalent spellings of a URL onto one string: the
// scheme becomes https, the host is lowercased and loses its default port,
// dot segments and trailing slashes are removed from the path, the fragment
// is dropped, and tracking parameters are stripped from a key-sorted query.
func Canonicalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize %q: %w", raw, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("canonicalize %q: %w", raw, ErrNotAbsolute)
	}

	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host += ":" + port
	}

	p := u.EscapedPath()
	if p != "" {
		p = path.Clean(p)
		if p == "/" || p == "." {
			p = ""
		}
	}

	query := u.Query()
	for key := range query {
		if _, tracking := trackingParams[strings.ToLower(key)]; tracking || strings.HasPrefix(strings.ToLower(key), "utm_") {
			query.Del(key)
		}
	}

	canonical := "https://" + host + p
	if encoded := query.Encode(); encoded != "" {
		canonical += "?" + encoded
	}
	return canonical, nil
}

// Hash returns the 64-character hex SHA-256 of the canonical URL.
func Hash(raw string) (string, error) {
	canonical, err := Canonicalize(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:]), nil
}
