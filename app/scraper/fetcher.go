package scraper

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

const maxBodySize = 10 << 20 // 10 MB

// Fetcher wraps an HTTP client for page retrieval. Responses declaring a
// non-UTF-8 charset are decoded to UTF-8 before parsing.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher(userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{},
		userAgent: userAgent,
	}
}

func (f *Fetcher) Get(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected HTTP status %d for %s", resp.StatusCode, url)
	}

	var reader io.Reader = io.LimitReader(resp.Body, maxBodySize)
	reader = decodeCharset(reader, resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// decodeCharset wraps r with a decoder for the charset declared in the
// Content-Type header. UTF-8, unknown and undeclared charsets pass through.
func decodeCharset(r io.Reader, contentType string) io.Reader {
	if contentType == "" {
		return r
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return r
	}

	name := params["charset"]
	if name == "" || strings.EqualFold(name, "utf-8") {
		return r
	}

	enc, err := htmlindex.Get(name)
	if err != nil || enc == nil {
		return r
	}

	return transform.NewReader(r, enc.NewDecoder())
}
