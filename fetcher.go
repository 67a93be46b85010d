package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultFetchTimeout = 15 * time.Second
	maxPageBytes        = 4 << 20
	defaultUserAgent    = "Mozilla/5.0 (compatible; scrapboard/1.0; +https://github.com/aktagon/scrapboard)"
)

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// PageFetcher is the transport shared by the network-bound strategies.
// When proxyURL is set every request goes to proxyURL + escaped target,
// the raw pass-through form used by CORS relays.
type PageFetcher struct {
	client    *http.Client
	proxyURL  string
	userAgent string
}

// NewPageFetcher creates a fetcher from the fetch settings
func NewPageFetcher(settings FetchSettings) *PageFetcher {
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	ua := settings.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &PageFetcher{
		client:    &http.Client{Timeout: timeout},
		proxyURL:  settings.ProxyURL,
		userAgent: ua,
	}
}

func (f *PageFetcher) target(rawURL string) string {
	if f.proxyURL == "" {
		return rawURL
	}
	return f.proxyURL + url.QueryEscape(rawURL)
}

// Fetch GETs rawURL and returns at most maxPageBytes of the body. Non-200
// responses are reported as *HTTPError.
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.target(rawURL), nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	debugLog("fetch %s: status=%d content-type=%q", rawURL, resp.StatusCode, resp.Header.Get("Content-Type"))

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}

// FetchJSON GETs rawURL and decodes the JSON body into dst
func (f *PageFetcher) FetchJSON(ctx context.Context, rawURL string, dst any) error {
	body, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decoding JSON from %s: %w", rawURL, err)
	}
	return nil
}
