// Package formatlibrary is the HTTP client for the Format Library API:
// the event gallery, per-event detail, deck payloads, and banlists. It
// owns throttling and bounded retries so callers only ever see terminal
// success or failure.
package formatlibrary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the production Format Library host.
	DefaultBaseURL = "https://formatlibrary.com"

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 20 * time.Second

	// DefaultMaxRetries is the per-request attempt budget.
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the base wait between attempts; the wait
	// grows linearly with the attempt number.
	DefaultRetryBackoff = 800 * time.Millisecond
)

// DefaultThrottle keeps the request rate under the remote limit.
var DefaultThrottle = rate.Every(400 * time.Millisecond)

// Config configures the Format Library client.
type Config struct {
	// BaseURL is the API host.
	BaseURL string

	// Format is the gallery format slug (e.g. "goat").
	Format string

	// Throttle controls request frequency.
	Throttle rate.Limit

	// RequestTimeout is the HTTP request timeout.
	RequestTimeout time.Duration

	// MaxRetries is the attempt budget per request.
	MaxRetries int

	// RetryBackoff is the base wait between attempts.
	RetryBackoff time.Duration

	// HTTPClient allows a custom HTTP client.
	HTTPClient *http.Client
}

// DefaultConfig returns the production defaults for a format.
func DefaultConfig(format string) *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		Format:         format,
		Throttle:       DefaultThrottle,
		RequestTimeout: DefaultTimeout,
		MaxRetries:     DefaultMaxRetries,
		RetryBackoff:   DefaultRetryBackoff,
	}
}

// Cache is an optional payload cache consulted before the network. A hit
// skips the fetch entirely; a miss stores the fetched body on success.
type Cache interface {
	Get(ctx context.Context, url string) ([]byte, bool, error)
	Put(ctx context.Context, url string, body []byte) error
}

// APIError is a terminal request failure after the retry budget.
type APIError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("formatlibrary: %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("formatlibrary: %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// Client fetches Format Library data with throttling and bounded retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	format     string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	cache      Cache
	logger     *slog.Logger
}

// NewClient creates a client. cache may be nil to always hit the network.
func NewClient(config *Config, cache Cache, logger *slog.Logger) *Client {
	if config == nil {
		config = DefaultConfig("goat")
	}
	if config.Throttle == 0 {
		config.Throttle = DefaultThrottle
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = DefaultTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = DefaultRetryBackoff
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.RequestTimeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    config.BaseURL,
		format:     config.Format,
		limiter:    rate.NewLimiter(config.Throttle, 1),
		maxRetries: config.MaxRetries,
		backoff:    config.RetryBackoff,
		cache:      cache,
		logger:     logger,
	}
}

// GalleryURL returns the gallery endpoint for provenance reporting.
func (c *Client) GalleryURL() string {
	return c.baseURL + "/api/events/gallery/" + c.format
}

// EventURLPattern returns the event endpoint template for provenance.
func (c *Client) EventURLPattern() string {
	return c.baseURL + "/api/events/{slug}"
}

// DeckURLPattern returns the deck endpoint template for provenance.
func (c *Client) DeckURLPattern() string {
	return c.baseURL + "/api/decks/{deck_id}"
}

// EventGallery fetches the event list for the configured format. The
// gallery body is either a bare list or an object with an "events" key.
func (c *Client) EventGallery(ctx context.Context) ([]GalleryEvent, error) {
	body, err := c.fetch(ctx, c.GalleryURL())
	if err != nil {
		return nil, err
	}
	return decodeGallery(body)
}

// decodeGallery accepts a bare event list or an object carrying an
// "events" list, where an explicit null list means zero events. Any
// other body, including a bare null, is an error so a bad gallery never
// passes for an empty format.
func decodeGallery(body []byte) ([]GalleryEvent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("unexpected gallery payload shape")
	}

	switch trimmed[0] {
	case '[':
		var events []GalleryEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("parse gallery: %w", err)
		}
		return events, nil
	case '{':
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("parse gallery: %w", err)
		}
		raw, ok := wrapped["events"]
		if !ok {
			return nil, fmt.Errorf("unexpected gallery payload shape")
		}
		if string(bytes.TrimSpace(raw)) == "null" {
			return []GalleryEvent{}, nil
		}
		var events []GalleryEvent
		if err := json.Unmarshal(raw, &events); err != nil {
			return nil, fmt.Errorf("parse gallery: %w", err)
		}
		return events, nil
	}

	return nil, fmt.Errorf("unexpected gallery payload shape")
}

// EventDetail fetches one event by slug.
func (c *Client) EventDetail(ctx context.Context, slug string) (*EventDetail, error) {
	body, err := c.fetch(ctx, c.baseURL+"/api/events/"+url.PathEscape(slug))
	if err != nil {
		return nil, err
	}

	var detail EventDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("parse event %s: %w", slug, err)
	}
	return &detail, nil
}

// DeckPayload fetches one deck's raw payload. The body is returned
// unparsed; shape detection is the deck parser's job.
func (c *Client) DeckPayload(ctx context.Context, deckID string) ([]byte, error) {
	return c.fetch(ctx, c.baseURL+"/api/decks/"+url.PathEscape(deckID))
}

// Banlist fetches a banlist payload by name and category.
func (c *Client) Banlist(ctx context.Context, banlist, category string) ([]byte, error) {
	u := fmt.Sprintf("%s/api/banlists/%s?category=%s",
		c.baseURL, url.PathEscape(banlist), url.QueryEscape(category))
	return c.fetch(ctx, u)
}

// fetch performs a throttled GET with bounded retries. Non-2xx responses
// and transport errors are retried with a fixed, attempt-scaled backoff;
// the final failure is terminal for the whole run.
func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, fullURL)
		if err != nil {
			c.logger.Warn("cache read failed", "url", fullURL, "error", err)
		} else if ok {
			return body, nil
		}
	}

	var lastStatus int
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &APIError{URL: fullURL, Err: err}
		}

		body, status, err := c.doRequest(ctx, fullURL)
		if err == nil && status >= 200 && status < 300 {
			if c.cache != nil {
				if err := c.cache.Put(ctx, fullURL, body); err != nil {
					c.logger.Warn("cache write failed", "url", fullURL, "error", err)
				}
			}
			return body, nil
		}
		lastStatus, lastErr = status, err

		if attempt < c.maxRetries {
			c.logger.Debug("fetch retry", "url", fullURL, "attempt", attempt, "status", status)
			select {
			case <-ctx.Done():
				return nil, &APIError{URL: fullURL, Err: ctx.Err()}
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
	}

	return nil, &APIError{URL: fullURL, StatusCode: lastStatus, Err: lastErr}
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "goatstats/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
