package apifootball

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mpavlovic/tiketbot/internal/pkg/config"
)

// Backoff ceilings, matching the provider's sensitivity to 429s.
const (
	rateLimitBackoffCap = 30 * time.Second
	transientBackoffCap = 15 * time.Second
)

// Client is a resilient GET layer over the odds provider's HTTP API.
// All callers share one rate-limiter gate and one run-scoped response cache,
// so concurrent use never exceeds the configured request rate and identical
// requests are issued at most once per run.
type Client struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	retryMax int

	minDelay time.Duration
	jitter   time.Duration

	mu       sync.Mutex
	nextCall time.Time

	cache *responseCache

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a client from config. The API key is sent in the
// x-apisports-key header on every request.
func NewClient(cfg *config.APIFootballConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	retryMax := cfg.RetryMax
	if retryMax <= 0 {
		retryMax = config.DefaultRetryMax
	}
	return &Client{
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
		retryMax: retryMax,
		minDelay: cfg.RateLimitDelay,
		jitter:   cfg.RateLimitJitter,
		cache:    newResponseCache(),
		sleep:    sleepCtx,
	}
}

// CachedResponses reports how many distinct requests were served this run.
func (c *Client) CachedResponses() int {
	return c.cache.len()
}

// get fetches path with params, going through the cache first. The returned
// payload is the raw "response" array of the API envelope.
func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	key := cacheKey(path, params)
	return c.cache.do(key, func() (json.RawMessage, error) {
		return c.fetch(ctx, path, params)
	})
}

// cacheKey derives a stable key from the path and sorted parameters.
func cacheKey(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode() // Encode sorts by key
}

// fetch issues the request with rate limiting and bounded retries.
// 429 responses back off with a higher ceiling than other transient
// failures; non-retryable statuses abort immediately.
func (c *Client) fetch(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.retryMax; attempt++ {
		if err := c.waitTurn(ctx); err != nil {
			return nil, err
		}

		body, rateLimited, err := c.once(ctx, u)
		if err == nil {
			return body, nil
		}
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			return nil, err
		}
		lastErr = err

		if attempt == c.retryMax-1 {
			break
		}
		backoff := backoffDelay(attempt, rateLimited)
		slog.Warn("api-football request failed, retrying",
			"path", path, "attempt", attempt+1, "backoff", backoff, "error", err)
		if err := c.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("GET %s failed after %d attempts: %w", path, c.retryMax, lastErr)
}

// once performs a single HTTP round trip. The bool result reports whether
// the failure was a 429 (rate limit), which uses the higher backoff ceiling.
func (c *Client) once(ctx context.Context, u string) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-apisports-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return nil, true, &TransientError{Status: resp.StatusCode, Err: fmt.Errorf("rate limited")}
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, false, &TransientError{Status: resp.StatusCode, Err: fmt.Errorf("server error")}
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, false, &UpstreamError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, false, &TransientError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if msg := envelopeError(env.Errors); msg != "" {
		// The API reports request problems inside a 200 envelope.
		return nil, false, &UpstreamError{Status: resp.StatusCode, Message: msg}
	}
	return env.Response, false, nil
}

// waitTurn blocks until this caller's slot in the shared request schedule.
// Each call reserves minDelay plus jitter after the previously reserved slot.
func (c *Client) waitTurn(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	slot := c.nextCall
	if slot.Before(now) {
		slot = now
	}
	delay := c.minDelay
	if c.jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(c.jitter)))
	}
	c.nextCall = slot.Add(delay)
	c.mu.Unlock()

	if wait := time.Until(slot); wait > 0 {
		return c.sleep(ctx, wait)
	}
	return nil
}

func backoffDelay(attempt int, rateLimited bool) time.Duration {
	d := time.Duration(1<<uint(attempt)) * time.Second
	ceiling := transientBackoffCap
	if rateLimited {
		ceiling = rateLimitBackoffCap
	}
	if d > ceiling {
		d = ceiling
	}
	return d
}

// envelopeError extracts a message from the "errors" field, which is an
// object when errors are present and an empty array otherwise.
func envelopeError(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil || len(m) == 0 {
		return ""
	}
	for k, v := range m {
		return k + ": " + v
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
