// Package fetch implements the caching HTTP fetch client used by the
// resolver and upstream API lookups.
//
// Every fetch goes through the same pipeline: URL validation against the
// host allow-list, a read-through cache check, bounded retries with jittered
// backoff, response body validation, and a best-effort write-through to the
// cache. When every network attempt fails, an expired cache entry is served
// as a last resort rather than returning an error ("better stale than
// nothing").
//
// All methods are safe for concurrent use by multiple goroutines.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"relnotes/pkg/cache"
	"relnotes/pkg/errors"
	"relnotes/pkg/httputil"
	"relnotes/pkg/observability"
)

// maxBodySize caps response bodies. Release metadata and changelogs are
// small; anything larger is a sign we fetched the wrong thing.
const maxBodySize = 4 << 20

// Options configures a Client.
type Options struct {
	// Timeout is the overall per-request deadline. Zero means 10s.
	Timeout time.Duration

	// ConnectTimeout bounds the TCP dial. Zero means 5s.
	ConnectTimeout time.Duration

	// MaxRetries is the maximum attempts per URL, including the first.
	// Zero means 3.
	MaxRetries int

	// BackoffUnit is the base retry delay unit. Zero means one second.
	BackoffUnit time.Duration

	// Headers are applied to every request (e.g. Accept, Authorization).
	Headers map[string]string

	// Logger receives retry and degradation warnings. Nil means the
	// package default logger.
	Logger *log.Logger
}

// Client performs validated, cached, retried HTTP GETs.
type Client struct {
	http    *http.Client
	store   cache.Store
	policy  httputil.RetryPolicy
	headers map[string]string
	logger  *log.Logger
}

// NewClient creates a fetch client backed by the given cache store.
// Pass cache.NewNullStore() to disable caching.
func NewClient(store cache.Store, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.BackoffUnit <= 0 {
		opts.BackoffUnit = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: opts.ConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout: opts.ConnectTimeout,
	}

	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		store: store,
		policy: httputil.RetryPolicy{
			Attempts: opts.MaxRetries,
			Unit:     opts.BackoffUnit,
		},
		headers: opts.Headers,
		logger:  logger,
	}
}

// Fetch retrieves url and validates the body as JSON. Upstream error
// payloads (a "message" accompanied by a "documentation_url", the shape
// GitHub uses for errors and rate-limit notices) are treated as failures
// even when the request returned HTTP 200.
//
// Returns the raw body on success. Error codes: INVALID_URL for rejected
// URLs (no network call made), NOT_FOUND for 404s, RETRIES_EXHAUSTED when
// every attempt and the stale fallback failed.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	return c.fetch(ctx, url, validateJSONBody)
}

// FetchText retrieves url without JSON validation, for scraping HTML or
// markdown. URL validation, retries, caching, and the stale fallback all
// apply identically to [Client.Fetch].
func (c *Client) FetchText(ctx context.Context, url string) ([]byte, error) {
	return c.fetch(ctx, url, func([]byte) error { return nil })
}

// FetchJSON retrieves url and decodes the validated body into v.
func (c *Client) FetchJSON(ctx context.Context, url string, v any) error {
	data, err := c.Fetch(ctx, url)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (c *Client) fetch(ctx context.Context, url string, validateBody func([]byte) error) ([]byte, error) {
	start := time.Now()
	data, err := c.doFetch(ctx, url, validateBody)
	observability.Fetch().OnResult(ctx, url, time.Since(start), err)
	return data, err
}

func (c *Client) doFetch(ctx context.Context, url string, validateBody func([]byte) error) ([]byte, error) {
	// Reject bad URLs before any I/O, cache included.
	if err := httputil.ValidateURL(url); err != nil {
		return nil, err
	}

	key := cache.Key(url)

	// Read-through: a fresh cached entry that passes the same body
	// validation short-circuits the network entirely.
	if data, ok, err := c.store.Get(ctx, key); err == nil && ok {
		if validateBody(data) == nil {
			observability.Cache().OnHit(ctx, key)
			return data, nil
		}
	}
	observability.Cache().OnMiss(ctx, key)

	var body []byte
	attempt := 0
	policy := c.policy
	policy.OnRetry = func(next int, delay time.Duration, err error) {
		c.logger.Warn("retrying fetch",
			"url", url,
			"attempt", next,
			"delay", delay.Round(time.Millisecond),
			"class", httputil.Classify(err),
			"err", err)
	}

	retryErr := httputil.Retry(ctx, policy, func() error {
		attempt++
		observability.Fetch().OnAttempt(ctx, url, attempt)

		data, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		if err := validateBody(data); err != nil {
			// A clean HTTP response with a bad body (rate-limit
			// notice, upstream error marker) is still a failure.
			return &httputil.RetryableError{Err: err}
		}
		body = data
		return nil
	})

	if retryErr == nil {
		// Write-through is best-effort: a payload is still useful when
		// caching fails.
		if err := c.store.Set(ctx, key, body); err != nil {
			c.logger.Warn("cache write failed", "url", url, "err", err)
		} else {
			observability.Cache().OnSet(ctx, key, len(body))
		}
		return body, nil
	}

	// Non-retryable outcomes (404, unexpected status, cancellation) are
	// not "exhausted retries" and never degrade to stale data.
	if !httputil.IsRetryable(retryErr) {
		return nil, retryErr
	}

	// All attempts exhausted: serve a stale entry if one exists.
	if data, ok, err := c.store.GetStale(ctx, key); err == nil && ok {
		if validateBody(data) == nil {
			c.logger.Warn("serving stale cache entry", "url", url, "err", retryErr)
			observability.Fetch().OnStaleServed(ctx, url)
			return data, nil
		}
	}

	return nil, errors.Wrap(errors.ErrCodeExhausted, retryErr, "all %d attempts failed for %s", policy.Attempts, url)
}

func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidURL, err, "cannot build request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		class := httputil.Classify(err)
		wrapped := errors.Wrap(networkCode(class), err, "%s failure", class)
		return nil, &httputil.RetryableError{Err: wrapped}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		wrapped := errors.Wrap(errors.ErrCodeNetwork, err, "reading response body")
		return nil, &httputil.RetryableError{Err: wrapped}
	}
	return data, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "resource not found")
	case code == http.StatusForbidden || code == http.StatusTooManyRequests:
		retryAfter := 0
		if v := resp.Header.Get("Retry-After"); v != "" {
			fmt.Sscanf(v, "%d", &retryAfter)
		}
		return &httputil.RetryableError{Err: &errors.RateLimitedError{RetryAfter: retryAfter}}
	case code >= 500:
		return &httputil.RetryableError{Err: errors.New(errors.ErrCodeNetwork, "server error: status %d", code)}
	default:
		return errors.New(errors.ErrCodeNetwork, "unexpected status %d", code)
	}
}

func networkCode(class httputil.ErrorClass) errors.Code {
	if class == httputil.ClassTimeout {
		return errors.ErrCodeTimeout
	}
	return errors.ErrCodeNetwork
}

// validateJSONBody checks that a payload parses as JSON and does not carry
// an upstream error marker. GitHub (and compatible APIs) report errors and
// rate limits as 200-shaped JSON objects with "message" and
// "documentation_url" fields.
func validateJSONBody(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "response is not valid JSON")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	msg, hasMsg := obj["message"].(string)
	_, hasDoc := obj["documentation_url"]
	if hasMsg && hasDoc {
		return errors.New(errors.ErrCodeRateLimited, "upstream error payload: %s", msg)
	}
	return nil
}
