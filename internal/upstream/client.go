// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/dashfeed/internal/logging"
	"github.com/tomtom215/dashfeed/internal/metrics"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 5
	defaultRetryBaseDelay = time.Second
)

// Options configures a Client.
type Options struct {
	// Integration names the client in logs, metrics and errors.
	Integration string
	BaseURL     string
	Auth        Authenticator

	Timeout time.Duration

	// RateLimitPerSecond caps outbound requests; zero disables the limiter.
	RateLimitPerSecond float64

	// MaxRetries bounds retries after HTTP 429. Negative disables retries.
	MaxRetries     int
	RetryBaseDelay time.Duration

	// HTTPClient overrides the default client; Timeout is then ignored.
	HTTPClient *http.Client
}

// Client talks to one upstream integration.
//
// Thread Safety: safe for concurrent use.
type Client struct {
	integration    string
	baseURL        string
	auth           Authenticator
	http           *http.Client
	limiter        *rate.Limiter
	cb             *gobreaker.CircuitBreaker[[]byte]
	maxRetries     int
	retryBaseDelay time.Duration
}

// New builds a Client from opts.
func New(opts Options) *Client {
	c := &Client{
		integration:    opts.Integration,
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		auth:           opts.Auth,
		http:           opts.HTTPClient,
		maxRetries:     opts.MaxRetries,
		retryBaseDelay: opts.RetryBaseDelay,
	}
	if c.auth == nil {
		c.auth = noAuth{}
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	switch {
	case c.maxRetries == 0:
		c.maxRetries = defaultMaxRetries
	case c.maxRetries < 0:
		c.maxRetries = 0
	}
	if c.retryBaseDelay <= 0 {
		c.retryBaseDelay = defaultRetryBaseDelay
	}
	if opts.RateLimitPerSecond > 0 {
		burst := int(opts.RateLimitPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitPerSecond), burst)
	}
	c.cb = newBreaker(opts.Integration + "-api")
	return c
}

// Integration returns the integration name.
func (c *Client) Integration() string { return c.integration }

// BreakerState returns "closed", "half-open" or "open".
func (c *Client) BreakerState() string { return stateToString(c.cb.State()) }

// Do issues a GET for endpoint with params and returns the raw body.
func (c *Client) Do(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return c.execute(ctx, http.MethodGet, endpoint, q, nil)
}

// PostForm issues a form-encoded POST, as token endpoints expect.
func (c *Client) PostForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	return c.execute(ctx, http.MethodPost, endpoint, nil, form)
}

func (c *Client) execute(ctx context.Context, method, endpoint string, query, form url.Values) ([]byte, error) {
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, endpoint, query, form)
	})
	c.recordBreaker(err)
	return body, err
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, query, form url.Values) ([]byte, error) {
	start := time.Now()
	resp, err := c.doRequestWithRateLimit(ctx, endpoint, func() (*http.Request, error) {
		return c.newRequest(ctx, method, endpoint, query, form)
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("integration", c.integration).
			Str("endpoint", endpoint).
			Msg("[UPSTREAM] request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		uerr := &Error{
			Integration: c.integration,
			Endpoint:    endpoint,
			StatusCode:  resp.StatusCode,
			Body:        readBodyForError(resp.Body),
		}
		logging.Ctx(ctx).Warn().
			Str("integration", c.integration).
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Dur("duration", time.Since(start)).
			Msg("[UPSTREAM] non-2xx response")
		return nil, uerr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", c.integration, endpoint, err)
	}
	logging.Ctx(ctx).Debug().
		Str("integration", c.integration).
		Str("endpoint", endpoint).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("[UPSTREAM] request complete")
	return body, nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query, form url.Values) (*http.Request, error) {
	reqURL := c.baseURL
	if endpoint != "" {
		reqURL += "/" + strings.TrimLeft(endpoint, "/")
	}

	var body io.Reader = http.NoBody
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if err := c.auth.Apply(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// doRequestWithRateLimit sends the request built by newReq, waiting on the
// client-side limiter first. HTTP 429 is retried with exponential backoff
// (1s, 2s, 4s, ...) unless the server sends Retry-After. A 401 on a bearer
// token invalidates the token and retries once.
func (c *Client) doRequestWithRateLimit(ctx context.Context, endpoint string, newReq func() (*http.Request, error)) (*http.Response, error) {
	reauthed := false
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%s rate limiter: %w", c.integration, err)
			}
		}

		req, err := newReq()
		if err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			metrics.RecordUpstreamRequest(c.integration, endpoint, 0, time.Since(start))
			return nil, fmt.Errorf("%s %s: HTTP request failed: %w", c.integration, endpoint, err)
		}
		metrics.RecordUpstreamRequest(c.integration, endpoint, resp.StatusCode, time.Since(start))

		if resp.StatusCode == http.StatusUnauthorized && !reauthed {
			if inv, ok := c.auth.(invalidator); ok {
				_ = resp.Body.Close()
				inv.Invalidate(ctx)
				reauthed = true
				continue
			}
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		if attempt >= c.maxRetries {
			uerr := &Error{
				Integration: c.integration,
				Endpoint:    endpoint,
				StatusCode:  resp.StatusCode,
				Body:        readBodyForError(resp.Body),
			}
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%w after %d retries: %w", ErrRateLimited, c.maxRetries, uerr)
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if d, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
			delay = d
		}
		_ = resp.Body.Close()

		metrics.UpstreamRetries.WithLabelValues(c.integration).Inc()
		logging.Ctx(ctx).Debug().
			Str("integration", c.integration).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("[UPSTREAM] rate limited, backing off")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP date (RFC 9110).
func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

type invalidator interface {
	Invalidate(ctx context.Context)
}

// Invalidate forwards to the token source when it caches tokens.
func (a BearerAuth) Invalidate(ctx context.Context) {
	if inv, ok := a.Source.(invalidator); ok {
		inv.Invalidate(ctx)
	}
}

// countsAsFailure decides what trips the breaker: transport errors, 5xx and
// exhausted 429 retries. Client errors and caller cancellation do not.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var uerr *Error
	if errors.As(err, &uerr) {
		return uerr.Temporary()
	}
	return true
}
