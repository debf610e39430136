// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package upstream

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type staticToken string

func (s staticToken) AccessToken(context.Context) (string, error) { return string(s), nil }

func newTestClient(t *testing.T, h http.HandlerFunc, opts Options) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	opts.BaseURL = server.URL
	if opts.Integration == "" {
		opts.Integration = "test-" + strings.ReplaceAll(t.Name(), "/", "-")
	}
	if opts.RetryBaseDelay == 0 {
		opts.RetryBaseDelay = 10 * time.Millisecond
	}
	return New(opts), server
}

func TestClient_BasicAuthAndQuery(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "acc_token" || pass != "sec_key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/v1/customers" {
			t.Errorf("path = %q, want /v1/customers", r.URL.Path)
		}
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("status") != "Active" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"entries":[],"has_more":false}`))
	}, Options{Auth: BasicAuth{Username: "acc_token", Password: "sec_key"}})

	body, err := c.Do(context.Background(), "/v1/customers", map[string]string{"page": "2", "status": "Active"})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if string(body) != `{"entries":[],"has_more":false}` {
		t.Errorf("body = %s", body)
	}
	if c.BreakerState() != "closed" {
		t.Errorf("BreakerState() = %q, want closed", c.BreakerState())
	}
}

func TestClient_QueryToken(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_token") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("start") != "100" {
			t.Errorf("start param lost: %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{}`))
	}, Options{Auth: QueryToken{Param: "api_token", Token: "tok"}})

	if _, err := c.Do(context.Background(), "v1/deals", map[string]string{"start": "100"}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
}

func TestClient_BearerAuth(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}, Options{Auth: BearerAuth{Source: staticToken("abc")}})

	if _, err := c.Do(context.Background(), "/v3/data/ga", nil); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
}

func TestClient_NonOKReturnsError(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no such plan"}`))
	}, Options{Integration: "billing-404"})

	_, err := c.Do(context.Background(), "/v1/plans", nil)
	var uerr *Error
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if uerr.StatusCode != http.StatusNotFound || uerr.Integration != "billing-404" || uerr.Endpoint != "/v1/plans" {
		t.Errorf("Error = %+v", uerr)
	}
	if !strings.Contains(string(uerr.Body), "no such plan") {
		t.Errorf("Body = %s", uerr.Body)
	}
	if uerr.Temporary() {
		t.Error("404 should not be temporary")
	}
}

func TestClient_HTTP429ExponentialBackoff(t *testing.T) {
	t.Parallel()
	var attempts atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}, Options{RetryBaseDelay: 20 * time.Millisecond})

	start := time.Now()
	if _, err := c.Do(context.Background(), "/x", nil); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if n := attempts.Load(); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}
	// 20ms + 40ms
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("elapsed = %v, want >= 60ms of backoff", elapsed)
	}
}

func TestClient_HTTP429RetryAfter(t *testing.T) {
	t.Parallel()
	var attempts atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}, Options{RetryBaseDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.Do(ctx, "/x", nil); err != nil {
		t.Fatalf("Retry-After: 0 should retry immediately, got %v", err)
	}
}

func TestClient_HTTP429Exhausted(t *testing.T) {
	t.Parallel()
	var attempts atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}, Options{MaxRetries: 2})

	_, err := c.Do(context.Background(), "/x", nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("error = %v, want ErrRateLimited", err)
	}
	var uerr *Error
	if !errors.As(err, &uerr) || uerr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("error should wrap the 429 *Error, got %v", err)
	}
	if n := attempts.Load(); n != 3 {
		t.Errorf("attempts = %d, want 3 (1 + 2 retries)", n)
	}
}

func TestClient_NoRetries(t *testing.T) {
	t.Parallel()
	var attempts atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, Options{MaxRetries: -1})

	if _, err := c.Do(context.Background(), "/x", nil); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("error = %v, want ErrRateLimited", err)
	}
	if n := attempts.Load(); n != 1 {
		t.Errorf("attempts = %d, want 1", n)
	}
}

func TestClient_ContextCancelDuringBackoff(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, Options{RetryBaseDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Do(ctx, "/x", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestClient_CircuitBreakerOpens(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, Options{})

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if _, err := c.Do(ctx, "/x", nil); err == nil {
			t.Fatal("expected error from 502")
		}
	}

	_, err := c.Do(ctx, "/x", nil)
	if !IsUnavailable(err) {
		t.Fatalf("error = %v, want open breaker", err)
	}
	if n := hits.Load(); n != 10 {
		t.Errorf("server hits = %d, want 10 (11th rejected locally)", n)
	}
	if c.BreakerState() != "open" {
		t.Errorf("BreakerState() = %q, want open", c.BreakerState())
	}
}

func TestClient_ClientErrorsDoNotTrip(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}, Options{})

	for i := 0; i < 15; i++ {
		_, err := c.Do(context.Background(), "/x", nil)
		if IsUnavailable(err) {
			t.Fatalf("breaker opened on 4xx at call %d", i)
		}
	}
	if n := hits.Load(); n != 15 {
		t.Errorf("server hits = %d, want 15", n)
	}
}

func TestClient_PostForm(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("grant_type") != "refresh_token" {
			t.Errorf("form = %v", r.PostForm)
		}
		if r.URL.Path != "/" && r.URL.Path != "" {
			t.Errorf("empty endpoint should hit base URL, got %q", r.URL.Path)
		}
		w.Write([]byte(`{"access_token":"x"}`))
	}, Options{})

	body, err := c.PostForm(context.Background(), "", map[string][]string{"grant_type": {"refresh_token"}})
	if err != nil {
		t.Fatalf("PostForm() error = %v", err)
	}
	if !bytes.Contains(body, []byte("access_token")) {
		t.Errorf("body = %s", body)
	}
}

func TestClient_RateLimiter(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}, Options{RateLimitPerSecond: 20})

	start := time.Now()
	for i := 0; i < 25; i++ {
		if _, err := c.Do(context.Background(), "/x", nil); err != nil {
			t.Fatal(err)
		}
	}
	// burst of 20, then 5 more at 50ms each
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("elapsed = %v, limiter did not throttle", elapsed)
	}
}

func TestReadBodyForError(t *testing.T) {
	t.Parallel()

	small := readBodyForError(strings.NewReader("oops"))
	if string(small) != "oops" {
		t.Errorf("readBodyForError() = %q", small)
	}

	big := readBodyForError(bytes.NewReader(bytes.Repeat([]byte("a"), 2*maxErrorBodySize)))
	if !bytes.HasSuffix(big, []byte("(truncated)")) {
		t.Error("large body should be marked truncated")
	}
	if len(big) > maxErrorBodySize+32 {
		t.Errorf("len = %d, body not limited", len(big))
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"", 0, false},
		{"3", 3 * time.Second, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"soon", 0, false},
		{"Mon, 02 Jan 2006 15:04:05 GMT", 0, true},
	}
	for _, tt := range tests {
		got, ok := parseRetryAfter(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
