// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package upstream

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mailgun/holster/v4/clock"

	"github.com/tomtom215/dashfeed/internal/cache"
)

type fakeProvider struct {
	calls   atomic.Int32
	ttl     int64
	err     error
	release chan struct{}
}

func (p *fakeProvider) Token(context.Context) (Token, error) {
	n := p.calls.Add(1)
	if p.release != nil {
		<-p.release
	}
	if p.err != nil {
		return Token{}, p.err
	}
	return Token{AccessToken: fmt.Sprintf("tok-%d", n), ExpiresIn: p.ttl}, nil
}

func TestClientCredentialsProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		if gt := r.PostForm.Get("grant_type"); gt != "client_credentials" {
			t.Errorf("grant_type = %q", gt)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"abc","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	p := NewClientCredentialsProvider("id", "secret", server.URL, []string{"analytics.readonly"}, server.Client())
	tok, err := p.Token(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tok.AccessToken != "abc" || tok.TokenType != "Bearer" {
		t.Errorf("Token() = %+v", tok)
	}
	if math.Abs(float64(tok.ExpiresIn-3600)) > 2 {
		t.Errorf("ExpiresIn = %d, want about 3600", tok.ExpiresIn)
	}
}

func TestClientCredentialsProvider_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer server.Close()

	p := NewClientCredentialsProvider("id", "wrong", server.URL, nil, nil)
	_, err := p.Token(context.Background())
	if err == nil || !strings.Contains(err.Error(), "client credentials grant") {
		t.Errorf("Token() error = %v", err)
	}
}

func TestRefreshTokenProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		for k, want := range map[string]string{"grant_type": "refresh_token", "refresh_token": "rt", "client_id": "id"} {
			if got := r.PostForm.Get(k); got != want {
				t.Errorf("%s = %q, want %q", k, got, want)
			}
		}
		w.Write([]byte(`{"access_token":"fresh","expires_in":1800}`))
	}))
	defer server.Close()

	p := NewRefreshTokenProvider(New(Options{Integration: "analytics-token", BaseURL: server.URL}), "id", "secret", "rt")
	tok, err := p.Token(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := (Token{AccessToken: "fresh", ExpiresIn: 1800}); tok != want {
		t.Errorf("Token() = %+v, want %+v", tok, want)
	}
}

func TestRefreshTokenProvider_EmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"expires_in":1800}`))
	}))
	defer server.Close()

	p := NewRefreshTokenProvider(New(Options{Integration: "analytics-token-empty", BaseURL: server.URL}), "id", "secret", "rt")
	if _, err := p.Token(context.Background()); !errors.Is(err, ErrEmptyToken) {
		t.Errorf("Token() error = %v, want ErrEmptyToken", err)
	}
}

// mustToken fails the test on an AccessToken error.
func mustToken(t *testing.T, src *CachedTokenSource) string {
	t.Helper()
	tok, err := src.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken() error = %v", err)
	}
	return tok
}

func TestCachedTokenSource_CachesForExpiresIn(t *testing.T) {
	defer clock.Freeze(clock.Now()).Unfreeze()

	store := cache.NewMemoryStore("test")
	defer store.Close()
	p := &fakeProvider{ttl: 3600}
	src := NewCachedTokenSource("analytics", store, "analytics:oauth:token", p)

	if tok := mustToken(t, src); tok != "tok-1" {
		t.Errorf("first token = %s", tok)
	}

	clock.Advance(59 * time.Minute)
	if tok := mustToken(t, src); tok != "tok-1" {
		t.Errorf("token should be served from the store, got %s", tok)
	}
	if n := p.calls.Load(); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}

	clock.Advance(time.Minute)
	if tok := mustToken(t, src); tok != "tok-2" {
		t.Errorf("expired token should be refetched, got %s", tok)
	}
	if n := p.calls.Load(); n != 2 {
		t.Errorf("provider calls = %d, want 2", n)
	}
}

func TestCachedTokenSource_Invalidate(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore("test")
	defer store.Close()
	p := &fakeProvider{ttl: 3600}
	src := NewCachedTokenSource("analytics", store, "k", p)

	mustToken(t, src)
	src.Invalidate(ctx)
	if tok := mustToken(t, src); tok != "tok-2" {
		t.Errorf("token after Invalidate = %s, want tok-2", tok)
	}
}

func TestCachedTokenSource_ZeroExpiryNotCached(t *testing.T) {
	store := cache.NewMemoryStore("test")
	defer store.Close()
	p := &fakeProvider{}
	src := NewCachedTokenSource("analytics", store, "k", p)

	mustToken(t, src)
	mustToken(t, src)
	if n := p.calls.Load(); n != 2 {
		t.Errorf("provider calls = %d, want 2", n)
	}
}

func TestCachedTokenSource_ProviderError(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore("test")
	defer store.Close()
	boom := errors.New("token endpoint down")
	src := NewCachedTokenSource("analytics", store, "k", &fakeProvider{err: boom, ttl: 60})

	if _, err := src.AccessToken(ctx); !errors.Is(err, boom) {
		t.Errorf("AccessToken() error = %v, want %v", err, boom)
	}

	_, ok, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("failures must not be cached")
	}
}

func TestCachedTokenSource_CollapsesConcurrentFetches(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore("test")
	defer store.Close()
	p := &fakeProvider{ttl: 3600, release: make(chan struct{})}
	src := NewCachedTokenSource("analytics", store, "k", p)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = src.AccessToken(ctx)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(p.release)
	wg.Wait()

	if n := p.calls.Load(); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}
	for i, r := range results {
		if r != "tok-1" {
			t.Errorf("results[%d] = %q, want tok-1", i, r)
		}
	}
}

func TestClient_UnauthorizedInvalidatesBearerToken(t *testing.T) {
	store := cache.NewMemoryStore("test")
	defer store.Close()
	src := NewCachedTokenSource("analytics", store, "k", &fakeProvider{ttl: 3600})

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(Options{Integration: "analytics-401", BaseURL: server.URL, Auth: BearerAuth{Source: src}})
	if _, err := c.Do(context.Background(), "/v3/data/ga", nil); err != nil {
		t.Fatal(err)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("server hits = %d, want 2", n)
	}
}
