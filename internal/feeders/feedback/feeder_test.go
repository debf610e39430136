// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feedback

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/mailgun/holster/v4/clock"

	"github.com/tomtom215/dashfeed/internal/cache"
	"github.com/tomtom215/dashfeed/internal/config"
	"github.com/tomtom215/dashfeed/internal/feeder"
)

func newTestFeeder(t *testing.T, perPage int, h http.HandlerFunc) (*Feeder, *atomic.Int32) {
	t.Helper()
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if user, _, ok := r.BasicAuth(); !ok || user != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	store := cache.NewMemoryStore("responses")
	t.Cleanup(func() { _ = store.Close() })

	return NewFromConfig(config.FeedbackConfig{
		URL:      srv.URL,
		APIKey:   "key",
		Timeout:  5 * time.Second,
		PerPage:  perPage,
		MaxPages: 10,
	}, store), hits
}

func encode(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode: %v", err)
	}
}

func TestNPS(t *testing.T) {
	r := feeder.Range{
		From: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
	}
	currentSince := strconv.FormatInt(r.From.Unix(), 10)

	f, hits := newTestFeeder(t, 0, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != metricsEndpoint {
			t.Errorf("path = %s, want %s", req.URL.Path, metricsEndpoint)
		}
		if req.URL.Query().Get("since") == currentSince {
			encode(t, w, Score{NPS: 42.5, PromoterCount: 60, PassiveCount: 25, DetractorCount: 15, ResponseCount: 100})
			return
		}
		encode(t, w, Score{NPS: 30, ResponseCount: 80})
	})

	got, err := f.NPS(context.Background(), r)
	if err != nil {
		t.Fatal(err)
	}
	if got.Current.NPS != 42.5 || got.Current.ResponseCount != 100 {
		t.Errorf("Current = %+v", got.Current)
	}
	if got.Previous.NPS != 30 || got.Change != 12.5 {
		t.Errorf("Previous = %+v, Change = %v", got.Previous, got.Change)
	}

	if _, err := f.NPS(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("upstream hits = %d, want 2; the second call is served from cache", n)
	}
}

func TestRecentComments(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	defer clock.Freeze(now).Unfreeze()

	at := func(hoursAgo int) int64 { return now.Add(-time.Duration(hoursAgo) * time.Hour).Unix() }
	pages := map[string][]map[string]any{
		"1": {
			{"id": "r1", "score": 10, "comment": "Love it", "created_at": at(50)},
			{"id": "r2", "score": 9, "comment": "", "created_at": at(1)},
			{"id": "r3", "score": 3, "comment": "Too slow", "created_at": at(5)},
		},
		"2": {
			{"id": "r4", "score": 7, "comment": "   ", "created_at": at(2)},
			{"id": "r5", "score": 8, "comment": "Nice UI", "created_at": at(30)},
			{"id": "r6", "score": 6, "created_at": at(3)},
		},
		"3": {
			{"id": "r7", "score": 10, "comment": "Best tool", "created_at": at(4)},
		},
	}
	wantSince := strconv.FormatInt(now.Add(-commentWindow).Unix(), 10)

	f, hits := newTestFeeder(t, 3, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if req.URL.Path != responsesEndpoint || q.Get("per_page") != "3" || q.Get("since") != wantSince {
			t.Errorf("unexpected request %s", req.URL)
		}
		encode(t, w, pages[q.Get("page")])
	})

	got, err := f.RecentComments(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.ID
	}
	if want := []string{"r7", "r3", "r5"}; !slices.Equal(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("upstream hits = %d, want 3", n)
	}

	// Full pages are cached, the partial last page is not.
	all, err := f.RecentComments(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("len = %d, want 4", len(all))
	}
	if n := hits.Load(); n != 4 {
		t.Errorf("upstream hits = %d, want 4", n)
	}
}

func TestRecentCommentsEmpty(t *testing.T) {
	f, hits := newTestFeeder(t, 3, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	got, err := f.RecentComments(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("RecentComments() = %#v, want a non-nil empty slice", got)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("upstream hits = %d, want 1", n)
	}
}

func TestRecentCommentsInvalidLimit(t *testing.T) {
	f, hits := newTestFeeder(t, 3, func(http.ResponseWriter, *http.Request) {})

	if _, err := f.RecentComments(context.Background(), 0); !errors.Is(err, feeder.ErrInvalidArgument) {
		t.Errorf("RecentComments(0) error = %v, want ErrInvalidArgument", err)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("upstream hits = %d, want 0", n)
	}
}

func TestJobs(t *testing.T) {
	f, _ := newTestFeeder(t, 0, func(http.ResponseWriter, *http.Request) {})
	if n := len(f.Jobs()); n != 2 {
		t.Errorf("Jobs() = %d, want 2", n)
	}
	if f.perPage != defaultPerPage {
		t.Errorf("perPage = %d, want %d", f.perPage, defaultPerPage)
	}
}
