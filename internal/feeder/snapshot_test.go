// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feeder

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/dashfeed/internal/cache"
)

func TestSnapshot_PersistsThroughStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore(t)

	s := NewSnapshot[BestMetricState](store, "billing:net-movement:state")
	if got := s.Load(ctx); got != (BestMetricState{}) {
		t.Errorf("Load() on empty store = %+v", got)
	}

	want := BestMetricState{Best: 811.64, BestLabel: "2026-09-30", LastFetch: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}
	s.Save(ctx, want)
	if got := s.Load(ctx); got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	// A fresh instance (process restart) reloads from the store.
	got := NewSnapshot[BestMetricState](store, "billing:net-movement:state").Load(ctx)
	if got.Best != want.Best || got.BestLabel != want.BestLabel || !got.LastFetch.Equal(want.LastFetch) {
		t.Errorf("reloaded = %+v, want %+v", got, want)
	}

	raw, ok, err := store.Get(ctx, "billing:net-movement:state")
	if err != nil || !ok {
		t.Fatalf("store.Get() = %v, %v", ok, err)
	}
	if !strings.Contains(string(raw), `"best":811.64`) {
		t.Errorf("stored JSON = %s", raw)
	}
}

func TestSnapshot_StoreFailureKeepsMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := NewSnapshot[[]RankedItem](brokenStore{}, "k")
	if got := s.Load(ctx); got != nil {
		t.Errorf("Load() = %v, want nil", got)
	}
	s.Save(ctx, []RankedItem{{ID: "a", Total: 3}})
	if got := s.Load(ctx); len(got) != 1 {
		t.Errorf("Load() = %v, want one item", got)
	}
}

func TestSnapshot_NilStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := NewSnapshot[int](nil, "k")
	s.Save(ctx, 7)
	if got := s.Load(ctx); got != 7 {
		t.Errorf("Load() = %d, want 7", got)
	}
}

func TestSnapshot_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := cache.NewLFUStore("test", 10)

	s := NewSnapshot[int](store, "k")
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Load(ctx)
			s.Save(ctx, i)
		}(i)
	}
	wg.Wait()

	if v := s.Load(ctx); v < 0 || v >= 16 {
		t.Errorf("Load() = %d, want a saved value", v)
	}
}
