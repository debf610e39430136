// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feeder

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

// pagedSource serves pages[i] for page number start+i.
type pagedSource struct {
	start     int
	pages     [][]int
	requested []int
	failAt    int
}

func (s *pagedSource) fetch(_ context.Context, n int) (Page[int], error) {
	s.requested = append(s.requested, n)
	if s.failAt != 0 && n == s.failAt {
		return Page[int]{}, errors.New("upstream exploded")
	}
	i := n - s.start
	return Page[int]{Entries: s.pages[i], HasMore: i < len(s.pages)-1, PageNumber: n}, nil
}

func TestCollect_TerminatesAfterExactlyNPages(t *testing.T) {
	t.Parallel()
	src := &pagedSource{start: 1, pages: [][]int{{1, 2}, {3}, {4, 5, 6}}}

	got, err := Collect(context.Background(), CollectConfig{Integration: "test", StartPage: 1}, src.fetch, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1, 2, 3, 4, 5, 6}) {
		t.Errorf("Collect() = %v, want results in page order", got)
	}
	if !slices.Equal(src.requested, []int{1, 2, 3}) {
		t.Errorf("requested pages = %v, want exactly N fetches", src.requested)
	}
}

func TestCollect_StartPage(t *testing.T) {
	t.Parallel()
	src := &pagedSource{start: 5, pages: [][]int{{1}, {2}}}

	got, err := Collect(context.Background(), CollectConfig{StartPage: 5}, src.fetch, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1, 2}) || !slices.Equal(src.requested, []int{5, 6}) {
		t.Errorf("Collect() = %v, requested %v", got, src.requested)
	}
}

func TestCollect_Filters(t *testing.T) {
	t.Parallel()
	src := &pagedSource{start: 1, pages: [][]int{{1, 2, 3, 4}, {5, 6}}}

	even := func(n int) bool { return n%2 == 0 }
	got, err := Collect(context.Background(), CollectConfig{StartPage: 1}, src.fetch, even)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{2, 4, 6}) {
		t.Errorf("Collect() = %v, want [2 4 6]", got)
	}
}

func TestCollect_EmptyCollection(t *testing.T) {
	t.Parallel()
	src := &pagedSource{start: 1, pages: [][]int{{}}}

	got, err := Collect(context.Background(), CollectConfig{StartPage: 1}, src.fetch, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Collect() = %#v, want a non-nil empty slice", got)
	}
	if len(src.requested) != 1 {
		t.Errorf("requested = %v, want one page", src.requested)
	}
}

func TestCollect_PaginationOverrun(t *testing.T) {
	t.Parallel()
	var requested int
	endless := func(_ context.Context, n int) (Page[int], error) {
		requested++
		return Page[int]{Entries: []int{n}, HasMore: true, PageNumber: n}, nil
	}

	_, err := Collect(context.Background(), CollectConfig{Integration: "test", StartPage: 1, MaxPages: 3}, endless, nil)
	if !errors.Is(err, ErrPaginationOverrun) {
		t.Errorf("Collect() error = %v, want ErrPaginationOverrun", err)
	}
	if requested != 3 {
		t.Errorf("requested = %d, want 3", requested)
	}
}

func TestCollect_CapReachedExactlyIsNotOverrun(t *testing.T) {
	t.Parallel()
	src := &pagedSource{start: 1, pages: [][]int{{1}, {2}, {3}}}

	got, err := Collect(context.Background(), CollectConfig{StartPage: 1, MaxPages: 3}, src.fetch, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("Collect() = %v", got)
	}
}

func TestCollect_DefaultCap(t *testing.T) {
	t.Parallel()
	var requested int
	endless := func(_ context.Context, n int) (Page[int], error) {
		requested++
		return Page[int]{HasMore: true}, nil
	}

	_, err := Collect(context.Background(), CollectConfig{}, endless, nil)
	if !errors.Is(err, ErrPaginationOverrun) {
		t.Errorf("Collect() error = %v, want ErrPaginationOverrun", err)
	}
	if requested != DefaultMaxPages {
		t.Errorf("requested = %d, want %d", requested, DefaultMaxPages)
	}
}

func TestCollect_PageErrorStops(t *testing.T) {
	t.Parallel()
	src := &pagedSource{start: 1, pages: [][]int{{1}, {2}, {3}}, failAt: 2}

	_, err := Collect(context.Background(), CollectConfig{StartPage: 1}, src.fetch, nil)
	if err == nil || !strings.Contains(err.Error(), "page 2") {
		t.Errorf("Collect() error = %v, want it to name page 2", err)
	}
	if !slices.Equal(src.requested, []int{1, 2}) {
		t.Errorf("requested = %v", src.requested)
	}
}

func TestCollect_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	var requested int
	fetch := func(_ context.Context, n int) (Page[int], error) {
		requested++
		cancel()
		return Page[int]{HasMore: true}, nil
	}

	_, err := Collect(ctx, CollectConfig{StartPage: 1}, fetch, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Collect() error = %v, want context.Canceled", err)
	}
	if requested != 1 {
		t.Errorf("requested = %d, want 1", requested)
	}
}
