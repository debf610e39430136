// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feeder

import (
	"context"
	"errors"
	"maps"
	"sync/atomic"
	"testing"
	"time"
)

func TestPreviousMonthCutoff(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC+2", 2*3600)

	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2026, 10, 19, 15, 30, 0, 0, loc), time.Date(2026, 9, 1, 0, 0, 0, 0, loc)},
		{time.Date(2026, 1, 5, 0, 0, 0, 0, loc), time.Date(2025, 12, 1, 0, 0, 0, 0, loc)},
		{time.Date(2026, 3, 31, 23, 59, 0, 0, loc), time.Date(2026, 2, 1, 0, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		if got := PreviousMonthCutoff(tt.now); !tt.want.Equal(got) {
			t.Errorf("PreviousMonthCutoff(%v) = %v, want %v", tt.now, got, tt.want)
		}
	}
}

func TestStartOfMonthAndMonthToDate(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)

	if got, want := StartOfMonth(now), time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("StartOfMonth() = %v, want %v", got, want)
	}
	r := MonthToDate(now)
	if r.FromDate() != "2026-10-01" || r.ToDate() != "2026-10-19" {
		t.Errorf("MonthToDate() = %s..%s", r.FromDate(), r.ToDate())
	}
}

func TestRangePrevious(t *testing.T) {
	t.Parallel()
	r := Range{From: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC), Interval: "day"}

	if r.Days() != 19 {
		t.Errorf("Days() = %d, want 19", r.Days())
	}
	p := r.Previous()
	if p.Days() != 19 || p.FromDate() != "2026-09-12" || p.ToDate() != "2026-09-30" || p.Interval != "day" {
		t.Errorf("Previous() = %s..%s (%d days, %q)", p.FromDate(), p.ToDate(), p.Days(), p.Interval)
	}

	week := LastDays(time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC), 7)
	if week.FromDate() != "2026-10-13" {
		t.Errorf("LastDays(7).FromDate() = %s", week.FromDate())
	}
	if prev := week.Previous(); prev.FromDate() != "2026-10-06" || prev.ToDate() != "2026-10-12" {
		t.Errorf("LastDays(7).Previous() = %s..%s", prev.FromDate(), prev.ToDate())
	}
}

func TestFetchPeriods(t *testing.T) {
	t.Parallel()
	r := LastDays(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), 7)

	cmp, err := FetchPeriods(context.Background(), r, func(_ context.Context, rr Range, period string) (string, error) {
		return period + ":" + rr.FromDate(), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if cmp.Current != "current:2026-10-13" || cmp.Previous != "previous:2026-10-06" {
		t.Errorf("FetchPeriods() = %+v", cmp)
	}
}

func TestFetchPeriods_ErrorCancelsOther(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	var cancelled atomic.Bool

	_, err := FetchPeriods(context.Background(), Range{}, func(ctx context.Context, _ Range, period string) (int, error) {
		if period == "current" {
			return 0, boom
		}
		select {
		case <-ctx.Done():
			cancelled.Store(true)
		case <-time.After(2 * time.Second):
		}
		return 1, nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("FetchPeriods() error = %v, want boom", err)
	}
	if !cancelled.Load() {
		t.Error("the previous-period fetch was not cancelled")
	}
}

func TestPeriodExtras(t *testing.T) {
	t.Parallel()
	week := LastDays(time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local), 7)
	month := LastDays(time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local), 30)

	want := map[string]string{"period": "current", "days": "7"}
	if got := PeriodExtras(week, "current"); !maps.Equal(got, want) {
		t.Errorf("PeriodExtras() = %v, want %v", got, want)
	}

	a := Request{Endpoint: "/m", Params: map[string]string{"start-date": week.FromDate()}, KeyExtras: PeriodExtras(week, "current")}
	b := Request{Endpoint: "/m", Params: map[string]string{"start-date": month.FromDate()}, KeyExtras: PeriodExtras(month, "current")}
	if a.Key() == b.Key() {
		t.Errorf("7 and 30 day ranges share key %q", a.Key())
	}
}

func TestPercentChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cur, prev float64
		want      float64
	}{
		{150, 100, 50},
		{75, 100, -25},
		{4, 3, 33.3},
		{10, -10, 200},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := PercentChange(tt.cur, tt.prev); got != tt.want {
			t.Errorf("PercentChange(%v, %v) = %v, want %v", tt.cur, tt.prev, got, tt.want)
		}
	}
}
