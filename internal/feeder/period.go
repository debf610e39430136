// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feeder

import (
	"context"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

// DateLayout is the date format shared by the upstream query parameters.
const DateLayout = "2006-01-02"

// Range is a reporting period.
type Range struct {
	From     time.Time
	To       time.Time
	Interval string
}

// Previous returns the period of equal length ending the day before From.
func (r Range) Previous() Range {
	days := r.Days()
	return Range{
		From:     r.From.AddDate(0, 0, -days),
		To:       r.From.AddDate(0, 0, -1),
		Interval: r.Interval,
	}
}

// Days is the number of calendar days covered by r, both ends included.
func (r Range) Days() int {
	return int(midnight(r.To).Sub(midnight(r.From)).Hours()/24+0.5) + 1
}

// FromDate and ToDate format the bounds with DateLayout.
func (r Range) FromDate() string { return r.From.Format(DateLayout) }
func (r Range) ToDate() string   { return r.To.Format(DateLayout) }

// MonthToDate is the range from the first of now's month to now.
func MonthToDate(now time.Time) Range {
	return Range{From: StartOfMonth(now), To: now, Interval: "day"}
}

// LastDays is the range covering the n days ending at now.
func LastDays(now time.Time, n int) Range {
	return Range{From: midnight(now).AddDate(0, 0, -(n - 1)), To: now, Interval: "day"}
}

// StartOfMonth is local midnight on the first day of now's month.
func StartOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// PreviousMonthCutoff is local midnight on the first day of the month before
// now's. Records on or after it count as recent.
func PreviousMonthCutoff(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// PeriodExtras are the cache key extras for one side of a FetchPeriods
// fan-out. Dates are volatile and stripped from keys, so the period name
// and the range length keep differently sized ranges on separate entries.
func PeriodExtras(r Range, period string) map[string]string {
	return map[string]string{
		"period": period,
		"days":   strconv.Itoa(r.Days()),
	}
}

// Comparison is a value for a period alongside the preceding period.
type Comparison[T any] struct {
	Current  T
	Previous T
}

// FetchPeriods runs fetch for r and r.Previous() concurrently and waits for
// both. The first error cancels the other call.
func FetchPeriods[T any](ctx context.Context, r Range, fetch func(ctx context.Context, r Range, period string) (T, error)) (Comparison[T], error) {
	var cmp Comparison[T]
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := fetch(gctx, r, "current")
		cmp.Current = v
		return err
	})
	g.Go(func() error {
		v, err := fetch(gctx, r.Previous(), "previous")
		cmp.Previous = v
		return err
	})
	if err := g.Wait(); err != nil {
		return Comparison[T]{}, err
	}
	return cmp, nil
}

// PercentChange returns the change from previous to current in percent,
// rounded to one decimal. A zero previous yields 0.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	pct := (current - previous) / math.Abs(previous) * 100
	return math.Round(pct*10) / 10
}
