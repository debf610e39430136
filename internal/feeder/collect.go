// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feeder

import (
	"context"
	"fmt"

	"github.com/tomtom215/dashfeed/internal/logging"
	"github.com/tomtom215/dashfeed/internal/metrics"
)

// DefaultMaxPages bounds a collection when CollectConfig leaves it unset.
const DefaultMaxPages = 1000

// Page is one page of a collection endpoint, already projected to T.
type Page[T any] struct {
	Entries    []T
	HasMore    bool
	PageNumber int
}

// PageFunc fetches page number n.
type PageFunc[T any] func(ctx context.Context, n int) (Page[T], error)

// CollectConfig bounds a collection.
type CollectConfig struct {
	Integration string
	StartPage   int
	MaxPages    int
}

// Collect fetches pages StartPage, StartPage+1, ... until one reports
// HasMore=false, keeping the entries accepted by keep (nil keeps all).
// Results are in page order. Exactly N fetches are made for N pages; if
// MaxPages pages have been fetched and the last still has more, Collect
// fails with ErrPaginationOverrun.
func Collect[T any](ctx context.Context, cfg CollectConfig, fetch PageFunc[T], keep func(T) bool) ([]T, error) {
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	out := []T{}
	n := cfg.StartPage
	for fetched := 0; ; fetched++ {
		if fetched == maxPages {
			metrics.PaginationOverruns.WithLabelValues(cfg.Integration).Inc()
			return nil, fmt.Errorf("%w: %s stopped after %d pages", ErrPaginationOverrun, cfg.Integration, maxPages)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := fetch(ctx, n)
		metrics.PagesFetched.WithLabelValues(cfg.Integration).Inc()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}

		for _, e := range page.Entries {
			if keep == nil || keep(e) {
				out = append(out, e)
			}
		}

		if !page.HasMore {
			logging.Ctx(ctx).Debug().
				Str("integration", cfg.Integration).
				Int("pages", fetched+1).
				Int("records", len(out)).
				Msg("[FEEDER] collection complete")
			return out, nil
		}
		n++
	}
}
