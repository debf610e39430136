// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feedback

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mailgun/holster/v4/clock"

	"github.com/tomtom215/dashfeed/internal/cache"
	"github.com/tomtom215/dashfeed/internal/config"
	"github.com/tomtom215/dashfeed/internal/feeder"
	"github.com/tomtom215/dashfeed/internal/upstream"
)

// Integration is the name used for cache keys, logs and metrics.
const Integration = "feedback"

const (
	metricsEndpoint   = "/v1/metrics.json"
	responsesEndpoint = "/v1/survey_responses.json"

	defaultPerPage = 100

	// commentWindow bounds how far back RecentComments looks.
	commentWindow = 30 * 24 * time.Hour
)

// Options tunes a Feeder.
type Options struct {
	PerPage  int
	MaxPages int
	CacheTTL time.Duration
}

// Feeder serves NPS results and survey comments.
type Feeder struct {
	doer    feeder.Doer
	fetcher *feeder.Fetcher
	perPage int
	opts    Options
}

// New builds a Feeder.
func New(doer feeder.Doer, responses cache.Store, opts Options) *Feeder {
	if opts.PerPage <= 0 {
		opts.PerPage = defaultPerPage
	}
	return &Feeder{
		doer:    doer,
		fetcher: feeder.NewFetcher(Integration, responses, doer, feeder.StoreAlways, opts.CacheTTL),
		perPage: opts.PerPage,
		opts:    opts,
	}
}

// NewFromConfig builds the upstream client and the Feeder from cfg. The API
// key is sent as the Basic auth username.
func NewFromConfig(cfg config.FeedbackConfig, responses cache.Store) *Feeder {
	client := upstream.New(upstream.Options{
		Integration:        Integration,
		BaseURL:            cfg.URL,
		Auth:               upstream.BasicAuth{Username: cfg.APIKey},
		Timeout:            cfg.Timeout,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
	})
	return New(client, responses, Options{
		PerPage:  cfg.PerPage,
		MaxPages: cfg.MaxPages,
		CacheTTL: cfg.CacheTTL,
	})
}

// Name returns the integration name.
func (f *Feeder) Name() string { return Integration }

// BreakerState reports the upstream circuit breaker.
func (f *Feeder) BreakerState() string { return feeder.BreakerState(f.doer) }

// NPS compares the score over r with the preceding period.
func (f *Feeder) NPS(ctx context.Context, r feeder.Range) (NPSSummary, error) {
	cmp, err := feeder.FetchPeriods(ctx, r, func(ctx context.Context, r feeder.Range, period string) (Score, error) {
		return feeder.FetchJSON[Score](ctx, f.fetcher, feeder.Request{
			Endpoint: metricsEndpoint,
			Params: map[string]string{
				"since": unix(r.From),
				"until": unix(r.To),
			},
			KeyExtras: feeder.PeriodExtras(r, period),
		})
	})
	if err != nil {
		return NPSSummary{}, fmt.Errorf("feedback nps: %w", err)
	}
	return NPSSummary{
		Current:  cmp.Current,
		Previous: cmp.Previous,
		Change:   math.Round((cmp.Current.NPS-cmp.Previous.NPS)*10) / 10,
	}, nil
}

// RecentComments returns the newest limit responses that carry a comment.
func (f *Feeder) RecentComments(ctx context.Context, limit int) ([]Response, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", feeder.ErrInvalidArgument, limit)
	}
	since := unix(clock.Now().Add(-commentWindow))

	withComment := func(r Response) bool { return strings.TrimSpace(r.Comment) != "" }
	all, err := feeder.Collect(ctx, feeder.CollectConfig{
		Integration: Integration,
		StartPage:   1,
		MaxPages:    f.opts.MaxPages,
	}, func(ctx context.Context, n int) (feeder.Page[Response], error) {
		entries, err := feeder.FetchJSON[[]Response](ctx, f.fetcher, feeder.Request{
			Endpoint: responsesEndpoint,
			Params: map[string]string{
				"page":     strconv.Itoa(n),
				"per_page": strconv.Itoa(f.perPage),
				"since":    since,
			},
			Policy: f.storeFullPages,
		})
		if err != nil {
			return feeder.Page[Response]{}, err
		}
		return feeder.Page[Response]{Entries: entries, HasMore: len(entries) == f.perPage, PageNumber: n}, nil
	}, withComment)
	if err != nil {
		return nil, fmt.Errorf("feedback comments: %w", err)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt.Time)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// storeFullPages skips the trailing partial page, which may still grow.
func (f *Feeder) storeFullPages(_ feeder.Request, payload []byte) feeder.Decision {
	var entries []json.RawMessage
	if err := json.Unmarshal(payload, &entries); err != nil {
		return feeder.Decision{}
	}
	return feeder.Decision{Store: len(entries) == f.perPage}
}

// Jobs lists the operations the refresh service keeps warm.
func (f *Feeder) Jobs() []feeder.Job {
	return []feeder.Job{
		{Name: "feedback.nps", Run: func(ctx context.Context) error {
			_, err := f.NPS(ctx, feeder.LastDays(clock.Now(), 30))
			return err
		}},
		{Name: "feedback.comments", Run: func(ctx context.Context) error {
			_, err := f.RecentComments(ctx, 5)
			return err
		}},
	}
}

func unix(t time.Time) string { return strconv.FormatInt(t.Unix(), 10) }
