// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package analytics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mailgun/holster/v4/clock"

	"github.com/tomtom215/dashfeed/internal/cache"
	"github.com/tomtom215/dashfeed/internal/config"
	"github.com/tomtom215/dashfeed/internal/feeder"
	"github.com/tomtom215/dashfeed/internal/logging"
	"github.com/tomtom215/dashfeed/internal/upstream"
)

// Integration is the name used for cache keys, logs and metrics.
const Integration = "analytics"

const (
	reportEndpoint = "/v3/data/ga"

	// TokenKey is where the OAuth access token is cached.
	TokenKey = "analytics:oauth:token"

	pagesPrevKey = "analytics:pages:previous"

	metricPrefix = "ga:"
	pageMetric   = "ga:pageviews"
	pageMaxRows  = "25"
)

// Options tunes a Feeder.
type Options struct {
	ViewID   string
	CacheTTL time.Duration
}

// Feeder serves web analytics metrics.
type Feeder struct {
	doer      feeder.Doer
	fetcher   *feeder.Fetcher
	viewID    string
	pagesPrev *feeder.Snapshot[feeder.RankingHistory]
}

// New builds a Feeder.
func New(doer feeder.Doer, responses, state cache.Store, opts Options) *Feeder {
	return &Feeder{
		doer:      doer,
		fetcher:   feeder.NewFetcher(Integration, responses, doer, feeder.StoreAlways, opts.CacheTTL),
		viewID:    opts.ViewID,
		pagesPrev: feeder.NewSnapshot[feeder.RankingHistory](state, pagesPrevKey),
	}
}

// NewFromConfig wires the OAuth token source and the upstream client. A
// configured refresh token selects the refresh-token grant; otherwise the
// client-credentials grant is used. Tokens are cached in responses.
func NewFromConfig(cfg config.AnalyticsConfig, responses, state cache.Store) *Feeder {
	var provider upstream.TokenProvider
	if cfg.RefreshToken != "" {
		tokenClient := upstream.New(upstream.Options{
			Integration: Integration + "-oauth",
			BaseURL:     cfg.TokenURL,
			Timeout:     cfg.Timeout,
		})
		provider = upstream.NewRefreshTokenProvider(tokenClient, cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken)
	} else {
		provider = upstream.NewClientCredentialsProvider(cfg.ClientID, cfg.ClientSecret, cfg.TokenURL, cfg.Scopes, nil)
	}
	source := upstream.NewCachedTokenSource(Integration, responses, TokenKey, provider)

	client := upstream.New(upstream.Options{
		Integration:        Integration,
		BaseURL:            cfg.URL,
		Auth:               upstream.BearerAuth{Source: source},
		Timeout:            cfg.Timeout,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
	})
	return New(client, responses, state, Options{ViewID: cfg.ViewID, CacheTTL: cfg.CacheTTL})
}

// Name returns the integration name.
func (f *Feeder) Name() string { return Integration }

// BreakerState reports the upstream circuit breaker.
func (f *Feeder) BreakerState() string { return feeder.BreakerState(f.doer) }

// Metric compares a metric total over q.Range with the preceding period.
func (f *Feeder) Metric(ctx context.Context, q MetricQuery) (MetricSummary, error) {
	if strings.TrimSpace(q.Metric) == "" {
		return MetricSummary{}, fmt.Errorf("%w: metric name is empty", feeder.ErrInvalidArgument)
	}
	metric := qualify(q.Metric)

	cmp, err := feeder.FetchPeriods(ctx, q.Range, func(ctx context.Context, r feeder.Range, period string) (float64, error) {
		rep, err := f.report(ctx, r, map[string]string{"metrics": metric}, period)
		if err != nil {
			return 0, err
		}
		return parseNumber(rep.TotalsForAllResults[metric]), nil
	})
	if err != nil {
		return MetricSummary{}, fmt.Errorf("analytics %s: %w", metric, err)
	}
	return MetricSummary{
		Metric:   metric,
		Current:  cmp.Current,
		Previous: cmp.Previous,
		Change:   feeder.PercentChange(cmp.Current, cmp.Previous),
	}, nil
}

// TopPages ranks page paths by pageviews over r.
func (f *Feeder) TopPages(ctx context.Context, r feeder.Range) ([]feeder.RankedItem, error) {
	rep, err := f.report(ctx, r, map[string]string{
		"metrics":     pageMetric,
		"dimensions":  "ga:pagePath",
		"sort":        "-" + pageMetric,
		"max-results": pageMaxRows,
	}, "current")
	if err != nil {
		return nil, fmt.Errorf("analytics top pages: %w", err)
	}

	current := make([]feeder.RankedItem, 0, len(rep.Rows))
	for _, row := range rep.Rows {
		if len(row) < 2 {
			continue
		}
		current = append(current, feeder.RankedItem{ID: row[0], Label: row[0], Total: parseNumber(row[1])})
	}

	history := f.pagesPrev.Load(ctx)
	baseline, changed := history.Observe(current)
	ranked, err := feeder.CompareRanks(current, baseline)
	if err != nil {
		return nil, fmt.Errorf("analytics top pages: %w", err)
	}
	if changed {
		f.pagesPrev.Save(ctx, history)
	}
	return ranked, nil
}

// report fetches one core reporting query. The range length joins the cache
// key so that ranges of different sizes do not share entries.
func (f *Feeder) report(ctx context.Context, r feeder.Range, params map[string]string, period string) (report, error) {
	q := map[string]string{
		"ids":        metricPrefix + f.viewID,
		"start-date": r.FromDate(),
		"end-date":   r.ToDate(),
	}
	for k, v := range params {
		q[k] = v
	}
	return feeder.FetchJSON[report](ctx, f.fetcher, feeder.Request{
		Endpoint: reportEndpoint,
		Params:   q,
		KeyExtras: feeder.PeriodExtras(r, period),
	})
}

// Jobs lists the operations the refresh service keeps warm.
func (f *Feeder) Jobs() []feeder.Job {
	return []feeder.Job{
		{Name: "analytics.sessions", Run: func(ctx context.Context) error {
			_, err := f.Metric(ctx, MetricQuery{Metric: "sessions", Range: feeder.MonthToDate(clock.Now())})
			return err
		}},
		{Name: "analytics.top_pages", Run: func(ctx context.Context) error {
			_, err := f.TopPages(ctx, feeder.LastDays(clock.Now(), 7))
			return err
		}},
	}
}

func qualify(metric string) string {
	metric = strings.TrimSpace(metric)
	if strings.HasPrefix(metric, metricPrefix) {
		return metric
	}
	return metricPrefix + metric
}

func parseNumber(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		logging.Debug().Str("value", s).Msg("[ANALYTICS] non-numeric value treated as 0")
		return 0
	}
	return v
}
