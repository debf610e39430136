// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package crm

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/mailgun/holster/v4/clock"

	"github.com/tomtom215/dashfeed/internal/cache"
	"github.com/tomtom215/dashfeed/internal/config"
	"github.com/tomtom215/dashfeed/internal/feeder"
	"github.com/tomtom215/dashfeed/internal/upstream"
)

// Integration is the name used for cache keys, logs and metrics.
const Integration = "crm"

const (
	dealsEndpoint  = "/v1/deals"
	stagesEndpoint = "/v1/stages"

	defaultPageLimit = 100

	stagesPrevKey = "crm:stages:previous"
)

// Options tunes a Feeder.
type Options struct {
	PageLimit int
	MaxPages  int
	CacheTTL  time.Duration
}

// Feeder serves deal pipeline metrics.
type Feeder struct {
	doer       feeder.Doer
	fetcher    *feeder.Fetcher
	opts       Options
	stagesPrev *feeder.Snapshot[feeder.RankingHistory]
}

// New builds a Feeder.
func New(doer feeder.Doer, responses, state cache.Store, opts Options) *Feeder {
	if opts.PageLimit <= 0 {
		opts.PageLimit = defaultPageLimit
	}
	return &Feeder{
		doer:       doer,
		fetcher:    feeder.NewFetcher(Integration, responses, doer, feeder.StoreAlways, opts.CacheTTL),
		opts:       opts,
		stagesPrev: feeder.NewSnapshot[feeder.RankingHistory](state, stagesPrevKey),
	}
}

// NewFromConfig builds the upstream client and the Feeder from cfg.
func NewFromConfig(cfg config.CRMConfig, responses, state cache.Store) *Feeder {
	client := upstream.New(upstream.Options{
		Integration:        Integration,
		BaseURL:            cfg.URL,
		Auth:               upstream.QueryToken{Param: "api_token", Token: cfg.APIToken},
		Timeout:            cfg.Timeout,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
	})
	return New(client, responses, state, Options{
		PageLimit: cfg.PageLimit,
		MaxPages:  cfg.MaxPages,
		CacheTTL:  cfg.CacheTTL,
	})
}

// Name returns the integration name.
func (f *Feeder) Name() string { return Integration }

// BreakerState reports the upstream circuit breaker.
func (f *Feeder) BreakerState() string { return feeder.BreakerState(f.doer) }

// Deals collects every deal with status q.Status. Pages are addressed by
// offset: page n starts at n*PageLimit.
func (f *Feeder) Deals(ctx context.Context, q DealQuery) ([]Deal, error) {
	limit := f.opts.PageLimit
	deals, err := feeder.Collect(ctx, feeder.CollectConfig{
		Integration: Integration,
		StartPage:   0,
		MaxPages:    f.opts.MaxPages,
	}, func(ctx context.Context, n int) (feeder.Page[Deal], error) {
		params := map[string]string{
			"start": strconv.Itoa(n * limit),
			"limit": strconv.Itoa(limit),
		}
		if q.Status != "" {
			params["status"] = q.Status
		}
		p, err := feeder.FetchJSON[dealPage](ctx, f.fetcher, feeder.Request{
			Endpoint: dealsEndpoint,
			Params:   params,
			Policy:   storeWhenMore,
		})
		if err != nil {
			return feeder.Page[Deal]{}, err
		}
		return feeder.Page[Deal]{
			Entries:    p.Data,
			HasMore:    p.AdditionalData.Pagination.MoreItemsInCollection,
			PageNumber: n,
		}, nil
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("crm deals: %w", err)
	}
	return deals, nil
}

// storeWhenMore caches pages followed by more items only.
func storeWhenMore(_ feeder.Request, payload []byte) feeder.Decision {
	var p dealPage
	if err := json.Unmarshal(payload, &p); err != nil {
		return feeder.Decision{}
	}
	return feeder.Decision{Store: p.AdditionalData.Pagination.MoreItemsInCollection}
}

// WonThisMonth counts and sums the deals won since the first of the month.
func (f *Feeder) WonThisMonth(ctx context.Context) (WonSummary, error) {
	deals, err := f.Deals(ctx, DealQuery{Status: "won"})
	if err != nil {
		return WonSummary{}, err
	}
	start := feeder.StartOfMonth(clock.Now())
	var out WonSummary
	for _, d := range deals {
		if d.WonTime.OnOrAfter(start) {
			out.Count++
			out.Value += d.Value
		}
	}
	return out, nil
}

// Stages lists pipeline stages.
func (f *Feeder) Stages(ctx context.Context) ([]Stage, error) {
	l, err := feeder.FetchJSON[stageList](ctx, f.fetcher, feeder.Request{
		Endpoint: stagesEndpoint,
		Policy:   feeder.StoreAlways,
	})
	if err != nil {
		return nil, fmt.Errorf("crm stages: %w", err)
	}
	return l.Data, nil
}

// PipelineByStage ranks stages by the value of their open deals.
func (f *Feeder) PipelineByStage(ctx context.Context) ([]feeder.RankedItem, error) {
	stages, err := f.Stages(ctx)
	if err != nil {
		return nil, err
	}
	open, err := f.Deals(ctx, DealQuery{Status: "open"})
	if err != nil {
		return nil, err
	}

	values := make(map[int64]float64, len(stages))
	for _, d := range open {
		values[d.StageID] += d.Value
	}
	current := make([]feeder.RankedItem, 0, len(stages))
	for _, s := range stages {
		current = append(current, feeder.RankedItem{
			ID:    strconv.FormatInt(s.ID, 10),
			Label: s.Name,
			Total: values[s.ID],
		})
	}

	history := f.stagesPrev.Load(ctx)
	baseline, changed := history.Observe(current)
	ranked, err := feeder.CompareRanks(current, baseline)
	if err != nil {
		return nil, fmt.Errorf("crm pipeline: %w", err)
	}
	if changed {
		f.stagesPrev.Save(ctx, history)
	}
	return ranked, nil
}

// Jobs lists the operations the refresh service keeps warm.
func (f *Feeder) Jobs() []feeder.Job {
	return []feeder.Job{
		{Name: "crm.won", Run: func(ctx context.Context) error {
			_, err := f.WonThisMonth(ctx)
			return err
		}},
		{Name: "crm.pipeline", Run: func(ctx context.Context) error {
			_, err := f.PipelineByStage(ctx)
			return err
		}},
	}
}
