// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package billing

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
	"github.com/tomtom215/dashfeed/internal/logging"
	"github.com/tomtom215/dashfeed/internal/upstream"
)

// Integration is the name used for cache keys, logs and metrics.
const Integration = "billing"

const (
	customersEndpoint = "/v1/customers"
	mrrEndpoint       = "/v1/metrics/mrr"
	plansEndpoint     = "/v1/plans"

	perPage = "200"

	netStateKey  = "billing:net-movement:state"
	plansPrevKey = "billing:plans:previous"
)

// Options tunes a Feeder.
type Options struct {
	StartPage int
	MaxPages  int
	CacheTTL  time.Duration

	// NetMovementStart is the first day of the net movement series.
	NetMovementStart time.Time
}

// Feeder serves subscription metrics.
//
// Thread Safety: safe for concurrent use. Two concurrent NetMovement calls
// may both decide to rescan; the later write wins.
type Feeder struct {
	doer    feeder.Doer
	fetcher *feeder.Fetcher
	opts    Options

	netState  *feeder.Snapshot[feeder.BestMetricState]
	plansPrev *feeder.Snapshot[feeder.RankingHistory]
}

// New builds a Feeder. responses caches upstream pages; state holds the
// rolling aggregates and ranking snapshots and may be nil.
func New(doer feeder.Doer, responses, state cache.Store, opts Options) *Feeder {
	if opts.StartPage <= 0 {
		opts.StartPage = 1
	}
	return &Feeder{
		doer:      doer,
		fetcher:   feeder.NewFetcher(Integration, responses, doer, feeder.StoreAlways, opts.CacheTTL),
		opts:      opts,
		netState:  feeder.NewSnapshot[feeder.BestMetricState](state, netStateKey),
		plansPrev: feeder.NewSnapshot[feeder.RankingHistory](state, plansPrevKey),
	}
}

// NewFromConfig builds the upstream client and the Feeder from cfg.
func NewFromConfig(cfg config.BillingConfig, responses, state cache.Store) (*Feeder, error) {
	start, err := time.ParseInLocation(config.NetMovementDateLayout, cfg.NetMovementStartDate, time.Local)
	if err != nil {
		return nil, fmt.Errorf("billing: net movement start date: %w", err)
	}
	client := upstream.New(upstream.Options{
		Integration:        Integration,
		BaseURL:            cfg.URL,
		Auth:               upstream.BasicAuth{Username: cfg.AccountToken, Password: cfg.SecretKey},
		Timeout:            cfg.Timeout,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
	})
	return New(client, responses, state, Options{
		StartPage:        cfg.StartPage,
		MaxPages:         cfg.MaxPages,
		CacheTTL:         cfg.CacheTTL,
		NetMovementStart: start,
	}), nil
}

// Name returns the integration name.
func (f *Feeder) Name() string { return Integration }

// BreakerState reports the upstream circuit breaker.
func (f *Feeder) BreakerState() string { return feeder.BreakerState(f.doer) }

// Customers collects every customer page and keeps the records matching q.
// Without Unfiltered, the cutoff is the first day of the previous month.
func (f *Feeder) Customers(ctx context.Context, q CustomerQuery) ([]Customer, error) {
	cutoff := feeder.PreviousMonthCutoff(clock.Now())
	keep := func(c Customer) bool {
		switch {
		case q.Unfiltered:
			return true
		case q.OnlyLead:
			return c.LeadCreatedAt.OnOrAfter(cutoff)
		default:
			return c.CustomerSince.OnOrAfter(cutoff)
		}
	}

	out, err := feeder.Collect(ctx, feeder.CollectConfig{
		Integration: Integration,
		StartPage:   f.opts.StartPage,
		MaxPages:    f.opts.MaxPages,
	}, f.customerPage(q.Status), keep)
	if err != nil {
		return nil, fmt.Errorf("billing customers: %w", err)
	}
	return out, nil
}

func (f *Feeder) customerPage(status string) feeder.PageFunc[Customer] {
	return func(ctx context.Context, n int) (feeder.Page[Customer], error) {
		params := map[string]string{
			"page":     strconv.Itoa(n),
			"per_page": perPage,
		}
		if status != "" {
			params["status"] = status
		}
		p, err := feeder.FetchJSON[customerPage](ctx, f.fetcher, feeder.Request{
			Endpoint: customersEndpoint,
			Params:   params,
			Policy:   storeWhenMore,
		})
		if err != nil {
			return feeder.Page[Customer]{}, err
		}
		return feeder.Page[Customer]{Entries: p.Entries, HasMore: p.HasMore, PageNumber: n}, nil
	}
}

// storeWhenMore caches full pages only. The last page is still growing.
func storeWhenMore(_ feeder.Request, payload []byte) feeder.Decision {
	var p struct {
		HasMore bool `json:"has_more"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return feeder.Decision{}
	}
	return feeder.Decision{Store: p.HasMore}
}

// NewLeads counts leads created since the previous month began.
func (f *Feeder) NewLeads(ctx context.Context) (int, error) {
	leads, err := f.Customers(ctx, CustomerQuery{Status: "Lead", OnlyLead: true})
	if err != nil {
		return 0, err
	}
	return len(leads), nil
}

// NewCustomers counts customers acquired since the previous month began.
func (f *Feeder) NewCustomers(ctx context.Context) (int, error) {
	customers, err := f.Customers(ctx, CustomerQuery{})
	if err != nil {
		return 0, err
	}
	return len(customers), nil
}

// MRR compares the MRR at the end of r with the MRR at the end of the
// preceding period of equal length.
func (f *Feeder) MRR(ctx context.Context, r feeder.Range) (MRRSummary, error) {
	if r.Interval == "" {
		r.Interval = "day"
	}
	cmp, err := feeder.FetchPeriods(ctx, r, f.mrrAt)
	if err != nil {
		return MRRSummary{}, fmt.Errorf("billing mrr: %w", err)
	}
	return MRRSummary{
		Current:  cmp.Current,
		Previous: cmp.Previous,
		Change:   feeder.PercentChange(cmp.Current, cmp.Previous),
	}, nil
}

func (f *Feeder) mrrAt(ctx context.Context, r feeder.Range, period string) (float64, error) {
	s, err := f.series(ctx, r, feeder.PeriodExtras(r, period))
	if err != nil || len(s.Entries) == 0 {
		return 0, err
	}
	mrr, _ := s.Entries[len(s.Entries)-1]["mrr"].(float64)
	return mrr / feeder.NetScale, nil
}

func (f *Feeder) series(ctx context.Context, r feeder.Range, extras map[string]string) (mrrSeries, error) {
	return feeder.FetchJSON[mrrSeries](ctx, f.fetcher, feeder.Request{
		Endpoint: mrrEndpoint,
		Params: map[string]string{
			"start-date": r.FromDate(),
			"end-date":   r.ToDate(),
			"interval":   r.Interval,
		},
		KeyExtras: extras,
	})
}

// NetMovement reports the latest monthly net MRR movement and the best
// month since NetMovementStart. The best is tracked across calls and
// persisted in the state store.
func (f *Feeder) NetMovement(ctx context.Context) (NetMovement, error) {
	now := clock.Now()
	s, err := f.series(ctx, feeder.Range{
		From:     f.opts.NetMovementStart,
		To:       now,
		Interval: "month",
	}, map[string]string{"series": "net-movement"})
	if err != nil {
		return NetMovement{}, fmt.Errorf("billing net movement: %w", err)
	}

	points := make([]feeder.Point, 0, len(s.Entries))
	for _, e := range s.Entries {
		label, _ := e["date"].(string)
		points = append(points, feeder.Point{Label: label, Movement: e})
	}

	state := f.netState.Load(ctx)
	if !state.WindowStart.Equal(f.opts.NetMovementStart) {
		if !state.WindowStart.IsZero() {
			logging.Ctx(ctx).Info().
				Time("old_start", state.WindowStart).
				Time("new_start", f.opts.NetMovementStart).
				Msg("[BILLING] net movement window moved, resetting best")
		}
		state = feeder.BestMetricState{WindowStart: f.opts.NetMovementStart}
	}
	state = feeder.TrackBest(state, points, now)
	f.netState.Save(ctx, state)

	out := NetMovement{Best: state.Best, BestLabel: state.BestLabel}
	if n := len(points); n > 0 {
		out.Latest = feeder.ComputeNet(points[n-1].Movement)
		out.LatestLabel = points[n-1].Label
	}
	return out, nil
}

// Plans lists subscription plans, one per uuid.
func (f *Feeder) Plans(ctx context.Context) ([]Plan, error) {
	l, err := feeder.FetchJSON[planList](ctx, f.fetcher, feeder.Request{
		Endpoint: plansEndpoint,
		Params:   map[string]string{"per_page": perPage},
		Policy:   dedupePlans,
	})
	if err != nil {
		return nil, fmt.Errorf("billing plans: %w", err)
	}
	return l.Plans, nil
}

// dedupePlans rewrites the payload with duplicate uuids removed. The first
// occurrence wins.
func dedupePlans(_ feeder.Request, payload []byte) feeder.Decision {
	var l planList
	if err := json.Unmarshal(payload, &l); err != nil {
		return feeder.Decision{}
	}
	seen := make(map[string]struct{}, len(l.Plans))
	plans := make([]Plan, 0, len(l.Plans))
	for _, p := range l.Plans {
		if _, dup := seen[p.UUID]; dup {
			continue
		}
		seen[p.UUID] = struct{}{}
		plans = append(plans, p)
	}
	out, err := json.Marshal(planList{Plans: plans})
	if err != nil {
		return feeder.Decision{}
	}
	return feeder.Decision{Store: true, Payload: out}
}

// TopPlans ranks plans by active customer count and marks movement against
// the last different ranking.
func (f *Feeder) TopPlans(ctx context.Context) ([]feeder.RankedItem, error) {
	plans, err := f.Plans(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := f.Customers(ctx, CustomerQuery{Status: "Active", Unfiltered: true})
	if err != nil {
		return nil, err
	}

	// Customer records reference plans by uuid or by name.
	ids := make(map[string]string, 2*len(plans))
	for _, p := range plans {
		ids[p.UUID] = p.UUID
		if _, taken := ids[p.Name]; !taken {
			ids[p.Name] = p.UUID
		}
	}
	counts := make(map[string]float64, len(plans))
	for _, c := range customers {
		for _, ref := range c.Plans {
			if id, ok := ids[ref]; ok {
				counts[id]++
			}
		}
	}

	current := make([]feeder.RankedItem, 0, len(plans))
	for _, p := range plans {
		current = append(current, feeder.RankedItem{ID: p.UUID, Label: p.Name, Total: counts[p.UUID]})
	}

	history := f.plansPrev.Load(ctx)
	baseline, changed := history.Observe(current)
	ranked, err := feeder.CompareRanks(current, baseline)
	if err != nil {
		return nil, fmt.Errorf("billing top plans: %w", err)
	}
	if changed {
		f.plansPrev.Save(ctx, history)
	}
	return ranked, nil
}

// Jobs lists the operations the refresh service keeps warm.
func (f *Feeder) Jobs() []feeder.Job {
	return []feeder.Job{
		{Name: "billing.customers", Run: func(ctx context.Context) error {
			_, err := f.NewCustomers(ctx)
			return err
		}},
		{Name: "billing.leads", Run: func(ctx context.Context) error {
			_, err := f.NewLeads(ctx)
			return err
		}},
		{Name: "billing.mrr", Run: func(ctx context.Context) error {
			_, err := f.MRR(ctx, feeder.MonthToDate(clock.Now()))
			return err
		}},
		{Name: "billing.net_movement", Run: func(ctx context.Context) error {
			_, err := f.NetMovement(ctx)
			return err
		}},
		{Name: "billing.top_plans", Run: func(ctx context.Context) error {
			_, err := f.TopPlans(ctx)
			return err
		}},
	}
}
