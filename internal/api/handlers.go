// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package api

import (
	"context"
	"time"

	"github.com/tomtom215/dashfeed/internal/cache"
	"github.com/tomtom215/dashfeed/internal/feeder"
	"github.com/tomtom215/dashfeed/internal/feeders/analytics"
	"github.com/tomtom215/dashfeed/internal/feeders/billing"
	"github.com/tomtom215/dashfeed/internal/feeders/crm"
	"github.com/tomtom215/dashfeed/internal/feeders/feedback"
)

// Integration is the part of a feeder the health endpoints and the refresh
// service need.
type Integration interface {
	Name() string
	BreakerState() string
	Jobs() []feeder.Job
}

// BillingSource is satisfied by *billing.Feeder.
type BillingSource interface {
	MRR(ctx context.Context, r feeder.Range) (billing.MRRSummary, error)
	NewLeads(ctx context.Context) (int, error)
	NewCustomers(ctx context.Context) (int, error)
	NetMovement(ctx context.Context) (billing.NetMovement, error)
	TopPlans(ctx context.Context) ([]feeder.RankedItem, error)
}

// AnalyticsSource is satisfied by *analytics.Feeder.
type AnalyticsSource interface {
	Metric(ctx context.Context, q analytics.MetricQuery) (analytics.MetricSummary, error)
	TopPages(ctx context.Context, r feeder.Range) ([]feeder.RankedItem, error)
}

// FeedbackSource is satisfied by *feedback.Feeder.
type FeedbackSource interface {
	NPS(ctx context.Context, r feeder.Range) (feedback.NPSSummary, error)
	RecentComments(ctx context.Context, limit int) ([]feedback.Response, error)
}

// CRMSource is satisfied by *crm.Feeder.
type CRMSource interface {
	WonThisMonth(ctx context.Context) (crm.WonSummary, error)
	PipelineByStage(ctx context.Context) ([]feeder.RankedItem, error)
}

// Sources holds the enabled integrations. A nil source answers its widgets
// with 503 INTEGRATION_DISABLED.
type Sources struct {
	Billing   BillingSource
	Analytics AnalyticsSource
	Feedback  FeedbackSource
	CRM       CRMSource

	// Integrations lists every enabled feeder for readiness reporting.
	Integrations []Integration

	// Stores are the cache backends checked by readiness, keyed by role.
	Stores map[string]cache.Store
}

// Options tunes widget presentation.
type Options struct {
	// CurrencyPrefix prefixes money values in number widgets.
	CurrencyPrefix string
	Version        string
}

// Handler serves health and widget endpoints.
type Handler struct {
	src       Sources
	opts      Options
	startTime time.Time
}

// NewHandler creates a handler over the enabled sources.
func NewHandler(src Sources, opts Options) *Handler {
	if opts.CurrencyPrefix == "" {
		opts.CurrencyPrefix = "€"
	}
	return &Handler{src: src, opts: opts, startTime: time.Now()}
}
