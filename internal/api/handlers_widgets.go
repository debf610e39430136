// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mailgun/holster/v4/clock"

	"github.com/tomtom215/dashfeed/internal/feeder"
	"github.com/tomtom215/dashfeed/internal/feeders/analytics"
	"github.com/tomtom215/dashfeed/internal/feeders/billing"
	"github.com/tomtom215/dashfeed/internal/feeders/crm"
	"github.com/tomtom215/dashfeed/internal/feeders/feedback"
	"github.com/tomtom215/dashfeed/internal/widget"
)

// widgetEndpoint describes one widget route.
// P is the parsed, validated parameter type.
type widgetEndpoint[P any] struct {
	Integration string

	// Available is false when the integration is disabled.
	Available bool

	// Parse extracts parameters; an error is a 400 INVALID_PARAMETER.
	Parse func(r *http.Request) (P, error)

	// Serve calls the feeder and shapes the widget payload.
	Serve func(ctx context.Context, params P) (any, error)
}

// serveWidget implements the common widget flow: parse, validate, check the
// integration, call the feeder, respond. Validation runs before the
// integration check so malformed requests are always a 400.
func serveWidget[P any](w http.ResponseWriter, r *http.Request, ep widgetEndpoint[P]) {
	params, err := ep.Parse(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr, nil)
		return
	}
	if !ep.Available {
		respondFeederError(w, r, ep.Integration, ErrIntegrationDisabled)
		return
	}

	payload, err := ep.Serve(r.Context(), params)
	if err != nil {
		respondFeederError(w, r, ep.Integration, err)
		return
	}
	respondWidget(w, r, payload)
}

// BillingMRR compares MRR for the window with the preceding window.
func (h *Handler) BillingMRR(w http.ResponseWriter, r *http.Request) {
	serveWidget(w, r, widgetEndpoint[RangeRequest]{
		Integration: billing.Integration,
		Available:   h.src.Billing != nil,
		Parse:       parseRangeRequest,
		Serve: func(ctx context.Context, p RangeRequest) (any, error) {
			s, err := h.src.Billing.MRR(ctx, toRange(p.DateRange, p.Interval, clock.Now()))
			if err != nil {
				return nil, err
			}
			return widget.Comparison(s.Current, s.Previous, h.opts.CurrencyPrefix), nil
		},
	})
}

// BillingLeads counts new leads.
func (h *Handler) BillingLeads(w http.ResponseWriter, r *http.Request) {
	serveWidget(w, r, widgetEndpoint[struct{}]{
		Integration: billing.Integration,
		Available:   h.src.Billing != nil,
		Parse:       noParams,
		Serve: func(ctx context.Context, _ struct{}) (any, error) {
			n, err := h.src.Billing.NewLeads(ctx)
			if err != nil {
				return nil, err
			}
			return widget.Count(n, "New leads"), nil
		},
	})
}

// BillingCustomers counts new customers.
func (h *Handler) BillingCustomers(w http.ResponseWriter, r *http.Request) {
	serveWidget(w, r, widgetEndpoint[struct{}]{
		Integration: billing.Integration,
		Available:   h.src.Billing != nil,
		Parse:       noParams,
		Serve: func(ctx context.Context, _ struct{}) (any, error) {
			n, err := h.src.Billing.NewCustomers(ctx)
			if err != nil {
				return nil, err
			}
			return widget.Count(n, "New customers"), nil
		},
	})
}

// BillingNetMovement shows the latest month's net MRR movement and the best
// month on record. The best row is left out until some month has a positive
// net movement.
func (h *Handler) BillingNetMovement(w http.ResponseWriter, r *http.Request) {
	serveWidget(w, r, widgetEndpoint[struct{}]{
		Integration: billing.Integration,
		Available:   h.src.Billing != nil,
		Parse:       noParams,
		Serve: func(ctx context.Context, _ struct{}) (any, error) {
			nm, err := h.src.Billing.NetMovement(ctx)
			if err != nil {
				return nil, err
			}
			items := []widget.NumberItem{
				{Value: nm.Latest, Prefix: h.opts.CurrencyPrefix, Text: nm.LatestLabel},
			}
			// No month with positive movement yet: there is no best to show.
			if nm.BestLabel != "" {
				items = append(items, widget.NumberItem{Value: nm.Best, Prefix: h.opts.CurrencyPrefix, Text: "Best: " + nm.BestLabel})
			}
			return widget.Items(items...), nil
		},
	})
}

// BillingPlans ranks plans by active customers.
func (h *Handler) BillingPlans(w http.ResponseWriter, r *http.Request) {
	serveWidget(w, r, widgetEndpoint[struct{}]{
		Integration: billing.Integration,
		Available:   h.src.Billing != nil,
		Parse:       noParams,
		Serve: func(ctx context.Context, _ struct{}) (any, error) {
			return leaderboard(h.src.Billing.TopPlans(ctx))
		},
	})
}

// AnalyticsMetric compares one analytics metric across periods.
func (h *Handler) AnalyticsMetric(w http.ResponseWriter, r *http.Request) {
	serveWidget(w, r, widgetEndpoint[MetricRequest]{
		Integration: analytics.Integration,
		Available:   h.src.Analytics != nil,
		Parse:       parseMetricRequest,
		Serve: func(ctx context.Context, p MetricRequest) (any, error) {
			s, err := h.src.Analytics.Metric(ctx, analytics.MetricQuery{
				Metric: p.Metric,
				Range:  toRange(p.DateRange, p.Interval, clock.Now()),
			})
			if err != nil {
				return nil, err
			}
			return widget.Comparison(s.Current, s.Previous, ""), nil
		},
	})
}

// AnalyticsPages ranks pages by pageviews over the trailing days.
func (h *Handler) AnalyticsPages(w http.ResponseWriter, r *http.Request) {
	serveWidget(w, r, widgetEndpoint[PagesRequest]{
		Integration: analytics.Integration,
		Available:   h.src.Analytics != nil,
		Parse:       parsePagesRequest,
		Serve: func(ctx context.Context, p PagesRequest) (any, error) {
			return leaderboard(h.src.Analytics.TopPages(ctx, feeder.LastDays(clock.Now(), p.Days)))
		},
	})
}

// FeedbackNPS compares NPS across periods.
func (h *Handler) FeedbackNPS(w http.ResponseWriter, r *http.Request) {
	serveWidget(w, r, widgetEndpoint[RangeRequest]{
		Integration: feedback.Integration,
		Available:   h.src.Feedback != nil,
		Parse:       parseRangeRequest,
		Serve: func(ctx context.Context, p RangeRequest) (any, error) {
			s, err := h.src.Feedback.NPS(ctx, toRange(p.DateRange, p.Interval, clock.Now()))
			if err != nil {
				return nil, err
			}
			return widget.Comparison(s.Current.NPS, s.Previous.NPS, ""), nil
		},
	})
}

// FeedbackComments lists the newest survey comments.
func (h *Handler) FeedbackComments(w http.ResponseWriter, r *http.Request) {
	serveWidget(w, r, widgetEndpoint[CommentsRequest]{
		Integration: feedback.Integration,
		Available:   h.src.Feedback != nil,
		Parse:       parseCommentsRequest,
		Serve: func(ctx context.Context, p CommentsRequest) (any, error) {
			responses, err := h.src.Feedback.RecentComments(ctx, p.Limit)
			if err != nil {
				return nil, err
			}
			rows := make([]widget.ListItem, 0, len(responses))
			for _, resp := range responses {
				label, color := npsCategory(resp.Score)
				rows = append(rows, widget.Row(
					resp.Comment,
					fmt.Sprintf("%s (%d)", label, resp.Score),
					color,
					resp.CreatedAt.Format("2006-01-02 15:04"),
				))
			}
			return widget.NewList(rows...), nil
		},
	})
}

// CRMWon reports deals won this month.
func (h *Handler) CRMWon(w http.ResponseWriter, r *http.Request) {
	serveWidget(w, r, widgetEndpoint[struct{}]{
		Integration: crm.Integration,
		Available:   h.src.CRM != nil,
		Parse:       noParams,
		Serve: func(ctx context.Context, _ struct{}) (any, error) {
			won, err := h.src.CRM.WonThisMonth(ctx)
			if err != nil {
				return nil, err
			}
			return widget.Single(won.Value, h.opts.CurrencyPrefix, fmt.Sprintf("%d deals won", won.Count)), nil
		},
	})
}

// CRMPipeline ranks stages by open deal value.
func (h *Handler) CRMPipeline(w http.ResponseWriter, r *http.Request) {
	serveWidget(w, r, widgetEndpoint[struct{}]{
		Integration: crm.Integration,
		Available:   h.src.CRM != nil,
		Parse:       noParams,
		Serve: func(ctx context.Context, _ struct{}) (any, error) {
			return leaderboard(h.src.CRM.PipelineByStage(ctx))
		},
	})
}

func leaderboard(ranked []feeder.RankedItem, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return widget.FromRanked(ranked), nil
}

// npsCategory buckets a 0-10 score the standard NPS way.
func npsCategory(score int) (label, color string) {
	switch {
	case score >= 9:
		return "Promoter", "#2ecc71"
	case score >= 7:
		return "Passive", "#f1c40f"
	default:
		return "Detractor", "#e74c3c"
	}
}
