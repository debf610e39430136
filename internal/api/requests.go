// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/dashfeed/internal/feeder"
	"github.com/tomtom215/dashfeed/internal/validation"
)

const (
	defaultPageDays     = 7
	defaultCommentLimit = 10
)

// RangeRequest is the optional from/to window shared by comparison widgets.
// Without dates the window is month to date.
type RangeRequest struct {
	validation.DateRange
	Interval string `query:"interval" validate:"omitempty,oneof=day week month"`
}

// MetricRequest selects an analytics metric over a window.
type MetricRequest struct {
	validation.DateRange
	Interval string `query:"interval" validate:"omitempty,oneof=day week month"`
	Metric   string `query:"metric" validate:"required,metricname"`
}

// PagesRequest is the trailing window for top pages.
type PagesRequest struct {
	Days int `query:"days" validate:"min=1,max=90"`
}

// CommentsRequest caps the number of comments returned.
type CommentsRequest struct {
	Limit int `query:"limit" validate:"min=1,max=50"`
}

func parseRangeRequest(r *http.Request) (RangeRequest, error) {
	q := r.URL.Query()
	return RangeRequest{
		DateRange: validation.DateRange{From: q.Get("from"), To: q.Get("to")},
		Interval:  q.Get("interval"),
	}, nil
}

func parseMetricRequest(r *http.Request) (MetricRequest, error) {
	q := r.URL.Query()
	return MetricRequest{
		DateRange: validation.DateRange{From: q.Get("from"), To: q.Get("to")},
		Interval:  q.Get("interval"),
		Metric:    strings.TrimSpace(q.Get("metric")),
	}, nil
}

func parsePagesRequest(r *http.Request) (PagesRequest, error) {
	days, err := intParam(r, "days", defaultPageDays)
	return PagesRequest{Days: days}, err
}

func parseCommentsRequest(r *http.Request) (CommentsRequest, error) {
	limit, err := intParam(r, "limit", defaultCommentLimit)
	return CommentsRequest{Limit: limit}, err
}

// noParams is the parser for widgets without query parameters.
func noParams(*http.Request) (struct{}, error) { return struct{}{}, nil }

// intParam reads an integer query parameter, falling back to def when absent.
func intParam(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}

// toRange converts validated dates into a feeder range. Dates are local
// calendar days; to is extended to the last second of its day.
func toRange(dr validation.DateRange, interval string, now time.Time) feeder.Range {
	if interval == "" {
		interval = "day"
	}
	if dr.From == "" {
		r := feeder.MonthToDate(now)
		r.Interval = interval
		return r
	}

	from, _ := time.ParseInLocation(validation.DateLayout, dr.From, now.Location())
	to, _ := time.ParseInLocation(validation.DateLayout, dr.To, now.Location())
	return feeder.Range{
		From:     from,
		To:       to.AddDate(0, 0, 1).Add(-time.Second),
		Interval: interval,
	}
}
