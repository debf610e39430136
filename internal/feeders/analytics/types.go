// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package analytics

import "github.com/tomtom215/dashfeed/internal/feeder"

// report is the subset of a core reporting response the feeder reads.
// Numbers arrive as strings.
type report struct {
	Rows                [][]string        `json:"rows"`
	TotalsForAllResults map[string]string `json:"totalsForAllResults"`
}

// MetricQuery selects one metric over a date range.
type MetricQuery struct {
	// Metric is a metric name such as "sessions" or "ga:pageviews".
	Metric string
	Range  feeder.Range
}

// MetricSummary compares a metric total with the preceding period.
type MetricSummary struct {
	Metric   string  `json:"metric"`
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Change   float64 `json:"change"`
}
