// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feedback

import "github.com/tomtom215/dashfeed/internal/feeder"

// Score is the NPS breakdown for one period.
type Score struct {
	NPS            float64 `json:"nps"`
	PromoterCount  int     `json:"promoter_count"`
	PassiveCount   int     `json:"passive_count"`
	DetractorCount int     `json:"detractor_count"`
	ResponseCount  int     `json:"response_count"`
}

// NPSSummary compares the NPS of a range with the preceding period. Change
// is in points, not percent.
type NPSSummary struct {
	Current  Score   `json:"current"`
	Previous Score   `json:"previous"`
	Change   float64 `json:"change"`
}

// Response is one survey answer.
type Response struct {
	ID        string           `json:"id"`
	Score     int              `json:"score"`
	Comment   string           `json:"comment"`
	CreatedAt feeder.Timestamp `json:"created_at"`
}
