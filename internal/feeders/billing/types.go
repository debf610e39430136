// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package billing

import "github.com/tomtom215/dashfeed/internal/feeder"

// Customer is the projection kept from a customer entry. Every other
// upstream field is dropped at decode time.
type Customer struct {
	UUID          string           `json:"uuid"`
	Name          string           `json:"name"`
	Email         string           `json:"email"`
	Status        string           `json:"status"`
	CustomerSince feeder.Timestamp `json:"customer-since"`
	LeadCreatedAt feeder.Timestamp `json:"lead_created_at"`
	MRR           float64          `json:"mrr"`
	Plans         []string         `json:"plans,omitempty"`
}

type customerPage struct {
	Entries []Customer `json:"entries"`
	HasMore bool       `json:"has_more"`
	Page    int        `json:"page"`
}

// Plan is a subscription plan.
type Plan struct {
	UUID          string `json:"uuid"`
	Name          string `json:"name"`
	IntervalCount int    `json:"interval_count"`
	IntervalUnit  string `json:"interval_unit"`
}

type planList struct {
	Plans []Plan `json:"plans"`
}

// mrrSeries is the MRR metrics response. Entries stay generic so that every
// "mrr-" movement key reaches feeder.ComputeNet.
type mrrSeries struct {
	Entries []map[string]any `json:"entries"`
}

// CustomerQuery selects and filters customers.
type CustomerQuery struct {
	// Status is passed upstream ("Active", "Lead", ...). Empty means any.
	Status string

	// OnlyLead keeps records with a lead-creation time on or after the
	// cutoff; records without one are dropped.
	OnlyLead bool

	// Unfiltered skips the date cutoff entirely.
	Unfiltered bool
}

// MRRSummary compares MRR for a range with the preceding range.
type MRRSummary struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Change   float64 `json:"change"`
}

// NetMovement is the latest net MRR movement and the best seen so far.
//
// BestLabel is empty until some month has a positive net movement.
type NetMovement struct {
	Latest      float64 `json:"latest"`
	LatestLabel string  `json:"latest_label"`
	Best        float64 `json:"best"`
	BestLabel   string  `json:"best_label"`
}
