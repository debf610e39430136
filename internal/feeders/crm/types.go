// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package crm

import "github.com/tomtom215/dashfeed/internal/feeder"

// Deal is the projection kept from a deal record.
type Deal struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Value    float64          `json:"value"`
	Currency string           `json:"currency"`
	Status   string           `json:"status"`
	StageID  int64            `json:"stage_id"`
	WonTime  feeder.Timestamp `json:"won_time"`
	AddTime  feeder.Timestamp `json:"add_time"`
}

// Stage is a pipeline stage.
type Stage struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PipelineID int64  `json:"pipeline_id"`
	OrderNr    int    `json:"order_nr"`
}

type pagination struct {
	Start                 int  `json:"start"`
	Limit                 int  `json:"limit"`
	MoreItemsInCollection bool `json:"more_items_in_collection"`
}

type dealPage struct {
	Data           []Deal `json:"data"`
	AdditionalData struct {
		Pagination pagination `json:"pagination"`
	} `json:"additional_data"`
}

type stageList struct {
	Data []Stage `json:"data"`
}

// DealQuery selects deals by status: open, won, lost or all_not_deleted.
type DealQuery struct {
	Status string
}

// WonSummary totals the deals won this month.
type WonSummary struct {
	Count int     `json:"count"`
	Value float64 `json:"value"`
}
