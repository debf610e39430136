// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

// Package widget shapes feeder results into the JSON bodies dashboard
// widgets poll for. Every function is a pure mapping.
package widget

import (
	"math"

	"github.com/tomtom215/dashfeed/internal/feeder"
)

// NumberItem is one value of a number widget.
type NumberItem struct {
	Value  float64 `json:"value"`
	Prefix string  `json:"prefix,omitempty"`
	Text   string  `json:"text,omitempty"`
}

// Number is a number widget. With two items the second is the comparison
// value the dashboard computes a trend against.
type Number struct {
	Item []NumberItem `json:"item"`
}

// Single shapes one value.
func Single(value float64, prefix, text string) Number {
	return Number{Item: []NumberItem{{Value: round2(value), Prefix: prefix, Text: text}}}
}

// Count shapes an integer count.
func Count(n int, text string) Number {
	return Single(float64(n), "", text)
}

// Items shapes several labelled values into one number widget.
func Items(items ...NumberItem) Number {
	out := make([]NumberItem, len(items))
	for i, item := range items {
		item.Value = round2(item.Value)
		out[i] = item
	}
	return Number{Item: out}
}

// Comparison shapes a current value followed by its previous value.
func Comparison(current, previous float64, prefix string) Number {
	return Number{Item: []NumberItem{
		{Value: round2(current), Prefix: prefix},
		{Value: round2(previous), Prefix: prefix},
	}}
}

// LeaderboardItem is one row of a leaderboard.
type LeaderboardItem struct {
	Label        string  `json:"label"`
	Value        float64 `json:"value"`
	PreviousRank *int    `json:"previous_rank,omitempty"`
}

// Leaderboard is a ranked list widget.
type Leaderboard struct {
	Items []LeaderboardItem `json:"items"`
}

// FromRanked maps comparator output onto leaderboard rows, keeping order.
func FromRanked(ranked []feeder.RankedItem) Leaderboard {
	items := make([]LeaderboardItem, 0, len(ranked))
	for _, r := range ranked {
		items = append(items, LeaderboardItem{
			Label:        r.Label,
			Value:        round2(r.Total),
			PreviousRank: r.PreviousRank,
		})
	}
	return Leaderboard{Items: items}
}

// ListText is the title of a list row.
type ListText struct {
	Text string `json:"text"`
}

// ListLabel is the colored tag of a list row.
type ListLabel struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// ListItem is one row of a text list widget.
type ListItem struct {
	Title       ListText   `json:"title"`
	Label       *ListLabel `json:"label,omitempty"`
	Description string     `json:"description,omitempty"`
}

// List is a text list widget. It encodes as a bare JSON array.
type List []ListItem

// Row builds a list row. An empty label is omitted.
func Row(title, label, color, description string) ListItem {
	item := ListItem{Title: ListText{Text: title}, Description: description}
	if label != "" {
		item.Label = &ListLabel{Name: label, Color: color}
	}
	return item
}

// NewList returns rows as a List that encodes as [] when empty.
func NewList(rows ...ListItem) List {
	if rows == nil {
		return List{}
	}
	return List(rows)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
