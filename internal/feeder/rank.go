// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feeder

import (
	"fmt"
	"sort"
)

const (
	// RankUp and RankDown are the PreviousRank values for an item whose
	// total rose or fell since the previous snapshot.
	RankUp   = 10
	RankDown = 1

	// TopN is the length of a compared ranking.
	TopN = 5

	// minRankedTotal drops negligible entries (totals of 0 or 1).
	minRankedTotal = 1
)

// RankedItem is one row of a leaderboard.
type RankedItem struct {
	// ID is the stable identity used for matching (plan UUID, stage id).
	ID           string  `json:"id"`
	Label        string  `json:"label"`
	Total        float64 `json:"total"`
	PreviousRank *int    `json:"previous_rank,omitempty"`
}

// CompareRanks annotates current against previous by ID and returns the
// top TopN items by Total. Items with Total <= 1 are dropped. An item whose
// ID is not in previous, or whose total is unchanged, gets no annotation.
//
// Every current item must have an ID; otherwise ErrInvalidArgument.
func CompareRanks(current, previous []RankedItem) ([]RankedItem, error) {
	prevTotals := make(map[string]float64, len(previous))
	for _, p := range previous {
		if p.ID != "" {
			prevTotals[p.ID] = p.Total
		}
	}

	out := make([]RankedItem, 0, len(current))
	for i, item := range current {
		if item.ID == "" {
			return nil, fmt.Errorf("%w: ranked item %d (%q) has no id", ErrInvalidArgument, i, item.Label)
		}
		if item.Total <= minRankedTotal {
			continue
		}

		item.PreviousRank = nil
		if prev, ok := prevTotals[item.ID]; ok {
			switch {
			case item.Total > prev:
				item.PreviousRank = rankPtr(RankUp)
			case item.Total < prev:
				item.PreviousRank = rankPtr(RankDown)
			}
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	if len(out) > TopN {
		out = out[:TopN]
	}
	return out, nil
}

func rankPtr(v int) *int { return &v }

// RankingHistory keeps the last two distinct rankings so that movement
// stays visible until totals change again.
type RankingHistory struct {
	Previous []RankedItem `json:"previous"`
	Latest   []RankedItem `json:"latest"`
}

// Observe records current and returns the baseline to compare it with,
// plus whether the history changed and needs saving.
func (h *RankingHistory) Observe(current []RankedItem) ([]RankedItem, bool) {
	if h.Latest == nil || rankingChanged(current, h.Latest) {
		if h.Latest != nil {
			h.Previous = h.Latest
		}
		h.Latest = current
		return h.Previous, true
	}
	return h.Previous, false
}

func rankingChanged(current, previous []RankedItem) bool {
	if len(current) != len(previous) {
		return true
	}
	prev := make(map[string]float64, len(previous))
	for _, p := range previous {
		prev[p.ID] = p.Total
	}
	for _, c := range current {
		if t, ok := prev[c.ID]; !ok || t != c.Total {
			return true
		}
	}
	return false
}
