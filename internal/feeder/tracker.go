// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feeder

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	// StalenessWindow forces a full re-scan once the last one is this old.
	StalenessWindow = 7 * 24 * time.Hour

	// NetScale converts stored hundredths into whole units.
	NetScale = 100

	// movementPrefix marks the sub-movement keys of an MRR point.
	movementPrefix = "mrr-"
)

// BestMetricState is the best net movement seen within a tracking window.
// LastFetch is the time of the last full scan.
type BestMetricState struct {
	LastFetch   time.Time `json:"last_fetch"`
	WindowStart time.Time `json:"window_start"`
	Best        float64   `json:"best"`
	BestLabel   string    `json:"best_label"`
}

// NeedsRescan reports whether TrackBest will scan the whole series.
func (s BestMetricState) NeedsRescan(now time.Time) bool {
	return s.LastFetch.IsZero() || s.Best == 0 || now.Sub(s.LastFetch) > StalenessWindow
}

// Point is one entry of a movement series. Movement is anything ComputeNet
// accepts; Label is usually the period's date.
type Point struct {
	Label    string
	Movement any
}

// ComputeNet sums the sub-movements of v and divides by NetScale. v may be
// an array of numbers or an object whose "mrr-" keys are the sub-movements.
// Anything else yields 0.
func ComputeNet(v any) float64 {
	var sum float64
	switch t := v.(type) {
	case []float64:
		for _, n := range t {
			sum += n
		}
	case []int64:
		for _, n := range t {
			sum += float64(n)
		}
	case []int:
		for _, n := range t {
			sum += float64(n)
		}
	case []any:
		for _, n := range t {
			if f, ok := toFloat(n); ok {
				sum += f
			}
		}
	case map[string]float64:
		for k, n := range t {
			if strings.HasPrefix(k, movementPrefix) {
				sum += n
			}
		}
	case map[string]int64:
		for k, n := range t {
			if strings.HasPrefix(k, movementPrefix) {
				sum += float64(n)
			}
		}
	case map[string]any:
		for k, n := range t {
			if !strings.HasPrefix(k, movementPrefix) {
				continue
			}
			if f, ok := toFloat(n); ok {
				sum += f
			}
		}
	default:
		return 0
	}
	return sum / NetScale
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// TrackBest folds points into state and returns the new state. The input
// state is not modified.
//
// A full scan of every point happens when state has never been scanned,
// when Best is zero, or when the last full scan is older than
// StalenessWindow; it also moves LastFetch to now. Otherwise only the newest
// (last) point is evaluated. Best only ever increases.
//
// Best starts at zero, so a series with no positive net movement leaves
// Best at zero and BestLabel empty, and every call re-scans the full series.
func TrackBest(state BestMetricState, points []Point, now time.Time) BestMetricState {
	if len(points) == 0 {
		return state
	}

	candidates := points[len(points)-1:]
	if state.NeedsRescan(now) {
		candidates = points
		state.LastFetch = now
	}

	for _, p := range candidates {
		if net := ComputeNet(p.Movement); net > state.Best {
			state.Best = net
			state.BestLabel = p.Label
		}
	}
	return state
}
