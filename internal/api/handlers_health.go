// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/tomtom215/dashfeed/internal/cache"
	"github.com/tomtom215/dashfeed/internal/metrics"
	"github.com/tomtom215/dashfeed/internal/middleware"
)

// storePingTimeout bounds each store check in HealthReady.
const storePingTimeout = 2 * time.Second

// IntegrationStatus is one row of the readiness report.
type IntegrationStatus struct {
	Name    string `json:"name"`
	Breaker string `json:"breaker"`
	Jobs    int    `json:"jobs"`
}

// StoreStatus is one cache backend in the readiness report. Keys and
// HitRate are only filled for in-process stores.
type StoreStatus struct {
	Name      string   `json:"name"`
	Reachable bool     `json:"reachable"`
	Error     string   `json:"error,omitempty"`
	Keys      *int64   `json:"keys,omitempty"`
	HitRate   *float64 `json:"hit_rate,omitempty"`
}

// HealthLive reports that the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data: map[string]any{
			"alive":   true,
			"uptime":  time.Since(h.startTime).Seconds(),
			"version": h.opts.Version,
		},
		Metadata: Metadata{Timestamp: time.Now(), RequestID: middleware.GetRequestID(r.Context())},
	})
}

// HealthReady reports enabled integrations, their circuit breakers and the
// cache stores.
//
// The service is ready while at least one integration can be reached and
// every store answers. It is not ready with nothing enabled, with every
// breaker open, or with a store down: a dead state store would silently
// reset rankings and best values.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	statuses := make([]IntegrationStatus, 0, len(h.src.Integrations))
	reachable := 0
	for _, in := range h.src.Integrations {
		state := in.BreakerState()
		if state != "open" {
			reachable++
		}
		statuses = append(statuses, IntegrationStatus{
			Name:    in.Name(),
			Breaker: state,
			Jobs:    len(in.Jobs()),
		})
	}

	stores, storesOK := h.checkStores(r.Context())

	ready := reachable > 0 && storesOK
	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &APIResponse{
		Status: status,
		Data: map[string]any{
			"ready_to_serve": ready,
			"integrations":   statuses,
			"stores":         stores,
			"uptime":         time.Since(h.startTime).Seconds(),
		},
		Metadata: Metadata{Timestamp: time.Now(), RequestID: middleware.GetRequestID(r.Context())},
	})
}

// checkStores pings every store in name order and publishes the hit rate of
// those that keep counters.
func (h *Handler) checkStores(ctx context.Context) ([]StoreStatus, bool) {
	names := make([]string, 0, len(h.src.Stores))
	for name := range h.src.Stores {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]StoreStatus, 0, len(names))
	allOK := true
	for _, name := range names {
		s := h.src.Stores[name]
		st := StoreStatus{Name: name, Reachable: true}

		pingCtx, cancel := context.WithTimeout(ctx, storePingTimeout)
		err := cache.Ping(pingCtx, s)
		cancel()
		if err != nil {
			st.Reachable = false
			st.Error = err.Error()
			allOK = false
		}

		if stats, ok := cache.StatsOf(s); ok {
			keys, rate := stats.TotalKeys, stats.HitRate()
			st.Keys, st.HitRate = &keys, &rate
			metrics.CacheHitRate.WithLabelValues(name).Set(rate)
		}
		out = append(out, st)
	}
	return out, allOK
}
