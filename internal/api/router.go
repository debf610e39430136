// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/dashfeed/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	apiKey        string
}

// NewRouter creates a router. apiKey guards widget routes when non-empty.
func NewRouter(handler *Handler, chiMW *ChiMiddleware, apiKey string) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: chiMW, apiKey: apiKey}
}

// Setup builds the route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/widgets", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("widgets"))
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.APIKey(router.apiKey))
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Route("/billing", func(r chi.Router) {
			r.Get("/mrr", router.handler.BillingMRR)
			r.Get("/leads", router.handler.BillingLeads)
			r.Get("/customers", router.handler.BillingCustomers)
			r.Get("/net-movement", router.handler.BillingNetMovement)
			r.Get("/plans", router.handler.BillingPlans)
		})
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/metric", router.handler.AnalyticsMetric)
			r.Get("/pages", router.handler.AnalyticsPages)
		})
		r.Route("/feedback", func(r chi.Router) {
			r.Get("/nps", router.handler.FeedbackNPS)
			r.Get("/comments", router.handler.FeedbackComments)
		})
		r.Route("/crm", func(r chi.Router) {
			r.Get("/won", router.handler.CRMWon)
			r.Get("/pipeline", router.handler.CRMPipeline)
		})
	})

	return r
}
