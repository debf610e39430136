// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

/*
Package middleware provides the HTTP middleware the widget API mounts on its
chi router.

Key Components:

  - RequestID: X-Request-ID propagation and request/correlation IDs in the
    logging context
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled by
    chi route pattern
  - APIKey: the dashboard polls with its API key as the Basic auth username;
    requests without it get 401

Middleware Stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.APIKey(cfg.Security.APIKey))

All middleware use the standard func(http.Handler) http.Handler shape.
*/
package middleware
