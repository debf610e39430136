// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/dashfeed/internal/feeder"
	"github.com/tomtom215/dashfeed/internal/logging"
	"github.com/tomtom215/dashfeed/internal/upstream"
)

// ErrIntegrationDisabled is returned for widgets whose integration is not
// configured.
var ErrIntegrationDisabled = errors.New("integration is not enabled")

// statusForError maps a feeder error to an HTTP status and error code.
//
//	breaker open, rate limit exhausted   503 UPSTREAM_UNAVAILABLE
//	deadline exceeded                    504 UPSTREAM_TIMEOUT
//	non-2xx upstream response            502 UPSTREAM_ERROR
//	pagination overrun                   502 PAGINATION_OVERRUN
//	missing endpoint, invalid argument   500 INTERNAL_ERROR
func statusForError(err error) (int, string) {
	var uerr *upstream.Error
	switch {
	case errors.Is(err, ErrIntegrationDisabled):
		return http.StatusServiceUnavailable, "INTEGRATION_DISABLED"
	case upstream.IsUnavailable(err), errors.Is(err, upstream.ErrRateLimited):
		return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"
	case errors.As(err, &uerr):
		return http.StatusBadGateway, "UPSTREAM_ERROR"
	case errors.Is(err, feeder.ErrPaginationOverrun):
		return http.StatusBadGateway, "PAGINATION_OVERRUN"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// respondFeederError logs the failure with the integration and writes the
// mapped envelope. Upstream bodies are never echoed to the client.
func respondFeederError(w http.ResponseWriter, r *http.Request, integration string, err error) {
	status, code := statusForError(err)

	event := logging.Ctx(r.Context()).Error()
	if status < http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		event = logging.Ctx(r.Context()).Warn()
	}
	event.Err(err).
		Str("integration", integration).
		Str("code", code).
		Int("status", status).
		Msg("[API] Widget request failed")

	respondError(w, status, code, messageForCode(code, integration), nil)
}

func messageForCode(code, integration string) string {
	switch code {
	case "INTEGRATION_DISABLED":
		return integration + " integration is not enabled"
	case "UPSTREAM_UNAVAILABLE":
		return integration + " is temporarily unavailable"
	case "UPSTREAM_TIMEOUT":
		return integration + " did not respond in time"
	case "UPSTREAM_ERROR":
		return integration + " returned an error"
	case "PAGINATION_OVERRUN":
		return integration + " returned more pages than allowed"
	default:
		return "Internal server error"
	}
}
