// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

/*
Package api is the HTTP surface of Dashfeed.

Routes:

	GET /metrics                               Prometheus exposition
	GET /api/v1/health/live                    liveness
	GET /api/v1/health/ready                   integrations and breaker states
	GET /api/v1/widgets/billing/mrr            ?from&to&interval
	GET /api/v1/widgets/billing/leads
	GET /api/v1/widgets/billing/customers
	GET /api/v1/widgets/billing/net-movement
	GET /api/v1/widgets/billing/plans
	GET /api/v1/widgets/analytics/metric       ?metric&from&to&interval
	GET /api/v1/widgets/analytics/pages        ?days (1-90, default 7)
	GET /api/v1/widgets/feedback/nps           ?from&to
	GET /api/v1/widgets/feedback/comments      ?limit (1-50, default 10)
	GET /api/v1/widgets/crm/won
	GET /api/v1/widgets/crm/pipeline

Widget routes return the bare widget JSON (number, leaderboard or list) so a
dashboard product can poll them directly, guarded by an optional API key sent
as the Basic auth username. Health endpoints and all errors use the APIResponse
envelope:

	{"status":"error","data":null,"metadata":{...},"error":{"code":"UPSTREAM_ERROR","message":"..."}}

Dates are YYYY-MM-DD in the server's local time zone; without from/to a
comparison widget covers the month to date and compares it with the
preceding period of equal length.
*/
package api
