// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

/*
Package metrics declares the Prometheus collectors Dashfeed exports on
/metrics. Collectors are registered with the default registry through
promauto at package init.

# Available Metrics

Widget API:
  - dashfeed_api_requests_total{method, route, status_code}
  - dashfeed_api_request_duration_seconds{method, route}
  - dashfeed_api_active_requests
  - dashfeed_api_rate_limit_hits_total{route}

Upstream integrations:
  - dashfeed_upstream_requests_total{integration, endpoint, status_code}
  - dashfeed_upstream_request_duration_seconds{integration}
  - dashfeed_upstream_retries_total{integration}
  - dashfeed_oauth_token_refreshes_total{integration, result}

Feeder cache and pagination:
  - dashfeed_cache_hits_total{integration}, dashfeed_cache_misses_total{integration}
  - dashfeed_cache_stores_total{integration, decision}
  - dashfeed_cache_errors_total{integration, operation}
  - dashfeed_collapsed_requests_total{integration}
  - dashfeed_cache_entries{store}, dashfeed_cache_evictions_total{store}
  - dashfeed_pages_fetched_total{integration}
  - dashfeed_pagination_overruns_total{integration}

Refresh loop:
  - dashfeed_refresh_runs_total{operation, result}
  - dashfeed_refresh_cycle_duration_seconds
  - dashfeed_refresh_last_success_timestamp_seconds

Circuit breakers (one per integration):
  - dashfeed_circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - dashfeed_circuit_breaker_requests_total{name, result}
  - dashfeed_circuit_breaker_consecutive_failures{name}
  - dashfeed_circuit_breaker_state_transitions_total{name, from_state, to_state}

# Example Queries

Cache hit ratio per integration:

	sum by (integration) (rate(dashfeed_cache_hits_total[5m]))
	  / (sum by (integration) (rate(dashfeed_cache_hits_total[5m]))
	   + sum by (integration) (rate(dashfeed_cache_misses_total[5m])))

Open breakers:

	dashfeed_circuit_breaker_state == 2
*/
package metrics
