// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

/*
Package main is the entry point for the Dashfeed server.

Dashfeed pulls business metrics from SaaS tools (subscription billing, web
analytics, NPS surveys, CRM) and reshapes them into the widget payloads that
polling dashboard products render: number tiles, leaderboards and lists.

# Application Architecture

	RootSupervisor ("dashfeed")
	├── FeedersSupervisor ("feeders-layer")
	│   └── RefreshService (optional, REFRESH_ENABLED)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config file
 2. Logging: zerolog with JSON/console output modes
 3. Cache stores: response cache and feeder state (memory, lfu, redis, badger)
 4. Feeders: one per enabled integration, each with its own rate limiter
    and circuit breaker
 5. HTTP Server: Chi router with request ID, CORS, rate limit and API key
 6. Supervisor Tree: Suture v4 process supervision

# Configuration

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	HTTP_PORT=3030
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console
	API_KEY=<key>                # Basic auth username for widget routes

	CACHE_BACKEND=memory         # memory, lfu, redis, badger
	CACHE_STATE_BACKEND=memory   # use redis or badger to keep rankings across restarts
	REDIS_ADDR=127.0.0.1:6379

	BILLING_ENABLED=true
	BILLING_ACCOUNT_TOKEN=<token>
	BILLING_SECRET_KEY=<secret>

	ANALYTICS_ENABLED=true
	ANALYTICS_CLIENT_ID=<id>
	ANALYTICS_CLIENT_SECRET=<secret>
	ANALYTICS_VIEW_ID=<view>

	FEEDBACK_ENABLED=true
	FEEDBACK_API_KEY=<key>

	CRM_ENABLED=true
	CRM_API_TOKEN=<token>

# Signal Handling

On SIGINT or SIGTERM the supervisor cancels the refresh loop, the HTTP
server drains in-flight requests (10s timeout), the cache stores are closed
and any service that failed to stop is reported.

# Usage

	export BILLING_ENABLED=true BILLING_ACCOUNT_TOKEN=xxx BILLING_SECRET_KEY=yyy
	export API_KEY=$(openssl rand -hex 16)
	go run ./cmd/server

	curl -u "$API_KEY:x" http://localhost:3030/api/v1/widgets/billing/mrr

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/feeders: Per-integration widget feeders
*/
package main
