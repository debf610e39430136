// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

/*
Package config loads Dashfeed configuration with koanf.

Sources, lowest precedence first: built-in defaults, an optional YAML file,
then environment variables. Only environment variables listed in the env
mapping are read.

# Environment Variables

Server and logging:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, ENVIRONMENT
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Cache:
  - CACHE_BACKEND: memory, lfu, redis, badger (default: memory)
  - CACHE_STATE_BACKEND: store for rolling feeder state (default: memory)
  - CACHE_DEFAULT_TTL, CACHE_MAX_ENTRIES, CACHE_KEY_PREFIX
  - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, BADGER_PATH

Security:
  - API_KEY: required Basic auth username on widget routes when set
  - CORS_ORIGINS: comma-separated
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Integrations (each has _ENABLED, _URL, _TIMEOUT, _RATE_LIMIT, _CACHE_TTL):
  - BILLING_ACCOUNT_TOKEN, BILLING_SECRET_KEY, BILLING_START_PAGE,
    BILLING_MAX_PAGES, BILLING_NET_MOVEMENT_START_DATE
  - ANALYTICS_CLIENT_ID, ANALYTICS_CLIENT_SECRET, ANALYTICS_TOKEN_URL,
    ANALYTICS_SCOPES, ANALYTICS_VIEW_ID
  - FEEDBACK_API_KEY, FEEDBACK_PER_PAGE, FEEDBACK_MAX_PAGES
  - CRM_API_TOKEN, CRM_PAGE_LIMIT, CRM_MAX_PAGES

# Example config.yaml

	server:
	  port: 3030
	cache:
	  backend: redis
	  state_backend: badger
	  redis_addr: redis:6379
	  badger_path: /data/dashfeed
	  badger_gc_interval: 5m
	billing:
	  enabled: true
	  account_token: "..."
	  secret_key: "..."
	  net_movement_start_date: "2019-06-01"
*/
package config
