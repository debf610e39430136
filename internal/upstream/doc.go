// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

/*
Package upstream is the HTTP layer shared by every SaaS integration.

A Client is bound to one integration (billing, analytics, feedback, crm) and
attaches that integration's credentials to every request:

  - BasicAuth: account token and secret as username/password
  - QueryToken: a token carried as a query parameter
  - BearerAuth: an OAuth access token obtained from a TokenSource

Resilience Mechanisms:
  - Client-side rate limiting with golang.org/x/time/rate
  - Circuit breaker per integration (sony/gobreaker), 5xx and transport
    errors count as failures, 4xx do not
  - Exponential backoff on HTTP 429 (1s, 2s, 4s, ...) honouring Retry-After
  - Context cancellation during backoff waits

Non-2xx responses are returned as *Error carrying the status and up to 64KB
of the response body. Errors are never cached by callers.

Token handling:
  - ClientCredentialsProvider fetches tokens with x/oauth2 clientcredentials
  - CachedTokenSource keeps the token in a cache.Store under a fixed key with
    TTL equal to the token's expires_in and refetches when it is absent
*/
package upstream
