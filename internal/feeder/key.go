// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feeder

import (
	"net/url"
	"strings"
)

// CacheKey identifies a request for caching purposes. Two requests with the
// same endpoint and non-volatile parameters have equal keys.
type CacheKey string

// volatileParams never take part in a CacheKey.
var volatileParams = map[string]struct{}{
	"start-date": {},
	"end-date":   {},
	"start_date": {},
	"end_date":   {},
	"startDate":  {},
	"endDate":    {},
	"since":      {},
	"until":      {},
	"interval":   {},
}

// IsVolatile reports whether a query parameter is excluded from cache keys.
func IsVolatile(param string) bool {
	_, ok := volatileParams[param]
	return ok
}

// Canonicalize returns the cache key for endpoint and params. Parameter
// order does not matter; nil params are treated as empty. The endpoint is
// path-escaped, so a literal '?' in it cannot collide with the parameters.
func Canonicalize(endpoint string, params map[string]string) CacheKey {
	stable := url.Values{}
	for k, v := range params {
		if IsVolatile(k) {
			continue
		}
		stable.Set(k, v)
	}

	var b strings.Builder
	b.WriteString((&url.URL{Path: endpoint}).EscapedPath())
	if len(stable) > 0 {
		b.WriteByte('?')
		// Encode sorts by key.
		b.WriteString(stable.Encode())
	}
	return CacheKey(b.String())
}
