// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package upstream

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	gobreaker "github.com/sony/gobreaker/v2"
)

// maxErrorBodySize limits how much of a failed response is kept for reporting.
const maxErrorBodySize = 64 * 1024 // 64KB

// Error is a non-2xx upstream response.
type Error struct {
	Integration string
	Endpoint    string
	StatusCode  int
	Body        []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: upstream status %d: %s", e.Integration, e.Endpoint, e.StatusCode, e.Body)
}

// Temporary reports whether retrying later might succeed.
func (e *Error) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ErrRateLimited is wrapped when 429 responses outlast the retry budget.
var ErrRateLimited = errors.New("upstream: rate limit exceeded")

// IsUnavailable reports whether err came from an open or saturated breaker.
func IsUnavailable(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// readBodyForError reads at most 64KB of r, marking truncation.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
