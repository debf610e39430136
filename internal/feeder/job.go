// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feeder

import "context"

// Job is a named feeder operation the refresh service runs to keep caches
// and rolling state warm.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}
