// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feeder

import "errors"

var (
	// ErrMissingDestination is returned when a cache miss has no endpoint to call.
	ErrMissingDestination = errors.New("feeder: missing destination endpoint")

	// ErrPaginationOverrun is returned when a collection still reports more
	// pages after MaxPages fetches.
	ErrPaginationOverrun = errors.New("feeder: pagination overrun")

	// ErrInvalidArgument marks caller bugs, e.g. ranking items without an ID.
	ErrInvalidArgument = errors.New("feeder: invalid argument")
)
