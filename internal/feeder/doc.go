// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

/*
Package feeder holds the caching, pagination and aggregation core shared by
every integration under internal/feeders.

Components, leaves first:

  - Canonicalize derives a CacheKey from an endpoint and its query
    parameters, dropping volatile date-range and interval fields so that
    equivalent requests share one cache entry.
  - Fetcher checks the store, calls the upstream Doer on a miss, and lets a
    CachePolicy closure decide whether and what to store. Concurrent misses
    for one key share a single upstream call.
  - Collect walks a paged collection in page order until a page reports no
    more entries, with a hard MaxPages ceiling.
  - ComputeNet and TrackBest maintain the best observed net movement of a
    series as a pure state transition.
  - CompareRanks annotates a ranked list with up/down movement against the
    previous snapshot.

Feeder-owned state (BestMetricState, previous rankings) lives in a Snapshot,
which guards the value with a mutex held only while reading or writing it and
persists it through a cache.Store.

Errors:
  - ErrMissingDestination: empty endpoint on a cache miss
  - ErrPaginationOverrun: MaxPages reached with more pages remaining
  - ErrInvalidArgument: programming errors such as unranked items
  - upstream errors are returned unchanged and never cached
*/
package feeder
