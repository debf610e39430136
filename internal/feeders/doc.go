// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

/*
Package feeders groups the per-integration feeders. Each subpackage binds one
upstream SaaS API to the shared core in internal/feeder:

  - billing: subscription analytics (customers, leads, MRR, net movement,
    top plans)
  - analytics: web analytics (metric comparisons, top pages)
  - feedback: NPS survey results and recent comments
  - crm: deal pipeline (won deals, open value per stage)

Every feeder exposes typed operations returning JSON-serializable results and
a Jobs list for the background refresh service.
*/
package feeders
