// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

// Package services adapts Dashfeed components to suture.Service.
//
// HTTPServerService turns http.Server's blocking ListenAndServe into a
// context-aware Serve with graceful shutdown. RefreshService runs feeder jobs
// on an interval with a per-job timeout and a concurrency cap, recording each
// run in the refresh metrics.
package services
