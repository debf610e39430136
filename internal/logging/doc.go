// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

// Package logging wraps a single global zerolog logger for Dashfeed.
//
// Every package logs through this one: JSON output in production, console
// output while developing, and per-request fields (request ID, correlation
// ID, integration name) carried on the context.
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//
//	logging.Info().Str("integration", "billing").Msg("[FEEDER] refresh complete")
//	logging.Ctx(ctx).Warn().Err(err).Msg("[UPSTREAM] request failed")
//
// Messages carry a bracketed component tag ([API], [FEEDER], [UPSTREAM],
// [CACHE], [SUPERVISOR]) so log lines from the same subsystem grep together.
//
// The slog adapter exists for suture, which only accepts a *slog.Logger:
//
//	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
package logging
