// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns the defaults applied to zero TreeConfig fields.
// They match suture's own defaults, so an empty TreeConfig behaves like a
// plain suture.Spec.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// SupervisorTree is the two-layer supervisor for Dashfeed.
//
// The tree is organized into two layers under one root:
//   - feeders: the background refresh loop that warms widget caches
//   - api: the HTTP server answering dashboard polls
//
// The split provides failure isolation. A refresh loop that keeps crashing
// (an integration returning malformed payloads, say) backs off inside the
// feeders layer without restarting the HTTP server, and widgets keep being
// served from whatever the cache already holds.
//
// Both layers share the failure parameters of TreeConfig. Only the root
// carries the sutureslog event hook; child supervisors report their events
// through it once added.
type SupervisorTree struct {
	root    *suture.Supervisor
	feeders *suture.Supervisor
	api     *suture.Supervisor
	config  TreeConfig
}

// NewSupervisorTree builds the root and both layer supervisors.
//
// Zero fields of config take the DefaultTreeConfig values. logger receives
// suture's lifecycle events (service panics, restarts, backoff) through
// sutureslog. Nothing runs until Serve or ServeBackground is called.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	defaults := DefaultTreeConfig()
	if config.FailureThreshold == 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = defaults.FailureDecay
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = defaults.FailureBackoff
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}

	// MustHook has a pointer receiver.
	handler := &sutureslog.Handler{Logger: logger}

	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("dashfeed", rootSpec)
	feeders := suture.New("feeders-layer", childSpec)
	api := suture.New("api-layer", childSpec)
	root.Add(feeders)
	root.Add(api)

	return &SupervisorTree{
		root:    root,
		feeders: feeders,
		api:     api,
		config:  config,
	}, nil
}

// Root returns the root supervisor for direct access, for example to add
// a service outside both layers in tests.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// AddFeederService adds a service to the feeders layer supervisor.
// Use this for the refresh loop and anything else that talks to upstream
// integrations in the background.
func (t *SupervisorTree) AddFeederService(svc suture.Service) suture.ServiceToken {
	return t.feeders.Add(svc)
}

// AddAPIService adds a service to the API layer supervisor.
// Use this for the HTTP server.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree until ctx is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine.
//
// The returned channel yields the root's result once ctx is canceled and
// every service has stopped or timed out, then closes. main drains it
// before reading UnstoppedServiceReport.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that did not stop within
// ShutdownTimeout. Call it only after the tree has finished serving.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// RemoveAndWait removes a service and waits up to timeout for it to stop.
func (t *SupervisorTree) RemoveAndWait(token suture.ServiceToken, timeout time.Duration) error {
	return t.root.RemoveAndWait(token, timeout)
}
