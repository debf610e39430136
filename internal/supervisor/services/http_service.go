// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/dashfeed/internal/logging"
)

// HTTPServer is the lifecycle subset of *http.Server.
//
// HTTPServerService depends on this interface rather than on *http.Server
// so tests can drive start-up failures and slow shutdowns with a fake.
//
// Satisfied by *http.Server from net/http:
//   - ListenAndServe() error
//   - Shutdown(ctx context.Context) error
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs the widget API server under suture.
//
// http.Server blocks in ListenAndServe and stops through a separate
// Shutdown call, while suture expects a Serve method that returns when its
// context is canceled. The service bridges the two:
//
//  1. ListenAndServe runs in its own goroutine
//  2. Serve waits for either a listener error or context cancellation
//  3. On cancellation, Shutdown drains in-flight widget requests within
//     the configured timeout
//
// A listener error (port in use, permission denied) is returned so suture
// restarts the service with backoff. Dashboard polls that arrive during a
// restart fail fast at the TCP level and are retried by the dashboard.
//
// Example usage:
//
//	server := &http.Server{Addr: cfg.Server.Addr(), Handler: router.Setup()}
//	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps server for supervision.
//
// shutdownTimeout bounds how long Shutdown waits for active requests.
// Widget handlers can block on a slow upstream until their own timeout, so
// keep it at or above the largest integration timeout. A non-positive value
// means 10s.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
//
// It listens until ctx is canceled, then shuts the server down gracefully
// and returns ctx.Err(). http.ErrServerClosed is expected after Shutdown and
// is not reported. A listener failure is returned wrapped so suture can
// restart the service. A Shutdown that exceeds the timeout is returned as
// an error, leaving the remaining connections to be cut by process exit.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		logging.Info().Dur("timeout", h.shutdownTimeout).Msg("[HTTP] Shutting down server")

		// ctx is already canceled.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer; suture uses it in log events.
func (h *HTTPServerService) String() string {
	return "http-server"
}
