// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mailgun/holster/v4/clock"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/dashfeed/internal/feeder"
	"github.com/tomtom215/dashfeed/internal/logging"
	"github.com/tomtom215/dashfeed/internal/metrics"
)

const defaultRefreshConcurrency = 4

// RefreshConfig drives RefreshService.
type RefreshConfig struct {
	// Interval between the end of one cycle and the start of the next.
	Interval time.Duration

	// Timeout bounds each job. Zero means no per-job limit.
	Timeout time.Duration

	// Concurrency caps jobs running at once. Default 4.
	Concurrency int
}

// RefreshService periodically runs every feeder job so the response cache
// and rolling state stay warm between dashboard polls. The first cycle runs
// immediately.
//
// A failing job is logged and counted; it never stops the cycle or the
// service. Serve returns only when ctx is canceled.
type RefreshService struct {
	jobs   []feeder.Job
	config RefreshConfig
	cycles atomic.Int64
}

// NewRefreshService creates the service over jobs.
func NewRefreshService(jobs []feeder.Job, cfg RefreshConfig) *RefreshService {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultRefreshConcurrency
	}
	return &RefreshService{jobs: jobs, config: cfg}
}

// Serve implements suture.Service.
func (s *RefreshService) Serve(ctx context.Context) error {
	logging.Info().
		Int("jobs", len(s.jobs)).
		Dur("interval", s.config.Interval).
		Msg("[REFRESH] Starting refresh loop")

	for {
		s.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(s.config.Interval):
		}
	}
}

// RunOnce runs every job once and returns the number that failed.
func (s *RefreshService) RunOnce(ctx context.Context) int {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	start := clock.Now()

	var failures atomic.Int32
	var g errgroup.Group
	g.SetLimit(s.config.Concurrency)

	for _, job := range s.jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := s.run(ctx, job); err != nil {
				failures.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	elapsed := clock.Now().Sub(start)
	metrics.RecordRefreshCycle(elapsed, int(failures.Load()))
	s.cycles.Add(1)

	logging.Ctx(ctx).Debug().
		Int("jobs", len(s.jobs)).
		Int32("failures", failures.Load()).
		Dur("duration", elapsed).
		Msg("[REFRESH] Cycle complete")
	return int(failures.Load())
}

// Cycles reports how many cycles have completed.
func (s *RefreshService) Cycles() int64 {
	return s.cycles.Load()
}

func (s *RefreshService) run(ctx context.Context, job feeder.Job) (err error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("refresh job %s panicked: %v", job.Name, r)
		}
		metrics.RecordRefresh(job.Name, err)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("job", job.Name).Msg("[REFRESH] Job failed")
		}
	}()

	return job.Run(ctx)
}

func (s *RefreshService) String() string {
	return "refresh"
}
