// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/dashfeed/internal/api"
	"github.com/tomtom215/dashfeed/internal/cache"
	"github.com/tomtom215/dashfeed/internal/config"
	"github.com/tomtom215/dashfeed/internal/feeder"
	"github.com/tomtom215/dashfeed/internal/feeders/analytics"
	"github.com/tomtom215/dashfeed/internal/feeders/billing"
	"github.com/tomtom215/dashfeed/internal/feeders/crm"
	"github.com/tomtom215/dashfeed/internal/feeders/feedback"
	"github.com/tomtom215/dashfeed/internal/logging"
)

// stores holds the two caches shared by every feeder.
type stores struct {
	responses cache.Store
	state     cache.Store
}

// openStores opens the response cache and the feeder state store. When both
// use the same on-disk or remote backend they share one connection.
func openStores(ctx context.Context, cfg config.CacheConfig) (*stores, error) {
	base := cache.Options{
		MaxEntries:       cfg.MaxEntries,
		KeyPrefix:        cfg.KeyPrefix,
		RedisAddr:        cfg.RedisAddr,
		RedisPassword:    cfg.RedisPassword,
		RedisDB:          cfg.RedisDB,
		BadgerPath:       cfg.BadgerPath,
		BadgerGCInterval: cfg.BadgerGCInterval,
	}

	respOpts := base
	respOpts.Backend = cache.Backend(cfg.Backend)
	respOpts.Name = "responses"
	responses, err := cache.New(ctx, respOpts)
	if err != nil {
		return nil, fmt.Errorf("response cache: %w", err)
	}

	stateBackend := cache.Backend(cfg.StateBackend)
	if stateBackend == respOpts.Backend && (stateBackend == cache.BackendRedis || stateBackend == cache.BackendBadger) {
		return &stores{responses: responses, state: responses}, nil
	}

	stateOpts := base
	stateOpts.Backend = stateBackend
	stateOpts.Name = "state"
	state, err := cache.New(ctx, stateOpts)
	if err != nil {
		_ = responses.Close()
		return nil, fmt.Errorf("state store: %w", err)
	}
	return &stores{responses: responses, state: state}, nil
}

// Close closes both stores once.
func (s *stores) Close() error {
	err := s.responses.Close()
	if s.state != s.responses {
		if serr := s.state.Close(); err == nil {
			err = serr
		}
	}
	return err
}

// buildSources constructs a feeder for every enabled integration. Disabled
// integrations leave their Sources field nil so the API reports them as
// disabled; never assign a typed nil pointer here.
func buildSources(cfg *config.Config, st *stores) (api.Sources, []feeder.Job, error) {
	var (
		src  = api.Sources{Stores: map[string]cache.Store{"responses": st.responses, "state": st.state}}
		jobs []feeder.Job
	)
	add := func(in api.Integration) {
		src.Integrations = append(src.Integrations, in)
		jobs = append(jobs, in.Jobs()...)
		logging.Info().Str("integration", in.Name()).Int("jobs", len(in.Jobs())).Msg("[FEEDERS] Integration enabled")
	}

	if cfg.Billing.Enabled {
		f, err := billing.NewFromConfig(cfg.Billing, st.responses, st.state)
		if err != nil {
			return api.Sources{}, nil, err
		}
		src.Billing = f
		add(f)
	}
	if cfg.Analytics.Enabled {
		f := analytics.NewFromConfig(cfg.Analytics, st.responses, st.state)
		src.Analytics = f
		add(f)
	}
	if cfg.Feedback.Enabled {
		f := feedback.NewFromConfig(cfg.Feedback, st.responses)
		src.Feedback = f
		add(f)
	}
	if cfg.CRM.Enabled {
		f := crm.NewFromConfig(cfg.CRM, st.responses, st.state)
		src.CRM = f
		add(f)
	}

	if len(src.Integrations) == 0 {
		logging.Warn().Msg("[FEEDERS] No integrations enabled; every widget will answer 503")
	}
	return src, jobs, nil
}
