// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feeder

import (
	"context"
	"sync"

	"github.com/tomtom215/dashfeed/internal/cache"
	"github.com/tomtom215/dashfeed/internal/logging"
)

// Snapshot is a piece of feeder-owned state persisted in a store.
//
// The mutex covers reading and writing the value only, never store I/O or
// upstream calls. Two concurrent refreshes may therefore compute from the
// same snapshot; the later Save wins.
type Snapshot[T any] struct {
	store cache.Store
	key   string

	mu     sync.Mutex
	val    T
	loaded bool
}

// NewSnapshot returns a Snapshot persisted under key. A nil store keeps the
// value in memory only.
func NewSnapshot[T any](store cache.Store, key string) *Snapshot[T] {
	return &Snapshot[T]{store: store, key: key}
}

// Load returns the current value, reading it from the store the first time.
// A store failure is logged and yields the zero value.
func (s *Snapshot[T]) Load(ctx context.Context) T {
	s.mu.Lock()
	if s.loaded || s.store == nil {
		v := s.val
		s.mu.Unlock()
		return v
	}
	s.mu.Unlock()

	v, ok, err := cache.GetJSON[T](ctx, s.store, s.key)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", s.key).Msg("[FEEDER] state unreadable, starting fresh")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		if ok {
			s.val = v
		}
		s.loaded = true
	}
	return s.val
}

// Save replaces the value and persists it without expiry. A store failure
// is logged; the in-memory value is kept either way.
func (s *Snapshot[T]) Save(ctx context.Context, v T) {
	s.mu.Lock()
	s.val = v
	s.loaded = true
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.store, s.key, v, 0); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", s.key).Msg("[FEEDER] state not persisted")
	}
}
