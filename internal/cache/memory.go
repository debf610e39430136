// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mailgun/holster/v4/clock"

	"github.com/tomtom215/dashfeed/internal/metrics"
)

// cleanupInterval is how often the janitor sweeps expired entries.
const cleanupInterval = 5 * time.Minute

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero: never expires
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Stats is a snapshot of store counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// HitRate returns hits as a percentage of lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// MemoryStore is an unbounded in-process Store. Expired entries are dropped
// lazily on Get and by a background janitor stopped by Close.
type MemoryStore struct {
	name string

	mu      sync.RWMutex
	entries map[string]memoryEntry
	stats   Stats
	closed  bool

	stop chan struct{}
	done chan struct{}
}

// NewMemoryStore starts a MemoryStore; name labels its metrics.
func NewMemoryStore(name string) *MemoryStore {
	s := &MemoryStore{
		name:    name,
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.stats.LastCleanup = clock.Now()
	go s.cleanupLoop()
	return s
}

// Get implements Store. Values are copied so callers may mutate them.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, false, ErrClosed
	}
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		s.count(func(st *Stats) { st.Misses++ })
		return nil, false, nil
	}
	if e.expired(clock.Now()) {
		s.mu.Lock()
		// Re-check: a concurrent Set may have refreshed the entry.
		if cur, still := s.entries[key]; still && cur.expired(clock.Now()) {
			delete(s.entries, key)
			s.stats.Evictions++
			s.stats.TotalKeys = int64(len(s.entries))
			metrics.CacheEvictions.WithLabelValues(s.name).Inc()
		}
		s.stats.Misses++
		s.mu.Unlock()
		return nil, false, nil
	}

	s.count(func(st *Stats) { st.Hits++ })
	return append([]byte(nil), e.value...), true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = clock.Now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.entries[key] = e
	s.stats.TotalKeys = int64(len(s.entries))
	metrics.CacheSize.WithLabelValues(s.name).Set(float64(len(s.entries)))
	return nil
}

// Delete implements Store. Deleting a missing key is not an error.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.entries[key]; ok {
		delete(s.entries, key)
		s.stats.Evictions++
		s.stats.TotalKeys = int64(len(s.entries))
	}
	return nil
}

// Close stops the janitor. Further calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.entries = nil
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	return nil
}

// Stats returns a copy of the counters.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *MemoryStore) count(f func(*Stats)) {
	s.mu.Lock()
	f(&s.stats)
	s.mu.Unlock()
}

func (s *MemoryStore) cleanupLoop() {
	defer close(s.done)
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries and returns how many were dropped.
func (s *MemoryStore) cleanup() int {
	now := clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			removed++
		}
	}
	s.stats.Evictions += int64(removed)
	s.stats.TotalKeys = int64(len(s.entries))
	s.stats.LastCleanup = now
	metrics.CacheEvictions.WithLabelValues(s.name).Add(float64(removed))
	metrics.CacheSize.WithLabelValues(s.name).Set(float64(len(s.entries)))
	return removed
}

var _ Store = (*MemoryStore)(nil)
