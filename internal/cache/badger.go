// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/dashfeed/internal/logging"
	"github.com/tomtom215/dashfeed/internal/metrics"
)

const (
	// DefaultBadgerGCInterval is how often the value log is garbage
	// collected when no interval is configured.
	DefaultBadgerGCInterval = 5 * time.Minute

	badgerGCRatio = 0.5
)

// BadgerStore keeps entries on local disk, so rolling feeder state (best
// observed values, previous rankings) survives a restart.
//
// Every refresh cycle rewrites the state snapshots, and badger only reclaims
// value-log space through explicit GC, so the store runs RunGC on a ticker
// from open until Close.
type BadgerStore struct {
	db *badger.DB

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	gcRuns   atomic.Int64
}

// OpenBadgerStore opens or creates a database at path and starts the
// value-log GC loop. inMemory ignores path and is meant for tests.
// gcInterval zero means DefaultBadgerGCInterval; negative disables the loop.
func OpenBadgerStore(path string, inMemory bool, gcInterval time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open badger %s: %w", path, err)
	}
	if gcInterval == 0 {
		gcInterval = DefaultBadgerGCInterval
	}
	s := &BadgerStore{db: db, stop: make(chan struct{}), done: make(chan struct{})}
	if gcInterval > 0 {
		go s.gcLoop(gcInterval)
	} else {
		close(s.done)
	}
	logging.Info().
		Str("path", path).
		Bool("in_memory", inMemory).
		Dur("gc_interval", gcInterval).
		Msg("[CACHE] badger store opened")
	return s, nil
}

func (s *BadgerStore) gcLoop(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("[CACHE] badger value log GC failed")
			}
		}
	}
}

// Get implements Store. Badger enforces TTL itself.
func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: badger get %s: %w", key, err)
	}
	return out, true, nil
}

// Set implements Store.
func (s *BadgerStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("cache: badger set %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *BadgerStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("cache: badger delete %s: %w", key, err)
	}
	return nil
}

// RunGC reclaims value-log space, rewriting files until badger reports
// there is nothing left to collect. ErrNoRewrite and in-memory mode are not
// errors here.
func (s *BadgerStore) RunGC() error {
	s.gcRuns.Add(1)
	for {
		err := s.db.RunValueLogGC(badgerGCRatio)
		switch {
		case err == nil:
			continue
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
			metrics.BadgerGCRuns.WithLabelValues("success").Inc()
			return nil
		default:
			metrics.BadgerGCRuns.WithLabelValues("failure").Inc()
			return fmt.Errorf("cache: badger gc: %w", err)
		}
	}
}

// GCRuns reports how many GC passes have run.
func (s *BadgerStore) GCRuns() int64 { return s.gcRuns.Load() }

// Ping reports ErrClosed once the database is closed.
func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

// Close stops the GC loop and closes the database.
func (s *BadgerStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	return s.db.Close()
}

var _ Store = (*BadgerStore)(nil)
