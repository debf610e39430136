// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Store is a byte-oriented key-value store with per-entry TTL.
//
// A ttl of zero means the entry never expires; feeders use that for their
// rolling state. Get reports a miss as (nil, false, nil); errors are reserved
// for backend failures.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Pinger is implemented by stores backed by something that can become
// unreachable (a redis server, a badger directory).
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsReporter is implemented by in-process stores that count lookups.
type StatsReporter interface {
	Stats() Stats
}

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("cache: store closed")

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendLFU    Backend = "lfu"
	BackendRedis  Backend = "redis"
	BackendBadger Backend = "badger"
)

// Options configures New.
type Options struct {
	Backend Backend

	// Name labels the store in metrics ("responses", "state").
	Name string

	// MaxEntries bounds the lfu backend.
	MaxEntries int

	// KeyPrefix namespaces keys on shared backends (redis, badger).
	KeyPrefix string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	BadgerPath     string
	BadgerInMemory bool

	// BadgerGCInterval paces value-log GC. Zero uses the default.
	BadgerGCInterval time.Duration
}

// New builds the Store selected by opts.Backend.
func New(ctx context.Context, opts Options) (Store, error) {
	if opts.Name == "" {
		opts.Name = string(opts.Backend)
	}
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemoryStore(opts.Name), nil
	case BackendLFU:
		return NewLFUStore(opts.Name, opts.MaxEntries), nil
	case BackendRedis:
		s, err := NewRedisStore(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return WithPrefix(s, opts.KeyPrefix), nil
	case BackendBadger:
		s, err := OpenBadgerStore(opts.BadgerPath, opts.BadgerInMemory, opts.BadgerGCInterval)
		if err != nil {
			return nil, err
		}
		return WithPrefix(s, opts.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", opts.Backend)
	}
}

// Ping checks that s can serve requests. Stores without a Pinger are
// in-process and always reachable.
func Ping(ctx context.Context, s Store) error {
	if p, ok := s.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// StatsOf returns the counters of s, or false when s does not keep any.
func StatsOf(s Store) (Stats, bool) {
	if r, ok := s.(StatsReporter); ok {
		return r.Stats(), true
	}
	return Stats{}, false
}

// GetJSON reads and decodes a JSON value. A decode failure is returned as
// an error, not a miss.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var v T
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return v, true, nil
}

// SetJSON encodes v as JSON and stores it.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}

type prefixed struct {
	Store
	prefix string
}

// WithPrefix namespaces every key of s. An empty prefix returns s unchanged.
func WithPrefix(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return &prefixed{Store: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.Store.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return p.Store.Set(ctx, p.prefix+key, value, ttl)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.Store.Delete(ctx, p.prefix+key)
}

func (p *prefixed) Ping(ctx context.Context) error { return Ping(ctx, p.Store) }
