// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package feeder

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/dashfeed/internal/cache"
	"github.com/tomtom215/dashfeed/internal/logging"
	"github.com/tomtom215/dashfeed/internal/metrics"
)

// Doer performs an upstream GET. *upstream.Client implements it.
type Doer interface {
	Do(ctx context.Context, endpoint string, params map[string]string) ([]byte, error)
}

// Request is one upstream call.
type Request struct {
	Endpoint string
	Params   map[string]string

	// KeyExtras distinguish cache entries without being sent upstream,
	// e.g. {"period": "previous"} for comparison fetches.
	KeyExtras map[string]string

	// Policy overrides the Fetcher's default cache policy for this call.
	Policy CachePolicy
}

// extraPrefix keeps key-only fields apart from real parameters.
const extraPrefix = "~"

// Key returns the request's CacheKey, KeyExtras included.
func (r Request) Key() CacheKey {
	if len(r.KeyExtras) == 0 {
		return Canonicalize(r.Endpoint, r.Params)
	}
	merged := make(map[string]string, len(r.Params)+len(r.KeyExtras))
	for k, v := range r.Params {
		if !IsVolatile(k) {
			merged[k] = v
		}
	}
	for k, v := range r.KeyExtras {
		merged[extraPrefix+k] = v
	}
	return Canonicalize(r.Endpoint, merged)
}

// Decision is a cache policy's verdict on an upstream payload.
type Decision struct {
	// Store writes Payload under the request's key.
	Store bool

	// Payload replaces the raw response, both in the store and for the
	// caller. Nil keeps the raw response.
	Payload []byte

	// TTL of the stored entry. Zero uses the Fetcher's default.
	TTL time.Duration
}

// CachePolicy decides, per integration, whether and what to cache.
type CachePolicy func(req Request, payload []byte) Decision

// StoreAlways caches every successful response with the default TTL.
func StoreAlways(Request, []byte) Decision { return Decision{Store: true} }

// StoreNever disables caching.
func StoreNever(Request, []byte) Decision { return Decision{} }

// Fetcher is fetch-with-cache for one integration.
//
// Thread Safety: safe for concurrent use.
type Fetcher struct {
	integration string
	store       cache.Store
	doer        Doer
	policy      CachePolicy
	ttl         time.Duration
	group       singleflight.Group
}

// DefaultTTL applies when a Fetcher is built without one.
const DefaultTTL = 5 * time.Minute

// NewFetcher wires a store and an upstream doer. A nil policy stores
// everything; ttl is the default entry lifetime.
func NewFetcher(integration string, store cache.Store, doer Doer, policy CachePolicy, ttl time.Duration) *Fetcher {
	if policy == nil {
		policy = StoreAlways
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Fetcher{
		integration: integration,
		store:       store,
		doer:        doer,
		policy:      policy,
		ttl:         ttl,
	}
}

func (f *Fetcher) storeKey(k CacheKey) string {
	return f.integration + ":" + string(k)
}

// Fetch returns the payload for req, from the store when possible.
//
// A hit never reaches upstream. On a miss the endpoint must be non-empty;
// concurrent misses for the same key share one upstream call. Upstream
// errors are returned unchanged and never cached. Store failures are logged
// and treated as a miss (reads) or ignored (writes).
//
// The shared upstream call is detached from the cancellation of whichever
// caller started it; it is bounded by the upstream client's own timeout.
// Each caller still returns ctx.Err() as soon as its own ctx is done.
//
// The returned slice may be shared with concurrent callers and must not be
// modified.
func (f *Fetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	key := f.storeKey(req.Key())

	data, ok, err := f.store.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheErrors.WithLabelValues(f.integration, "get").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("[FEEDER] cache read failed, treating as miss")
	case ok && len(data) > 0 && !bytes.Equal(data, jsonNull):
		metrics.RecordCacheLookup(f.integration, true)
		return data, nil
	}
	metrics.RecordCacheLookup(f.integration, false)

	if req.Endpoint == "" {
		return nil, ErrMissingDestination
	}

	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(key, func() (any, error) {
		return f.fetchAndStore(shared, key, req)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.CollapsedRequests.WithLabelValues(f.integration).Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

var jsonNull = []byte("null")

func (f *Fetcher) fetchAndStore(ctx context.Context, key string, req Request) ([]byte, error) {
	raw, err := f.doer.Do(ctx, req.Endpoint, req.Params)
	if err != nil {
		return nil, err
	}

	policy := f.policy
	if req.Policy != nil {
		policy = req.Policy
	}
	d := policy(req, raw)
	payload := raw
	if d.Payload != nil {
		payload = d.Payload
	}
	metrics.RecordCacheDecision(f.integration, d.Store)

	if d.Store {
		ttl := d.TTL
		if ttl <= 0 {
			ttl = f.ttl
		}
		if err := f.store.Set(ctx, key, payload, ttl); err != nil {
			metrics.CacheErrors.WithLabelValues(f.integration, "set").Inc()
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("[FEEDER] cache write failed")
		}
	}
	return payload, nil
}

// FetchJSON fetches req and decodes the payload into T.
func FetchJSON[T any](ctx context.Context, f *Fetcher, req Request) (T, error) {
	var out T
	data, err := f.Fetch(ctx, req)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%s %s: decode response: %w", f.integration, req.Endpoint, err)
	}
	return out, nil
}

// BreakerState reports the circuit breaker state of d, or "none" when d is
// not guarded by one.
func BreakerState(d Doer) string {
	if b, ok := d.(interface{ BreakerState() string }); ok {
		return b.BreakerState()
	}
	return "none"
}
