// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

/*
Package cache provides the key-value stores behind the feeders.

Two roles use a Store: upstream responses (short TTLs, chosen by each
feeder's cache policy) and feeder state such as the best observed net
movement or the previous plan ranking (no TTL).

# Backends

  - memory: unbounded map with lazy expiry and a janitor goroutine
  - lfu: bounded map evicting the least frequently read entry
  - redis: shared between replicas (go-redis)
  - badger: embedded on-disk store; state survives restarts

# Usage

	store, err := cache.New(ctx, cache.Options{Backend: cache.BackendRedis, RedisAddr: "redis:6379"})
	if err != nil {
	    return err
	}
	defer store.Close()

	if err := cache.SetJSON(ctx, store, "billing:plans:previous", ranked, 0); err != nil {
	    logging.Warn().Err(err).Msg("[CACHE] save ranking")
	}
	prev, ok, err := cache.GetJSON[[]feeder.RankedItem](ctx, store, "billing:plans:previous")

Every Store copies values on the way in and out, so callers may reuse
their buffers.
*/
package cache
