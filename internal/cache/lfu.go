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

// DefaultLFUCapacity applies when NewLFUStore is given a non-positive size.
const DefaultLFUCapacity = 10000

type lfuNode struct {
	key       string
	value     []byte
	freq      int
	expiresAt time.Time
	prev      *lfuNode
	next      *lfuNode
}

// freqList is a doubly-linked list of nodes sharing a frequency, most
// recently touched at the front. head and tail are sentinels.
type freqList struct {
	head, tail *lfuNode
	size       int
}

func newFreqList() *freqList {
	fl := &freqList{head: &lfuNode{}, tail: &lfuNode{}}
	fl.head.next = fl.tail
	fl.tail.prev = fl.head
	return fl
}

func (fl *freqList) pushFront(n *lfuNode) {
	n.prev = fl.head
	n.next = fl.head.next
	fl.head.next.prev = n
	fl.head.next = n
	fl.size++
}

func (fl *freqList) unlink(n *lfuNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
	fl.size--
}

func (fl *freqList) back() *lfuNode {
	if fl.size == 0 {
		return nil
	}
	return fl.tail.prev
}

// LFUStore is a bounded in-process Store that evicts the least frequently
// read entry when full, breaking ties by least recent use. Dashboard polling
// hits a small set of widget keys over and over, which is the access pattern
// LFU keeps resident.
//
// All operations are O(1): nodes are indexed by key and bucketed by
// frequency, and minFreq tracks the eviction bucket.
type LFUStore struct {
	name     string
	capacity int

	mu      sync.Mutex
	nodes   map[string]*lfuNode
	buckets map[int]*freqList
	minFreq int
	hits    int64
	misses  int64
	evicted int64
	closed  bool
}

// NewLFUStore returns an empty LFUStore holding at most capacity entries.
func NewLFUStore(name string, capacity int) *LFUStore {
	if capacity <= 0 {
		capacity = DefaultLFUCapacity
	}
	return &LFUStore{
		name:     name,
		capacity: capacity,
		nodes:    make(map[string]*lfuNode, capacity),
		buckets:  make(map[int]*freqList),
	}
}

// Get implements Store. A hit bumps the entry's frequency.
func (c *LFUStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false, ErrClosed
	}

	n, ok := c.nodes[key]
	if !ok {
		c.misses++
		return nil, false, nil
	}
	if !n.expiresAt.IsZero() && !clock.Now().Before(n.expiresAt) {
		c.remove(n)
		c.misses++
		return nil, false, nil
	}

	c.touch(n)
	c.hits++
	return append([]byte(nil), n.value...), true, nil
}

// Set implements Store. Overwriting a key counts as a use.
func (c *LFUStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = clock.Now().Add(ttl)
	}
	value = append([]byte(nil), value...)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	if n, ok := c.nodes[key]; ok {
		n.value = value
		n.expiresAt = expiresAt
		c.touch(n)
		return nil
	}

	if len(c.nodes) >= c.capacity && c.cleanupExpired() == 0 {
		c.evict()
	}

	n := &lfuNode{key: key, value: value, freq: 1, expiresAt: expiresAt}
	c.bucket(1).pushFront(n)
	c.nodes[key] = n
	c.minFreq = 1
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.nodes)))
	return nil
}

// Delete implements Store.
func (c *LFUStore) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if n, ok := c.nodes[key]; ok {
		c.remove(n)
	}
	return nil
}

// Close implements Store.
func (c *LFUStore) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.nodes = nil
	c.buckets = nil
	return nil
}

// size returns the number of resident entries, expired or not.
func (c *LFUStore) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.nodes)
}

// frequency returns how often key has been used, 0 if absent.
func (c *LFUStore) frequency(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.nodes[key]; ok {
		return n.freq
	}
	return 0
}

// Stats returns a snapshot of the counters.
func (c *LFUStore) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Evictions: c.evicted, TotalKeys: int64(len(c.nodes))}
}

// The helpers below require c.mu.

// cleanupExpired drops every expired entry and returns how many were removed.
// Set runs it on a full store so dead entries go before live ones.
func (c *LFUStore) cleanupExpired() int {
	now := clock.Now()
	removed := 0
	for _, n := range c.nodes {
		if !n.expiresAt.IsZero() && !now.Before(n.expiresAt) {
			c.remove(n)
			removed++
		}
	}
	if removed > 0 {
		c.evicted += int64(removed)
		metrics.CacheEvictions.WithLabelValues(c.name).Add(float64(removed))
	}
	return removed
}

func (c *LFUStore) bucket(freq int) *freqList {
	fl := c.buckets[freq]
	if fl == nil {
		fl = newFreqList()
		c.buckets[freq] = fl
	}
	return fl
}

func (c *LFUStore) touch(n *lfuNode) {
	fl := c.buckets[n.freq]
	fl.unlink(n)
	if fl.size == 0 {
		delete(c.buckets, n.freq)
		if c.minFreq == n.freq {
			c.minFreq++
		}
	}
	n.freq++
	c.bucket(n.freq).pushFront(n)
}

func (c *LFUStore) evict() {
	fl := c.buckets[c.minFreq]
	if fl == nil {
		// minFreq went stale after a Delete; find the real minimum.
		c.minFreq = 0
		for f := range c.buckets {
			if c.minFreq == 0 || f < c.minFreq {
				c.minFreq = f
			}
		}
		if fl = c.buckets[c.minFreq]; fl == nil {
			return
		}
	}
	if victim := fl.back(); victim != nil {
		c.remove(victim)
		c.evicted++
		metrics.CacheEvictions.WithLabelValues(c.name).Inc()
	}
}

func (c *LFUStore) remove(n *lfuNode) {
	if fl := c.buckets[n.freq]; fl != nil {
		fl.unlink(n)
		if fl.size == 0 {
			delete(c.buckets, n.freq)
		}
	}
	delete(c.nodes, n.key)
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.nodes)))
}

var _ Store = (*LFUStore)(nil)
