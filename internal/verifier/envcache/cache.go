// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package envcache implements the header-environment cache: a bounded LRU
// of header-key to live REPL handle, with an eviction hook that tears down
// the evicted subprocess. A cache is exclusively owned by a single worker
// and needs no internal locking, since a worker is single-threaded with
// respect to its own cache.
package envcache

import (
	"container/list"
	"fmt"
)

// Handle is the subset of replproc.Handle the cache depends on. Declaring
// it here (rather than importing replproc) keeps the cache package
// testable with a fake handle and avoids a layering dependency the cache
// does not otherwise need.
type Handle interface {
	TearDown() error
}

// Builder constructs and initializes a fresh handle for a given header key
// on a cache miss, using the original (uncanonicalized) header lines to
// initialize the REPL's environment 0. It is supplied by the worker, which
// knows the REPL path, project path, and default imports.
type Builder func(headerKey string, headers []string) (Handle, error)

type entry struct {
	headerKey string
	handle    Handle
}

// Cache is a bounded-capacity map plus an ordered recency list, with
// eviction tearing down the evicted handle's subprocess. The cache never
// holds two entries with the same header-key.
type Cache struct {
	capacity int
	build    Builder

	entries map[string]*list.Element
	order   *list.List // front = most recently used

	spawnCount int
	evictCount int
}

// New creates a cache with the given capacity and handle builder. A
// non-positive capacity falls back to 3.
func New(capacity int, build Builder) *Cache {
	if capacity <= 0 {
		capacity = 3
	}
	return &Cache{
		capacity: capacity,
		build:    build,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Open returns the handle for headerKey, promoting it to most-recently-used
// on a hit and reporting hit=true. On a miss it evicts the least-recently-
// used entry if the cache is at capacity, builds a fresh handle via the
// configured Builder (passing the original header lines so the new REPL's
// environment 0 gets the right imports), and inserts it as
// most-recently-used.
func (c *Cache) Open(headerKey string, headers []string) (handle Handle, hit bool, err error) {
	if el, ok := c.entries[headerKey]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*entry).handle, true, nil
	}

	if len(c.entries) >= c.capacity {
		c.evictLRU()
	}

	built, err := c.build(headerKey, headers)
	if err != nil {
		return nil, false, err
	}
	c.spawnCount++

	el := c.order.PushFront(&entry{headerKey: headerKey, handle: built})
	c.entries[headerKey] = el
	return built, false, nil
}

// evictLRU removes the least-recently-used entry from the map and tears
// down its handle. A failure to signal the child is logged; it never
// prevents removal from the cache.
func (c *Cache) evictLRU() {
	back := c.order.Back()
	if back == nil {
		return
	}
	c.removeElement(back)
}

// Evict removes a specific entry by header key, if present, tearing down
// its handle. Used by the worker when a query reports the handle's
// connection as broken, so the next job with the same header rebuilds
// cleanly.
func (c *Cache) Evict(headerKey string) {
	if el, ok := c.entries[headerKey]; ok {
		c.removeElement(el)
	}
}

func (c *Cache) removeElement(el *list.Element) {
	e := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.entries, e.headerKey)
	if err := e.handle.TearDown(); err != nil {
		fmt.Printf("ERROR: tearing down REPL for header %q: %v\n", e.headerKey, err)
	}
	c.evictCount++
}

// Len returns the number of live entries, always <= capacity.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Counts returns the cumulative number of handles spawned and evicted over
// the cache's lifetime, for metrics and for deterministic tests.
func (c *Cache) Counts() (spawned, evicted int) {
	return c.spawnCount, c.evictCount
}

// Shutdown evicts every entry, tearing down every REPL subprocess. Used by
// the worker on graceful drain and on quota-triggered recycling.
func (c *Cache) Shutdown() {
	for c.order.Len() > 0 {
		c.evictLRU()
	}
}
