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

package broker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"verifier/internal/verifier/core"
)

// MemoryBroker is an in-process Broker, instrumented and deterministic,
// for running the whole pipeline without Redis and for tests. It keeps a
// simple FIFO queue guarded by a mutex and a channel used purely as a
// wakeup signal for blocking Pop calls.
type MemoryBroker struct {
	mu      sync.Mutex
	queue   []queued
	results map[string]*jobResult
	seq     uint64

	notify chan struct{}

	started  int64
	finished int64
	failed   int64
}

type queued struct {
	handle string
	job    core.Job
}

type jobResult struct {
	done   bool
	failed bool
	reply  *core.RawReply
}

// NewMemoryBroker creates an empty in-memory broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		results: make(map[string]*jobResult),
		notify:  make(chan struct{}, 1),
	}
}

func (b *MemoryBroker) wake() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Enqueue appends jobs to the FIFO queue in order and assigns each a
// unique handle.
func (b *MemoryBroker) Enqueue(ctx context.Context, jobs []core.Job) ([]string, error) {
	b.mu.Lock()
	handles := make([]string, len(jobs))
	for i, job := range jobs {
		b.seq++
		handle := fmt.Sprintf("job-%d", b.seq)
		handles[i] = handle
		b.queue = append(b.queue, queued{handle: handle, job: job})
		b.results[handle] = &jobResult{}
	}
	atomic.AddInt64(&b.started, int64(len(jobs)))
	b.mu.Unlock()

	for range jobs {
		b.wake()
	}
	return handles, nil
}

// Pop blocks until a job is available, honoring ctx cancellation.
func (b *MemoryBroker) Pop(ctx context.Context) (string, core.Job, error) {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			next := b.queue[0]
			b.queue = b.queue[1:]
			b.mu.Unlock()
			return next.handle, next.job, nil
		}
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", core.Job{}, ctx.Err()
		case <-b.notify:
		}
	}
}

// SetResult stores a job's reply and marks it finished or failed.
func (b *MemoryBroker) SetResult(ctx context.Context, handle string, reply *core.RawReply, failed bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	res, ok := b.results[handle]
	if !ok {
		return fmt.Errorf("broker: unknown job handle %q", handle)
	}
	res.done = true
	res.failed = failed
	res.reply = reply
	if failed {
		atomic.AddInt64(&b.failed, 1)
	} else {
		atomic.AddInt64(&b.finished, 1)
	}
	return nil
}

// Result reads back a job's stored reply, or nil if it has not completed.
func (b *MemoryBroker) Result(ctx context.Context, handle string) (*core.RawReply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	res, ok := b.results[handle]
	if !ok {
		return nil, fmt.Errorf("broker: unknown job handle %q", handle)
	}
	if !res.done {
		return nil, nil
	}
	return res.reply, nil
}

// Counts returns the current started/finished/failed counters.
func (b *MemoryBroker) Counts(ctx context.Context) (Counters, error) {
	return Counters{
		Started:  atomic.LoadInt64(&b.started),
		Finished: atomic.LoadInt64(&b.finished),
		Failed:   atomic.LoadInt64(&b.failed),
	}, nil
}

// Flush clears all queue and result state, resetting the counters.
func (b *MemoryBroker) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = nil
	b.results = make(map[string]*jobResult)
	atomic.StoreInt64(&b.started, 0)
	atomic.StoreInt64(&b.finished, 0)
	atomic.StoreInt64(&b.failed, 0)
	return nil
}
