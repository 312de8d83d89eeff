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

// Package worker implements the long-running worker process loop: pull one
// job at a time from the broker, route it through the correctly cached
// REPL, and recycle the cache after a configurable job quota.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"verifier/internal/verifier/broker"
	"verifier/internal/verifier/config"
	"verifier/internal/verifier/core"
	"verifier/internal/verifier/envcache"
	"verifier/internal/verifier/replproc"
	"verifier/internal/verifier/telemetry"
)

// replHandle is the subset of replproc.Handle the worker depends on for
// querying. Declaring it locally (rather than asserting the concrete
// replproc.Handle type) keeps the worker loop testable against a fake
// REPL handle.
type replHandle interface {
	Verify(body string, timeoutSeconds int) (*core.RawReply, error)
	TearDown() error
}

// Worker runs the job-consumption loop against one broker connection. It is
// single-threaded with respect to its own cache: no concurrent access to
// any REPL handle ever happens within one worker.
type Worker struct {
	cfg    config.Config
	broker broker.Broker
	cache  *envcache.Cache

	stopChan chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopped  uint32

	completedJobs int
}

// New constructs a worker bound to the given broker and configuration. The
// cache is built lazily on Start so a freshly recycled worker gets a
// brand-new cache with the same builder.
func New(cfg config.Config, b broker.Broker) *Worker {
	return &Worker{
		cfg:      cfg,
		broker:   b,
		stopChan: make(chan struct{}),
	}
}

func (w *Worker) newCache() *envcache.Cache {
	return envcache.New(w.cfg.CacheCapacity, func(headerKey string, headers []string) (envcache.Handle, error) {
		// An empty header builds a bare environment with nothing
		// preloaded; the default imports are only ever applied by the
		// Start warm-up, which passes them explicitly.
		h, err := replproc.Spawn(w.cfg.ReplPath, w.cfg.ProjectPath, headerKey)
		if err != nil {
			return nil, err
		}
		if err := h.Connect(); err != nil {
			return nil, err
		}
		if err := h.InitEnvironment(headers); err != nil {
			_ = h.TearDown()
			return nil, err
		}
		telemetry.ObserveSpawn()
		return h, nil
	})
}

// Start boots the worker: it warms the first cache entry with the default
// imports, then launches the job-consumption loop in a goroutine.
func (w *Worker) Start(ctx context.Context) error {
	w.cache = w.newCache()
	defaultKey := core.MakeHeaderKey(w.cfg.Imports)
	if _, _, err := w.cache.Open(defaultKey, w.cfg.Imports); err != nil {
		return fmt.Errorf("worker: warming default cache entry: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	fmt.Println("Starting verifier worker...")
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.runLoop(runCtx)
	}()
	return nil
}

// Stop gracefully drains the worker: it cancels the in-flight blocking
// dequeue, waits for the loop goroutine to exit, and tears down every
// cache entry, terminating every REPL subprocess. Idempotent.
func (w *Worker) Stop() {
	if !atomic.CompareAndSwapUint32(&w.stopped, 0, 1) {
		return
	}
	fmt.Println("Stopping verifier worker...")
	close(w.stopChan)
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	if w.cache != nil {
		w.cache.Shutdown()
	}
}

// runLoop pulls one job at a time until Stop is called or ctx is
// cancelled. Cancellation is cooperative: the loop only checks stopChan
// between jobs, never mid-query.
func (w *Worker) runLoop(ctx context.Context) {
	for {
		select {
		case <-w.stopChan:
			return
		default:
		}

		handle, job, err := w.broker.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Printf("ERROR: broker pop failed: %v\n", err)
			continue
		}
		telemetry.ObserveDequeue()
		w.executeJob(ctx, handle, job)
		w.maybeRecycle()
	}
}

// executeJob runs one job end to end: derive the header, obtain a
// cached handle, query the REPL, and store the result. Any failure
// becomes a job-level error reply; the worker itself never crashes.
func (w *Worker) executeJob(ctx context.Context, handle string, job core.Job) {
	header, body := core.ParseHeader(job.TheoremBody)
	if job.ForcedHeader != nil {
		header = job.ForcedHeader
	}
	headerKey := core.MakeHeaderKey(header)

	h, hit, err := w.cache.Open(headerKey, header)
	telemetry.ObserveCacheLookup(hit)
	telemetry.SetCacheSize(w.cache.Len())
	if err != nil {
		w.storeFailure(ctx, handle, err)
		return
	}

	repl, ok := h.(replHandle)
	if !ok {
		w.storeFailure(ctx, handle, fmt.Errorf("worker: cache returned unexpected handle type %T", h))
		return
	}

	reply, err := repl.Verify(body, job.TimeoutSeconds)
	if err != nil {
		// A broken REPL connection evicts that specific cache entry so
		// the next job with the same header-key rebuilds cleanly.
		w.cache.Evict(headerKey)
		telemetry.ObserveEviction()
		w.storeFailure(ctx, handle, err)
		return
	}

	if setErr := w.broker.SetResult(ctx, handle, reply, false); setErr != nil {
		fmt.Printf("ERROR: storing result for %s: %v\n", handle, setErr)
	}
	telemetry.ObserveCompletion(false)
	w.completedJobs++
}

func (w *Worker) storeFailure(ctx context.Context, handle string, cause error) {
	reply := &core.RawReply{Error: cause.Error()}
	if setErr := w.broker.SetResult(ctx, handle, reply, true); setErr != nil {
		fmt.Printf("ERROR: storing failure for %s: %v\n", handle, setErr)
	}
	telemetry.ObserveCompletion(true)
	w.completedJobs++
}

// maybeRecycle tears down every cache entry and rebuilds a fresh cache
// once the job quota is hit, resetting the counter. Long-lived REPLs
// accumulate memory; the quota bounds worst-case residency.
func (w *Worker) maybeRecycle() {
	if w.cfg.MaxJobs <= 0 || w.completedJobs < w.cfg.MaxJobs {
		return
	}
	w.cache.Shutdown()
	w.cache = w.newCache()
	w.completedJobs = 0
	telemetry.ObserveRecycle()
}
