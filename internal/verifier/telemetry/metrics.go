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

// Package telemetry provides opt-in Prometheus metrics for the verifier
// worker: jobs dequeued and completed, cache hits, misses and size, REPL
// spawn/eviction counts, and worker recycles. All
// public functions are safe to call whether or not a /metrics endpoint is
// ever served.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	jobsDequeuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verifier_jobs_dequeued_total",
		Help: "Total jobs pulled off the broker's queue by this worker",
	})
	jobsCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "verifier_jobs_completed_total",
		Help: "Total jobs completed, labeled by outcome (finished or failed)",
	}, []string{"outcome"})
	cacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verifier_cache_hits_total",
		Help: "Total header-environment cache hits",
	})
	cacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verifier_cache_misses_total",
		Help: "Total header-environment cache misses",
	})
	replSpawnsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verifier_repl_spawns_total",
		Help: "Total REPL subprocesses spawned by this worker",
	})
	replEvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verifier_repl_evictions_total",
		Help: "Total REPL subprocesses evicted and torn down by this worker after a broken connection; LRU evictions and cache shutdowns are not counted",
	})
	cacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "verifier_cache_size",
		Help: "Current number of live entries in the header-environment cache",
	})
	recyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verifier_worker_recycles_total",
		Help: "Total times this worker recycled its cache after hitting the job quota",
	})
)

func init() {
	prometheus.MustRegister(
		jobsDequeuedTotal,
		jobsCompletedTotal,
		cacheHitsTotal,
		cacheMissesTotal,
		replSpawnsTotal,
		replEvictionsTotal,
		cacheSize,
		recyclesTotal,
	)
}

// ObserveDequeue records that the worker pulled one job off the queue.
func ObserveDequeue() { jobsDequeuedTotal.Inc() }

// ObserveCompletion records a job's terminal outcome.
func ObserveCompletion(failed bool) {
	if failed {
		jobsCompletedTotal.WithLabelValues("failed").Inc()
		return
	}
	jobsCompletedTotal.WithLabelValues("finished").Inc()
}

// ObserveCacheLookup records whether a header-environment cache lookup hit
// or missed.
func ObserveCacheLookup(hit bool) {
	if hit {
		cacheHitsTotal.Inc()
		return
	}
	cacheMissesTotal.Inc()
}

// ObserveSpawn records that a REPL subprocess was spawned.
func ObserveSpawn() { replSpawnsTotal.Inc() }

// ObserveEviction records that a REPL subprocess was evicted and torn down.
// The worker calls it only for an entry evicted after a broken connection;
// LRU evictions and cache shutdowns do not reach it.
func ObserveEviction() { replEvictionsTotal.Inc() }

// SetCacheSize publishes the cache's current live entry count.
func SetCacheSize(n int) { cacheSize.Set(float64(n)) }

// ObserveRecycle records that the worker recycled its cache after hitting
// the job quota.
func ObserveRecycle() { recyclesTotal.Inc() }

// ServeMetrics exposes /metrics on addr in a background goroutine. A
// no-op if addr is empty, matching the optional METRICS_ADDR setting.
func ServeMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = server.ListenAndServe()
	}()
}
