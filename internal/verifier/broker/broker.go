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

// Package broker defines the job-queue client contract the dispatcher and
// worker depend on, plus two concrete implementations: a
// Redis-backed broker for production and an in-memory broker for tests and
// for running the pipeline without external infrastructure.
package broker

import (
	"context"

	"verifier/internal/verifier/core"
)

// Counters reports the three monotonically non-decreasing counters a
// dispatcher polls to know when a batch is done.
type Counters struct {
	Started  int64
	Finished int64
	Failed   int64
}

// Broker is the client-side contract the broker must satisfy: FIFO batch
// enqueue, blocking pop, per-job result storage with infinite retention
// until flushed, aggregate counters, and atomic flush.
type Broker interface {
	// Enqueue submits jobs onto the default queue as one batch, in order.
	// It returns an opaque handle per job the caller later uses to read
	// results back, mirroring the input order.
	Enqueue(ctx context.Context, jobs []core.Job) ([]string, error)

	// Pop blocks until a job is available on the default queue and
	// returns it along with its handle. Used exclusively by workers.
	Pop(ctx context.Context) (handle string, job core.Job, err error)

	// SetResult stores a job's raw reply (possibly nil, on infrastructure
	// failure) and marks the job finished or failed.
	SetResult(ctx context.Context, handle string, reply *core.RawReply, failed bool) error

	// Result reads back a job's stored raw reply. A nil reply with no
	// error means the job has not completed yet or failed without one.
	Result(ctx context.Context, handle string) (*core.RawReply, error)

	// Counts returns the current started/finished/failed counters.
	Counts(ctx context.Context) (Counters, error)

	// Flush atomically clears the broker's storage for this logical
	// batch. Disabled by default at the dispatcher level.
	Flush(ctx context.Context) error
}
