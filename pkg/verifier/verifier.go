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

// Package verifier is the public client library for the batch theorem
// verification service: it enqueues theorem texts onto a broker in input
// order, polls for completion, and collects classified results back in
// that same order.
package verifier

import (
	"context"
	"fmt"
	"time"

	"verifier/internal/verifier/broker"
	"verifier/internal/verifier/core"
)

const progressPollInterval = 100 * time.Millisecond

// InvalidInputError is raised when VerifyTheorems is given a non-sequence
// input. It is the one error this package raises rather than folding into
// a result record.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("verifier: invalid input: %s", e.Reason)
}

// Options configures one VerifyTheorems call.
type Options struct {
	// TimeoutSeconds is forwarded to every job's REPL query. Zero means
	// no timeout.
	TimeoutSeconds int
	// ForcedHeader, when non-nil, overrides the header parsed from every
	// theorem's text for this whole batch.
	ForcedHeader []string
	// FlushAfter clears the broker's storage for this batch once results
	// are collected. Disabled by default.
	FlushAfter bool
}

// VerifyTheorems submits theorems as one batch, preserving their order,
// and returns one result record per input, in that same order.
func VerifyTheorems(ctx context.Context, theorems []string, b broker.Broker, opts Options) ([]core.Result, error) {
	if theorems == nil {
		return nil, &InvalidInputError{Reason: "theorems must be a non-nil sequence"}
	}

	jobs := make([]core.Job, len(theorems))
	for i, text := range theorems {
		jobs[i] = core.Job{
			TheoremBody:    text,
			TimeoutSeconds: opts.TimeoutSeconds,
			ForcedHeader:   opts.ForcedHeader,
			SequenceIndex:  i,
		}
	}

	handles, err := b.Enqueue(ctx, jobs)
	if err != nil {
		return nil, fmt.Errorf("verifier: enqueue: %w", err)
	}

	if err := awaitCompletion(ctx, b, len(jobs)); err != nil {
		return nil, err
	}

	results := make([]core.Result, len(handles))
	for i, handle := range handles {
		reply, err := b.Result(ctx, handle)
		if err != nil {
			reply = nil
		}
		results[i] = core.Classify(reply)
	}

	if opts.FlushAfter {
		if err := b.Flush(ctx); err != nil {
			return results, fmt.Errorf("verifier: flush after collect: %w", err)
		}
	}

	return results, nil
}

// awaitCompletion polls the broker's counters every 100 ms until
// finished+failed reaches n.
func awaitCompletion(ctx context.Context, b broker.Broker, n int) error {
	if n == 0 {
		return nil
	}
	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	for {
		counts, err := b.Counts(ctx)
		if err != nil {
			return fmt.Errorf("verifier: polling counters: %w", err)
		}
		if int(counts.Finished+counts.Failed) >= n {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
