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

package verifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"verifier/internal/verifier/broker"
	"verifier/internal/verifier/core"
)

func TestVerifyTheorems_RejectsNilInput(t *testing.T) {
	b := broker.NewMemoryBroker()
	_, err := VerifyTheorems(context.Background(), nil, b, Options{})
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
}

func TestVerifyTheorems_EmptyBatchReturnsEmptyResults(t *testing.T) {
	b := broker.NewMemoryBroker()
	results, err := VerifyTheorems(context.Background(), []string{}, b, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

// fakeWorker drains a broker's queue, one job at a time, applying a
// result function supplied by the test. It stands in for a real worker
// process so the dispatcher's poll/collect path can be exercised without
// spawning a REPL subprocess.
func fakeWorker(ctx context.Context, b broker.Broker, resolve func(core.Job) (*core.RawReply, bool)) {
	for {
		handle, job, err := b.Pop(ctx)
		if err != nil {
			return
		}
		reply, failed := resolve(job)
		_ = b.SetResult(ctx, handle, reply, failed)
	}
}

func TestVerifyTheorems_PreservesInputOrderRegardlessOfCompletionOrder(t *testing.T) {
	b := broker.NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Complete C first, then B, then A, by delaying based on content. One
	// fake worker per job, so each job's delay runs concurrently.
	delays := map[string]time.Duration{
		"A": 30 * time.Millisecond,
		"B": 20 * time.Millisecond,
		"C": 0,
	}
	for i := 0; i < len(delays); i++ {
		go fakeWorker(ctx, b, func(job core.Job) (*core.RawReply, bool) {
			time.Sleep(delays[job.TheoremBody])
			msg := job.TheoremBody
			return &core.RawReply{Message: msg}, false
		})
	}

	results, err := VerifyTheorems(ctx, []string{"A", "B", "C"}, b, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"A", "B", "C"} {
		if results[i].Raw.Message != want {
			t.Fatalf("result[%d]: expected %q, got %q", i, want, results[i].Raw.Message)
		}
	}
}

func TestVerifyTheorems_ClassifiesEachResult(t *testing.T) {
	b := broker.NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go fakeWorker(ctx, b, func(job core.Job) (*core.RawReply, bool) {
		switch job.TheoremBody {
		case "ok":
			return &core.RawReply{Messages: &[]core.ReplyMessage{}}, false
		case "timeout":
			return &core.RawReply{Message: "timeout after 1s"}, false
		case "bad":
			return &core.RawReply{Error: "parse failure"}, false
		}
		return nil, true
	})

	results, err := VerifyTheorems(ctx, []string{"ok", "timeout", "bad"}, b, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !results[0].Verified {
		t.Fatalf("expected ok to verify")
	}
	if results[1].Verified || results[1].Errors[0].Data != "timeout" {
		t.Fatalf("unexpected timeout result: %+v", results[1])
	}
	if results[2].Verified || results[2].Errors[0].Data != "parse failure" {
		t.Fatalf("unexpected bad result: %+v", results[2])
	}
}

func TestVerifyTheorems_FlushAfterClearsBroker(t *testing.T) {
	b := broker.NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go fakeWorker(ctx, b, func(job core.Job) (*core.RawReply, bool) {
		return &core.RawReply{Message: "ok"}, false
	})

	if _, err := VerifyTheorems(ctx, []string{"x"}, b, Options{FlushAfter: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts, err := b.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Started != 0 || counts.Finished != 0 {
		t.Fatalf("expected counters reset after FlushAfter, got %+v", counts)
	}
}
