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
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"verifier/internal/verifier/core"
)

// RedisBroker implements Broker on top of a Redis list (FIFO queue via
// LPUSH/BRPOP), a JSON payload per job, and atomic counters. Job
// completion is applied idempotently with a Lua script in the same shape
// as a commit-marker-then-update, so a worker that retries SetResult for
// an already-finished job is a no-op rather than double-counting.
type RedisBroker struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisBroker returns a broker backed by the given Redis endpoint. addr
// is host:port, db selects the logical database.
func NewRedisBroker(addr string, db int) *RedisBroker {
	return &RedisBroker{
		client:    redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		keyPrefix: "verifier",
	}
}

func (b *RedisBroker) queueKey() string       { return fmt.Sprintf("%s:queue", b.keyPrefix) }
func (b *RedisBroker) jobKey(h string) string { return fmt.Sprintf("%s:job:%s", b.keyPrefix, h) }
func (b *RedisBroker) resultKey(h string) string {
	return fmt.Sprintf("%s:result:%s", b.keyPrefix, h)
}
func (b *RedisBroker) markerKey(h string) string {
	return fmt.Sprintf("%s:done-marker:%s", b.keyPrefix, h)
}
func (b *RedisBroker) countersKey() string { return fmt.Sprintf("%s:counters", b.keyPrefix) }

// jobPayload is the JSON-serializable form of core.Job stored per handle.
// ForcedHeader is a pointer for the same reason core.RawReply.Messages is:
// a nil slice ("derive the header from the theorem text") and an empty
// non-nil slice ("force the empty header") must survive the round trip as
// distinct values, and omitempty on a plain slice collapses both to an
// absent field.
type jobPayload struct {
	TheoremBody    string    `json:"theorem_body"`
	TimeoutSeconds int       `json:"timeout_seconds"`
	ForcedHeader   *[]string `json:"forced_header,omitempty"`
	SequenceIndex  int       `json:"sequence_index"`
}

func toPayload(j core.Job) jobPayload {
	p := jobPayload{
		TheoremBody:    j.TheoremBody,
		TimeoutSeconds: j.TimeoutSeconds,
		SequenceIndex:  j.SequenceIndex,
	}
	if j.ForcedHeader != nil {
		forced := j.ForcedHeader
		p.ForcedHeader = &forced
	}
	return p
}

func (p jobPayload) toJob() core.Job {
	j := core.Job{
		TheoremBody:    p.TheoremBody,
		TimeoutSeconds: p.TimeoutSeconds,
		SequenceIndex:  p.SequenceIndex,
	}
	if p.ForcedHeader != nil {
		j.ForcedHeader = *p.ForcedHeader
		if j.ForcedHeader == nil {
			j.ForcedHeader = []string{}
		}
	}
	return j
}

// Enqueue stores each job's payload, appends handles to the queue, and
// bumps the started counter. LPUSH/BRPOP on the same list gives FIFO
// ordering since BRPOP pops from the opposite end items were pushed onto.
func (b *RedisBroker) Enqueue(ctx context.Context, jobs []core.Job) ([]string, error) {
	handles := make([]string, len(jobs))
	pipe := b.client.Pipeline()
	for i, job := range jobs {
		handle := fmt.Sprintf("%s-%d-%d", b.keyPrefix, time.Now().UnixNano(), i)
		handles[i] = handle
		payload, err := json.Marshal(toPayload(job))
		if err != nil {
			return nil, fmt.Errorf("broker: encoding job: %w", err)
		}
		pipe.Set(ctx, b.jobKey(handle), payload, 0)
		pipe.LPush(ctx, b.queueKey(), handle)
	}
	pipe.HIncrBy(ctx, b.countersKey(), "started", int64(len(jobs)))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("broker: enqueue: %w", err)
	}
	return handles, nil
}

// Pop blocks on BRPOP until a handle is available, then loads its job
// payload.
func (b *RedisBroker) Pop(ctx context.Context) (string, core.Job, error) {
	res, err := b.client.BRPop(ctx, 0, b.queueKey()).Result()
	if err != nil {
		return "", core.Job{}, fmt.Errorf("broker: pop: %w", err)
	}
	handle := res[1]

	raw, err := b.client.Get(ctx, b.jobKey(handle)).Bytes()
	if err != nil {
		return "", core.Job{}, fmt.Errorf("broker: loading job %s: %w", handle, err)
	}
	var payload jobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", core.Job{}, fmt.Errorf("broker: decoding job %s: %w", handle, err)
	}
	return handle, payload.toJob(), nil
}

// setResultScript applies the job completion idempotently: it sets a
// marker, and only on first-set does it store the reply and bump the
// finished/failed counter. Mirrors the rate limiter's commit-marker Lua
// idiom (SETNX then HINCRBY).
const setResultScript = `
local markerKey = KEYS[1]
local resultKey = KEYS[2]
local countersKey = KEYS[3]
local failed = ARGV[1]
local replyJSON = ARGV[2]
local counterField = ARGV[3]
local set = redis.call('SETNX', markerKey, 1)
if set == 1 then
  redis.call('HSET', resultKey, 'failed', failed, 'reply', replyJSON)
  redis.call('HINCRBY', countersKey, counterField, 1)
  return 1
else
  return 0
end
`

// SetResult stores a job's reply and marks it finished or failed,
// idempotently: a duplicate SetResult for an already-completed handle is
// a no-op rather than double-counting the broker's aggregate counters.
func (b *RedisBroker) SetResult(ctx context.Context, handle string, reply *core.RawReply, failed bool) error {
	replyJSON, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("broker: encoding reply: %w", err)
	}
	counterField := "finished"
	failedFlag := "0"
	if failed {
		counterField = "failed"
		failedFlag = "1"
	}
	keys := []string{b.markerKey(handle), b.resultKey(handle), b.countersKey()}
	args := []interface{}{failedFlag, string(replyJSON), counterField}
	if err := b.client.Eval(ctx, setResultScript, keys, args...).Err(); err != nil {
		return fmt.Errorf("broker: set result for %s: %w", handle, err)
	}
	return nil
}

// Result reads back a job's stored reply. A nil reply with no error means
// the job has not completed yet or was completed without a reply.
func (b *RedisBroker) Result(ctx context.Context, handle string) (*core.RawReply, error) {
	vals, err := b.client.HGetAll(ctx, b.resultKey(handle)).Result()
	if err != nil {
		return nil, fmt.Errorf("broker: reading result for %s: %w", handle, err)
	}
	replyJSON, ok := vals["reply"]
	if !ok || replyJSON == "null" {
		return nil, nil
	}
	var reply core.RawReply
	if err := json.Unmarshal([]byte(replyJSON), &reply); err != nil {
		return nil, fmt.Errorf("broker: decoding result for %s: %w", handle, err)
	}
	return &reply, nil
}

// Counts reads the started/finished/failed counters from the counters hash.
func (b *RedisBroker) Counts(ctx context.Context) (Counters, error) {
	vals, err := b.client.HGetAll(ctx, b.countersKey()).Result()
	if err != nil {
		return Counters{}, fmt.Errorf("broker: reading counters: %w", err)
	}
	return Counters{
		Started:  parseCounter(vals["started"]),
		Finished: parseCounter(vals["finished"]),
		Failed:   parseCounter(vals["failed"]),
	}, nil
}

func parseCounter(s string) int64 {
	var n int64
	_, _ = fmt.Sscanf(s, "%d", &n)
	return n
}

// Flush atomically clears the broker's logical database.
func (b *RedisBroker) Flush(ctx context.Context) error {
	if err := b.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("broker: flush: %w", err)
	}
	return nil
}
