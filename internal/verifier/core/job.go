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

// Package core provides the core business logic for the theorem verification
// service: the job and result types, header parsing, and raw-reply
// classification. Nothing in this package touches a subprocess, a socket, or
// a broker — it is pure data and pure functions so it can be tested without
// any external process.
package core

// Job is an immutable unit of work handed to a worker. It carries only data:
// the worker injects a live REPL handle at execution time, it is never
// serialized onto the job itself (see envcache.Cache and worker.Worker).
type Job struct {
	// TheoremBody is the raw theorem text, import lines included. Header
	// parsing happens inside the worker, not at enqueue time, so the
	// dispatcher does not need to know anything about header syntax.
	TheoremBody string
	// TimeoutSeconds is forwarded to the REPL query. Zero means "no timeout".
	TimeoutSeconds int
	// ForcedHeader overrides the header parsed from TheoremBody when
	// non-nil. An empty (non-nil) slice forces the empty header.
	ForcedHeader []string
	// SequenceIndex is assigned by the dispatcher on enqueue and is the
	// sole ordering key for the final result array.
	SequenceIndex int
}

// ReplyMessage is a single diagnostic entry inside a RawReply's Messages
// list, as emitted by the REPL's allTactics diagnostic mode.
type ReplyMessage struct {
	Severity string `json:"severity"`
	Data     string `json:"data,omitempty"`
}

// RawReply is the JSON object returned by the REPL for one query, augmented
// with the measured elapsed time. Any subset of its fields may be absent;
// Classify (classify.go) is total over every combination. Messages is a
// pointer so "field absent" (nil) is distinguishable from "field present
// with zero elements" (non-nil, empty slice) — the latter still reaches
// Classify's messages branch and is a success, not an infrastructure
// failure.
type RawReply struct {
	Env      *int            `json:"env,omitempty"`
	Messages *[]ReplyMessage `json:"messages,omitempty"`
	Message  string          `json:"message,omitempty"`
	Error    string          `json:"error,omitempty"`
	TimeSecs float64         `json:"time"`
}

// Empty reports whether the reply carries no usable content at all — the
// REPL produced nothing, or the worker never obtained a reply (e.g. the
// broker returned a nil job result). Classify treats this as an
// infrastructure failure.
func (r *RawReply) Empty() bool {
	return r == nil || (r.Env == nil && r.Messages == nil && r.Message == "" && r.Error == "")
}

// Result is the uniform outcome record produced by Classify for one job.
// Every job enqueued by the dispatcher yields exactly one Result. Errors
// reuses ReplyMessage so a compiler diagnostic keeps its severity field
// intact; infrastructure/timeout/REPL-error entries are synthesized with
// Severity "error".
type Result struct {
	Raw      RawReply       `json:"raw_reply"`
	Verified bool           `json:"verified"`
	Errors   []ReplyMessage `json:"errors"`
}
