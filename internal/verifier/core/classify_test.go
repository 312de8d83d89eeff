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

package core

import "testing"

func TestClassify_NilReplyIsInfrastructureFailure(t *testing.T) {
	r := Classify(nil)
	if r.Verified {
		t.Fatalf("expected verified=false for nil reply")
	}
	if len(r.Errors) != 1 || r.Errors[0].Data != "job failed" {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
}

func TestClassify_EmptyReplyIsInfrastructureFailure(t *testing.T) {
	r := Classify(&RawReply{})
	if r.Verified {
		t.Fatalf("expected verified=false for empty reply")
	}
	if len(r.Errors) != 1 || r.Errors[0].Data != "job failed" {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
}

func TestClassify_Timeout(t *testing.T) {
	r := Classify(&RawReply{Message: "timeout after 1s"})
	if r.Verified {
		t.Fatalf("expected verified=false for timeout")
	}
	if len(r.Errors) != 1 || r.Errors[0].Data != "timeout" {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
}

func TestClassify_ReplError(t *testing.T) {
	r := Classify(&RawReply{Error: "parse failure"})
	if r.Verified {
		t.Fatalf("expected verified=false for REPL error")
	}
	if len(r.Errors) != 1 || r.Errors[0].Data != "parse failure" {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
}

func TestClassify_CompilerDiagnostic(t *testing.T) {
	msgs := []ReplyMessage{
		{Severity: "info", Data: "note"},
		{Severity: "error", Data: "type mismatch"},
	}
	r := Classify(&RawReply{Messages: &msgs})
	if r.Verified {
		t.Fatalf("expected verified=false with an error-severity message")
	}
	if len(r.Errors) != 1 || r.Errors[0].Severity != "error" {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
}

func TestClassify_EmptyMessagesListIsSuccess(t *testing.T) {
	empty := []ReplyMessage{}
	r := Classify(&RawReply{Messages: &empty})
	if !r.Verified {
		t.Fatalf("expected verified=true for empty messages list")
	}
	if len(r.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", r.Errors)
	}
}

func TestClassify_Success(t *testing.T) {
	env := 0
	r := Classify(&RawReply{Env: &env})
	if !r.Verified {
		t.Fatalf("expected verified=true")
	}
	if len(r.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", r.Errors)
	}
}

func TestClassify_TotalOverEdgeInputs(t *testing.T) {
	inputs := []*RawReply{nil, {}, {Message: "x"}}
	for _, in := range inputs {
		r := Classify(in)
		if r.Errors == nil {
			t.Fatalf("expected non-nil Errors slice for input %v", in)
		}
	}
}
