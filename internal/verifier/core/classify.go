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

import "strings"

// Classify turns a raw REPL reply into a uniform result record. It is
// total: every reply, including nil and the zero RawReply, produces a
// Result with a boolean Verified and a non-nil Errors slice. Decision
// order is first-match-wins: missing reply, then timeout, then REPL
// error, then compiler diagnostics, then success.
func Classify(raw *RawReply) Result {
	if raw.Empty() {
		empty := RawReply{}
		if raw != nil {
			empty = *raw
		}
		return Result{
			Raw:      empty,
			Verified: false,
			Errors:   []ReplyMessage{{Severity: "error", Data: "job failed"}},
		}
	}

	if strings.Contains(raw.Message, "timeout") {
		return Result{
			Raw:      *raw,
			Verified: false,
			Errors:   []ReplyMessage{{Severity: "error", Data: "timeout"}},
		}
	}

	if raw.Error != "" {
		return Result{
			Raw:      *raw,
			Verified: false,
			Errors:   []ReplyMessage{{Severity: "error", Data: raw.Error}},
		}
	}

	if raw.Messages != nil {
		errs := make([]ReplyMessage, 0, len(*raw.Messages))
		for _, m := range *raw.Messages {
			if m.Severity == "error" {
				errs = append(errs, m)
			}
		}
		return Result{Raw: *raw, Verified: len(errs) == 0, Errors: errs}
	}

	return Result{Raw: *raw, Verified: true, Errors: []ReplyMessage{}}
}
