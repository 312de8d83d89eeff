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

import (
	"regexp"
	"sort"
	"strings"
)

var importLineRe = regexp.MustCompile(`^import .*$`)

// ParseHeader splits theorem text into its leading import lines and its
// body. Non-blank lines matching `^import .*$` (after trimming) form the
// header, in source order; all other non-blank lines are re-joined with
// newlines and trimmed to form the body. No deduplication happens here —
// that is MakeHeaderKey's job.
func ParseHeader(text string) (headers []string, body string) {
	lines := strings.Split(text, "\n")
	var bodyLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if importLineRe.MatchString(trimmed) {
			headers = append(headers, trimmed)
			continue
		}
		bodyLines = append(bodyLines, trimmed)
	}
	body = strings.TrimSpace(strings.Join(bodyLines, "\n"))
	return headers, body
}

// MakeHeaderKey canonicalizes a set of import lines into a cache key: the
// lines are deduplicated and sorted lexicographically, so two theorems with
// the same import set produce identical keys regardless of order or
// repetition. A nil or empty input produces the empty key.
func MakeHeaderKey(headers []string) string {
	if len(headers) == 0 {
		return ""
	}
	seen := make(map[string]struct{}, len(headers))
	unique := make([]string, 0, len(headers))
	for _, h := range headers {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		unique = append(unique, h)
	}
	sort.Strings(unique)
	return strings.Join(unique, "\n")
}

var (
	blockCommentRe = regexp.MustCompile(`(?s)/-.*?-/\n`)
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
)

// RemoveComments strips block comments `/- ... -/` (non-greedy, spanning
// newlines) first, then line comments `-- ...` through end-of-line. The
// order matters: a line comment marker inside a block comment must not
// survive once the block comment around it is gone.
func RemoveComments(text string) string {
	text = blockCommentRe.ReplaceAllString(text, "")
	text = lineCommentRe.ReplaceAllString(text, "")
	return text
}
