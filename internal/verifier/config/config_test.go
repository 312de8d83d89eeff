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

package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"REPL_PATH", "PROJECT_PATH", "IMPORTS", "MAX_JOBS", "CACHE_CAPACITY", "BROKER_ADAPTER", "BROKER_ADDR", "BROKER_DB", "METRICS_ADDR", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ReplPath != "/repl" {
		t.Fatalf("expected default REPL_PATH, got %q", cfg.ReplPath)
	}
	if cfg.ProjectPath != cfg.ReplPath {
		t.Fatalf("expected PROJECT_PATH to default to REPL_PATH, got %q", cfg.ProjectPath)
	}
	if len(cfg.Imports) != 2 || cfg.Imports[0] != "import Mathlib" || cfg.Imports[1] != "import Aesop" {
		t.Fatalf("unexpected default imports: %v", cfg.Imports)
	}
	if cfg.MaxJobs != 0 {
		t.Fatalf("expected MAX_JOBS default 0, got %d", cfg.MaxJobs)
	}
	if cfg.CacheCapacity != 3 {
		t.Fatalf("expected CACHE_CAPACITY default 3, got %d", cfg.CacheCapacity)
	}
	if cfg.BrokerAdapter != "redis" {
		t.Fatalf("expected default BROKER_ADAPTER redis, got %q", cfg.BrokerAdapter)
	}
}

func TestFromEnv_OverridesAndValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_JOBS", "-1")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error for negative MAX_JOBS")
	}

	clearEnv(t)
	t.Setenv("CACHE_CAPACITY", "0")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error for non-positive CACHE_CAPACITY")
	}

	clearEnv(t)
	t.Setenv("IMPORTS", " import A , import B ,, ")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Imports) != 2 || cfg.Imports[0] != "import A" || cfg.Imports[1] != "import B" {
		t.Fatalf("unexpected trimmed imports: %v", cfg.Imports)
	}
}
