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

// Package config provides a single explicit configuration record for the
// verifier worker, read once from the environment at process startup. There
// is no global singleton beyond this read-once snapshot; every component
// that needs configuration takes it through its constructor.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the process-wide configuration snapshot, threaded through
// construction of the cache, broker client, and worker.
type Config struct {
	// ReplPath is the root directory containing the REPL build artifact.
	ReplPath string
	// ProjectPath is the working directory for REPL subprocesses.
	ProjectPath string
	// Imports are the default import lines used to warm a worker's first
	// cache entry at boot.
	Imports []string
	// MaxJobs is the job quota before a worker recycles its cache. Zero
	// disables recycling.
	MaxJobs int
	// CacheCapacity is K, the header-environment cache's bounded size.
	CacheCapacity int
	// BrokerAdapter selects the broker implementation ("redis" or
	// "memory"). Defaults to "redis".
	BrokerAdapter string
	// BrokerAddr is the Redis endpoint backing the job broker.
	BrokerAddr string
	// BrokerDB selects the Redis logical database.
	BrokerDB int
	// MetricsAddr, if non-empty, is where Prometheus /metrics is served.
	MetricsAddr string
	// LogLevel names the verbosity of process logging (e.g. "info", "debug").
	LogLevel string
}

// FromEnv reads the configuration snapshot from the process environment,
// applying defaults for anything unset.
func FromEnv() (Config, error) {
	cfg := Config{
		ReplPath:      getenv("REPL_PATH", "/repl"),
		ProjectPath:   getenv("PROJECT_PATH", ""),
		Imports:       splitImports(getenv("IMPORTS", "import Mathlib,import Aesop")),
		MaxJobs:       0,
		CacheCapacity: 3,
		BrokerAdapter: getenv("BROKER_ADAPTER", "redis"),
		BrokerAddr:    getenv("BROKER_ADDR", "localhost:6379"),
		BrokerDB:      0,
		MetricsAddr:   os.Getenv("METRICS_ADDR"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
	}
	if cfg.ProjectPath == "" {
		cfg.ProjectPath = cfg.ReplPath
	}

	var err error
	if cfg.MaxJobs, err = getenvInt("MAX_JOBS", 0); err != nil {
		return Config{}, err
	}
	if cfg.MaxJobs < 0 {
		return Config{}, fmt.Errorf("config: MAX_JOBS must be non-negative, got %d", cfg.MaxJobs)
	}
	if cfg.CacheCapacity, err = getenvInt("CACHE_CAPACITY", 3); err != nil {
		return Config{}, err
	}
	if cfg.CacheCapacity <= 0 {
		return Config{}, fmt.Errorf("config: CACHE_CAPACITY must be positive, got %d", cfg.CacheCapacity)
	}
	if cfg.BrokerDB, err = getenvInt("BROKER_DB", 0); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q: %w", key, v, err)
	}
	return n, nil
}

func splitImports(raw string) []string {
	parts := strings.Split(raw, ",")
	imports := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			imports = append(imports, p)
		}
	}
	return imports
}
