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

// Package main provides the entry point for a verifier worker process. It
// reads its configuration once from the environment, wires the broker
// client and the worker runtime together, and blocks until signalled,
// draining the worker (and every cached REPL subprocess) gracefully on
// shutdown.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"verifier/internal/verifier/broker"
	"verifier/internal/verifier/config"
	"verifier/internal/verifier/telemetry"
	"verifier/internal/verifier/worker"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	telemetry.ServeMetrics(cfg.MetricsAddr)

	b, err := broker.Build(cfg.BrokerAdapter, cfg.BrokerAddr, cfg.BrokerDB)
	if err != nil {
		log.Fatalf("broker: %v", err)
	}

	w := worker.New(cfg, b)
	if err := w.Start(context.Background()); err != nil {
		log.Fatalf("worker: starting: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down verifier worker...")
	w.Stop()
	log.Println("verifier worker stopped.")
}
