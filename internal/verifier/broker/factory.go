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

import "fmt"

// Build constructs a Broker for the given adapter name. Supported
// adapters:
//   - "memory": in-process broker; default, and the only adapter that
//     needs no external infrastructure.
//   - "redis": Redis-backed broker using addr/db from configuration.
func Build(adapter, redisAddr string, redisDB int) (Broker, error) {
	switch adapter {
	case "", "memory":
		return NewMemoryBroker(), nil
	case "redis":
		return NewRedisBroker(redisAddr, redisDB), nil
	default:
		return nil, fmt.Errorf("broker: unknown adapter %q", adapter)
	}
}
