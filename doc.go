// Copyright 2024 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package stripepool implements a striped resource pool for amortizing the
// cost of constructing expensive, reusable resources. Clients borrow a
// resource with Take and give it back with Resource.Put, or discard it with
// Resource.Destroy when it is known to be broken. The pool shards its state
// across stripes so concurrent borrow/return traffic from independent
// goroutines rarely contends on the same lock, keeps a bounded idle cache per
// stripe, and reaps entries that have sat idle past a configurable timeout.
package stripepool

import (
	_ "go.uber.org/automaxprocs" // right-size GOMAXPROCS from the cgroup quota before stripe count is derived from it
)
