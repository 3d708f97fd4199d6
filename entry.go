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

package stripepool

import "time"

// entry is an idle resource sitting in a stripe's cache, paired with the
// clock time it was returned. The reaper compares lastUsed against the
// pool's idle timeout to decide whether to evict it.
type entry[R any] struct {
	value    R
	lastUsed time.Time
}
