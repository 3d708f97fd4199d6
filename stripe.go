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

import (
	"sync"
	"time"
)

// localPool is the exclusive owner of one stripe's mutable state: the
// available-capacity counter, the idle cache, and the waiter FIFO. Every
// field below is read and written only while holding mu; that mutex is the
// pool's sole serialization point, and under one stripe per scheduler unit
// contention on it is effectively zero.
//
// Invariants (held whenever mu is not locked):
//   - available is always in [0, cap].
//   - available == cap implies queue and queueR are both empty.
//   - cache non-empty implies queue and queueR are both empty.
//   - available > 0 implies queue and queueR are both empty.
type localPool[R any] struct {
	mu sync.Mutex

	available int
	cap       int

	cache []entry[R] // LIFO stack; last element is the most recently returned

	// queue/queueR implement an amortized O(1) FIFO as two stacks: new
	// waiters are pushed onto queueR; queue is drained from its tail, and
	// refilled by popping queueR onto it (which reverses order) once
	// queue runs dry.
	queue  []*slot[R]
	queueR []*slot[R]
}

func newLocalPool[R any](cap int) *localPool[R] {
	return &localPool[R]{available: cap, cap: cap}
}

// pushWaiter enqueues s at the back of the FIFO. Caller holds mu.
func (lp *localPool[R]) pushWaiter(s *slot[R]) {
	lp.queueR = append(lp.queueR, s)
}

// popWaiter dequeues the oldest waiting slot, if any. Caller holds mu.
func (lp *localPool[R]) popWaiter() (*slot[R], bool) {
	if len(lp.queue) == 0 {
		for len(lp.queueR) > 0 {
			n := len(lp.queueR) - 1
			lp.queue = append(lp.queue, lp.queueR[n])
			lp.queueR[n] = nil
			lp.queueR = lp.queueR[:n]
		}
	}
	if len(lp.queue) == 0 {
		return nil, false
	}
	n := len(lp.queue) - 1
	s := lp.queue[n]
	lp.queue[n] = nil
	lp.queue = lp.queue[:n]
	return s, true
}

// hasWaiters reports whether any waiter slot is queued on this stripe,
// including slots tombstoned by cancelled waiters that no Put has popped
// yet. Caller holds mu.
func (lp *localPool[R]) hasWaiters() bool {
	return len(lp.queue) > 0 || len(lp.queueR) > 0
}

// pushCache prepends (logically) an idle entry to the LIFO cache. Caller
// holds mu.
func (lp *localPool[R]) pushCache(v R, lastUsed time.Time) {
	lp.cache = append(lp.cache, entry[R]{value: v, lastUsed: lastUsed})
}

// popCache pops the most recently cached entry, if any. Caller holds mu.
func (lp *localPool[R]) popCache() (entry[R], bool) {
	if len(lp.cache) == 0 {
		var zero entry[R]
		return zero, false
	}
	n := len(lp.cache) - 1
	e := lp.cache[n]
	lp.cache = lp.cache[:n]
	return e, true
}

// waitersLen reports the number of queued waiter slots, including slots
// tombstoned by cancelled waiters that no Put has popped yet. Caller holds
// mu.
func (lp *localPool[R]) waitersLen() int {
	return len(lp.queue) + len(lp.queueR)
}
