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

import "sync/atomic"

// slotState tags the single handoff a slot may carry.
type slotState int32

const (
	slotEmpty slotState = iota
	slotFilled
	slotTombstoned
)

// slot is a single-shot rendezvous cell used to hand one resource directly
// from a returning goroutine (the producer) to a waiting goroutine (the
// consumer) without the resource ever touching the cache. Exactly one of
// tryFill / tryTombstone can win the race to resolve a slot; the loser sees
// the winner's outcome.
type slot[R any] struct {
	state atomic.Int32
	ch    chan R
}

func newSlot[R any]() *slot[R] {
	return &slot[R]{ch: make(chan R, 1)}
}

// tryFill attempts to hand v off through the slot. It returns false if the
// slot was already tombstoned by a cancelled waiter, in which case the
// caller must try the next waiter instead.
func (s *slot[R]) tryFill(v R) bool {
	if !s.state.CompareAndSwap(int32(slotEmpty), int32(slotFilled)) {
		return false
	}
	s.ch <- v
	return true
}

// tryTombstone attempts to mark the slot dead so a producer racing against a
// cancelled wait skips it. It returns false if a producer already won the
// race and filled the slot with a resource; the caller must then drain ch
// and re-publish that resource rather than lose it.
func (s *slot[R]) tryTombstone() bool {
	return s.state.CompareAndSwap(int32(slotEmpty), int32(slotTombstoned))
}
