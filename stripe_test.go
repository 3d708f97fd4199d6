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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwoStackQueueFIFOOrder(t *testing.T) {
	lp := newLocalPool[int](4)

	var slots []*slot[int]
	for i := 0; i < 3; i++ {
		s := newSlot[int]()
		slots = append(slots, s)
		lp.pushWaiter(s)
	}

	got, ok := lp.popWaiter()
	require.True(t, ok)
	assert.Same(t, slots[0], got)

	// Interleave a push between pops; the two-stack refill must still
	// preserve FIFO order.
	s4 := newSlot[int]()
	lp.pushWaiter(s4)

	got, ok = lp.popWaiter()
	require.True(t, ok)
	assert.Same(t, slots[1], got)

	got, ok = lp.popWaiter()
	require.True(t, ok)
	assert.Same(t, slots[2], got)

	got, ok = lp.popWaiter()
	require.True(t, ok)
	assert.Same(t, s4, got)

	_, ok = lp.popWaiter()
	assert.False(t, ok)
}

func TestCacheIsLIFO(t *testing.T) {
	lp := newLocalPool[int](4)
	now := time.Now()
	lp.pushCache(1, now)
	lp.pushCache(2, now)
	lp.pushCache(3, now)

	e, ok := lp.popCache()
	require.True(t, ok)
	assert.Equal(t, 3, e.value)

	e, ok = lp.popCache()
	require.True(t, ok)
	assert.Equal(t, 2, e.value)

	e, ok = lp.popCache()
	require.True(t, ok)
	assert.Equal(t, 1, e.value)

	_, ok = lp.popCache()
	assert.False(t, ok)
}

func TestSlotTryFillTryTombstoneAreMutuallyExclusive(t *testing.T) {
	s := newSlot[int]()
	assert.True(t, s.tryTombstone())
	assert.False(t, s.tryFill(42), "a tombstoned slot must reject a later fill")

	s2 := newSlot[int]()
	assert.True(t, s2.tryFill(7))
	assert.False(t, s2.tryTombstone(), "a filled slot must reject a later tombstone")
	assert.Equal(t, 7, <-s2.ch)
}
