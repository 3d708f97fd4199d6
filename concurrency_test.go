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
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandoffWakesBlockedWaiterWithSameValue(t *testing.T) {
	create, destroy, _, _ := countingFactory(t)
	p, err := New[int](create, destroy, time.Second, 2, WithStripeCount(1))
	require.NoError(t, err)
	defer p.Close()

	r1, err := p.Take(context.Background())
	require.NoError(t, err)
	r2, err := p.Take(context.Background())
	require.NoError(t, err)

	waiterResult := make(chan *Resource[int], 1)
	started := make(chan struct{})
	go func() {
		close(started)
		r, err := p.Take(context.Background())
		require.NoError(t, err)
		waiterResult <- r
	}()
	<-started
	// Give the waiter goroutine a chance to block on its slot before we
	// put r1 back.
	require.Eventually(t, func() bool {
		p.stripes[0].mu.Lock()
		defer p.stripes[0].mu.Unlock()
		return p.stripes[0].waitersLen() == 1
	}, time.Second, time.Millisecond)

	r1.Put()

	var woken *Resource[int]
	select {
	case woken = <-waiterResult:
	case <-time.After(time.Second):
		t.Fatal("waiter was never woken")
	}

	assert.Equal(t, WaitedFor, woken.Method)
	assert.Equal(t, 0, woken.AvailableAfter)
	assert.Equal(t, r1.Value, woken.Value, "the waiter must receive the exact value thread 1 returned, not a freshly created one")

	r2.Put()
	woken.Put()
}

func TestCancelledWaiterDoesNotLoseHandoff(t *testing.T) {
	create, destroy, _, _ := countingFactory(t)
	p, err := New[int](create, destroy, time.Second, 2, WithStripeCount(1))
	require.NoError(t, err)
	defer p.Close()

	r1, err := p.Take(context.Background())
	require.NoError(t, err)
	r2, err := p.Take(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	waiterErr := make(chan error, 1)
	go func() {
		_, err := p.Take(ctx)
		waiterErr <- err
	}()

	require.Eventually(t, func() bool {
		p.stripes[0].mu.Lock()
		defer p.stripes[0].mu.Unlock()
		return p.stripes[0].waitersLen() == 1
	}, time.Second, time.Millisecond)

	cancel()

	select {
	case err := <-waiterErr:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled waiter never returned")
	}

	// The cancellation must be fully processed (slot tombstoned) before
	// r1.Put runs, otherwise both orderings of the race are valid: either
	// the put lands in the cache (this assertion) or the cancellation
	// loses the race to the put and republishes instead. Either way no
	// resource is lost; we assert the common, deterministic ordering here
	// since we waited for the waiter goroutine to fully return above.
	r1.Put()

	stats := p.Stats()
	assert.Equal(t, 1, stats.Cached, "the returned value must be cached, not lost, after the waiter cancelled")

	r2.Put()
}

func TestFIFOOrderingAmongWaiters(t *testing.T) {
	create, destroy, _, _ := countingFactory(t)
	p, err := New[int](create, destroy, time.Second, 1, WithStripeCount(1))
	require.NoError(t, err)
	defer p.Close()

	r, err := p.Take(context.Background())
	require.NoError(t, err)

	// Each waiter, once it receives the resource, hands it straight back
	// via Put so the next queued waiter (in FIFO order) picks it up; the
	// chain is kicked off by the single r.Put() below.
	const n = 5
	order := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			res, err := p.Take(context.Background())
			require.NoError(t, err)
			order <- i
			res.Put()
		}()
		require.Eventually(t, func() bool {
			p.stripes[0].mu.Lock()
			defer p.stripes[0].mu.Unlock()
			return p.stripes[0].waitersLen() == i+1
		}, time.Second, time.Millisecond)
	}

	r.Put()
	wg.Wait()
	close(order)
	i := 0
	for got := range order {
		assert.Equal(t, i, got, "waiters must be served in FIFO order")
		i++
	}
}

func TestConcurrentTakePutRespectsAvailableBounds(t *testing.T) {
	create, destroy, _, _ := countingFactory(t)
	const poolCap = 8
	p, err := New[int](create, destroy, time.Second, poolCap, WithStripeCount(1))
	require.NoError(t, err)
	defer p.Close()

	var wg sync.WaitGroup
	var violations int32
	const workers = 16
	const iterations = 200
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				r, err := p.Take(context.Background())
				if err != nil {
					continue
				}
				p.stripes[0].mu.Lock()
				avail := p.stripes[0].available
				p.stripes[0].mu.Unlock()
				if avail < 0 || avail > poolCap {
					atomic.AddInt32(&violations, 1)
				}
				r.Put()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(0), violations, "available must always stay in [0, poolCap]")
	assert.Equal(t, poolCap, p.Stats().Available, "with every resource returned, available must be back at poolCap")
}
