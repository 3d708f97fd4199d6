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
	"sync/atomic"
	"time"
)

// AcquireMethod records how a Take call was satisfied.
type AcquireMethod int

const (
	// Created means CreateFunc was invoked because the stripe had
	// available capacity but nothing cached.
	Created AcquireMethod = iota
	// Taken means an idle Entry was popped straight from the cache.
	Taken
	// WaitedFor means the call blocked on a waiter slot until another
	// goroutine's Put (or cancellation re-publish) handed off a value.
	WaitedFor
)

func (m AcquireMethod) String() string {
	switch m {
	case Created:
		return "Created"
	case Taken:
		return "Taken"
	case WaitedFor:
		return "WaitedFor"
	default:
		return "Unknown"
	}
}

// Resource wraps a borrowed value together with the stripe it was borrowed
// from, so Put/Destroy never require the caller to re-derive stripe
// placement. A one-shot guard makes a duplicate Put or Destroy call a
// no-op instead of double-counting the stripe's available capacity.
type Resource[R any] struct {
	Value              R
	AcquisitionLatency time.Duration
	Method             AcquireMethod
	AvailableAfter     int

	pool      *Pool[R]
	localPool *localPool[R]
	released  atomic.Bool
}

// Put returns the resource to the pool it was borrowed from: handed
// directly to the oldest blocked waiter if one exists, otherwise cached at
// the LIFO head. Calling Put more than once (or after Destroy) is a no-op.
func (r *Resource[R]) Put() {
	if !r.released.CompareAndSwap(false, true) {
		return
	}
	r.localPool.putValue(r.pool, r.Value)
}

// Destroy marks the resource unusable: the stripe's available counter is
// restored immediately, and DestroyFunc runs afterward so a concurrent
// Take can create a replacement without waiting on a possibly slow
// destructor. Calling Destroy more than once (or after Put) is a no-op.
func (r *Resource[R]) Destroy() {
	if !r.released.CompareAndSwap(false, true) {
		return
	}
	r.localPool.destroyValue(r.pool, r.Value)
}

// Take borrows a resource from the pool, blocking until one is available or
// ctx is done. On success the caller must eventually call Put or Destroy on
// the returned Resource exactly once.
func (p *Pool[R]) Take(ctx context.Context) (*Resource[R], error) {
	t1 := p.clock.Now()
	lp := p.selectStripe()

	lp.mu.Lock()
	if lp.available == 0 {
		s := newSlot[R]()
		lp.pushWaiter(s)
		lp.mu.Unlock()

		select {
		case v := <-s.ch:
			p.metrics.incWaited()
			return &Resource[R]{
				Value:              v,
				AcquisitionLatency: p.clock.Now().Sub(t1),
				Method:             WaitedFor,
				AvailableAfter:     0,
				pool:               p,
				localPool:          lp,
			}, nil
		case <-ctx.Done():
			// tryTombstone is a lock-free CAS against the slot itself, so
			// no stripe lock is needed to resolve this race: either this
			// call wins and a later producer will skip the slot, or a
			// producer already won and buffered its value on s.ch.
			if !s.tryTombstone() {
				v := <-s.ch
				lp.putValue(p, v)
			}
			return nil, ctx.Err()
		}
	}

	if e, ok := lp.popCache(); ok {
		lp.available--
		availableAfter := lp.available
		lp.mu.Unlock()
		p.metrics.incTaken()
		return &Resource[R]{
			Value:              e.value,
			AcquisitionLatency: p.clock.Now().Sub(t1),
			Method:             Taken,
			AvailableAfter:     availableAfter,
			pool:               p,
			localPool:          lp,
		}, nil
	}

	lp.available--
	availableAfter := lp.available
	lp.mu.Unlock()

	v, err := p.create(ctx)
	if err != nil {
		lp.mu.Lock()
		lp.available++
		lp.mu.Unlock()
		p.metrics.incCreateFailure()
		return nil, newCreateFailure(err)
	}
	p.metrics.incCreated()
	return &Resource[R]{
		Value:              v,
		AcquisitionLatency: p.clock.Now().Sub(t1),
		Method:             Created,
		AvailableAfter:     availableAfter,
		pool:               p,
		localPool:          lp,
	}, nil
}

// putValue implements the return protocol: hand off to the oldest waiter if
// one exists and its slot isn't tombstoned, otherwise cache the value.
func (lp *localPool[R]) putValue(p *Pool[R], v R) {
	lp.mu.Lock()
	for {
		s, ok := lp.popWaiter()
		if !ok {
			break
		}
		if s.tryFill(v) {
			lp.mu.Unlock()
			return
		}
		// s was tombstoned by a cancelled waiter; discard and try the
		// next one.
	}
	lp.pushCache(v, p.clock.Now())
	lp.available++
	lp.mu.Unlock()
}

// destroyValue restores the stripe's available counter, then invokes
// DestroyFunc outside the lock.
func (lp *localPool[R]) destroyValue(p *Pool[R], v R) {
	lp.mu.Lock()
	lp.available++
	lp.mu.Unlock()
	p.destroySwallow(v)
}

// DestroyAll drains every stripe's idle cache through DestroyFunc. It
// leaves available untouched, since that counter tracks borrowed
// resources, not cached ones. Callers use this to recover from a wholesale
// backend failure, e.g. all connections invalidated by a server restart.
func (p *Pool[R]) DestroyAll() {
	for _, lp := range p.stripes {
		lp.mu.Lock()
		drained := lp.cache
		lp.cache = nil
		lp.mu.Unlock()
		for _, e := range drained {
			p.destroySwallow(e.value)
		}
	}
}

// WithResource is a scoped-borrow convenience: it takes a resource, runs f,
// and destroys the resource if f returns an error (the error is evidence
// the resource may be corrupted) or puts it back on success.
func WithResource[R, T any](ctx context.Context, p *Pool[R], f func(R) (T, error)) (T, error) {
	var zero T
	res, err := p.Take(ctx)
	if err != nil {
		return zero, err
	}
	v, err := f(res.Value)
	if err != nil {
		res.Destroy()
		return zero, err
	}
	res.Put()
	return v, nil
}
