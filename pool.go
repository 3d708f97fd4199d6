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
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// minIdleTimeout is the smallest idle timeout New accepts. Below this the
// reaper's ~1s tick period would dominate the requested timeout, making
// eviction behavior effectively unrelated to the caller's setting.
const minIdleTimeout = 500 * time.Millisecond

// CreateFunc constructs a new resource. It is invoked outside any stripe
// lock and may block for as long as it needs.
type CreateFunc[R any] func(ctx context.Context) (R, error)

// DestroyFunc releases a resource. It is invoked outside any stripe lock;
// any panic it raises is recovered and logged, never allowed to corrupt
// pool bookkeeping or abort a batch destroy of other resources.
type DestroyFunc[R any] func(R)

// Pool owns a striped array of LocalPools, the factory callbacks used to
// create and destroy resources, and the background reaper's lifecycle.
type Pool[R any] struct {
	create  CreateFunc[R]
	destroy DestroyFunc[R]

	stripes    []*localPool[R]
	nextStripe atomic.Uint64

	idleTimeoutNanos atomic.Int64

	clock   clock.Clock
	logger  *Logger
	metrics *poolMetrics
	id      uuid.UUID

	reaperCancel context.CancelFunc
	reaperDone   chan struct{}
	closeOnce    sync.Once
}

// New builds a Pool. idleTimeout must be at least 500ms and maxResources at
// least 1, or New returns a *ConfigError. The per-stripe capacity is
// ceil(maxResources / N), where N is the stripe count (runtime.GOMAXPROCS(0)
// by default, or WithStripeCount's value, capped at maxResources), so the
// effective total capacity may exceed maxResources by up to N-1.
func New[R any](create CreateFunc[R], destroy DestroyFunc[R], idleTimeout time.Duration, maxResources int, opts ...Option) (*Pool[R], error) {
	if idleTimeout < minIdleTimeout {
		return nil, configErrorf("stripepool: idleTimeout must be >= %s, got %s", minIdleTimeout, idleTimeout)
	}
	if maxResources < 1 {
		return nil, configErrorf("stripepool: maxResources must be >= 1, got %d", maxResources)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	n := cfg.stripeCount
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > maxResources {
		n = maxResources
	}
	if n < 1 {
		n = 1
	}

	perStripeCap := int(math.Ceil(float64(maxResources) / float64(n)))

	id := uuid.New()
	p := &Pool[R]{
		create:  create,
		destroy: destroy,
		clock:   cfg.clock,
		logger:  cfg.logger,
		metrics: newPoolMetrics(cfg.metricsNamespace, id.String()),
		id:      id,
	}
	p.idleTimeoutNanos.Store(int64(idleTimeout))

	p.stripes = make([]*localPool[R], n)
	for i := range p.stripes {
		p.stripes[i] = newLocalPool[R](perStripeCap)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.reaperCancel = cancel
	p.reaperDone = make(chan struct{})
	go p.runReaper(ctx)

	runtime.SetFinalizer(p, func(p *Pool[R]) {
		p.logger.Warnf("stripepool[%s]: pool garbage collected without Close; call Close explicitly for timely release", p.id)
		p.Close()
	})

	p.logger.Infof("stripepool[%s]: created with %d stripes, per-stripe capacity %d, idle timeout %s", p.id, n, perStripeCap, idleTimeout)
	return p, nil
}

// ID returns this pool's unique identifier, useful for disambiguating
// multiple pools of different resource types sharing one process's logs and
// metrics.
func (p *Pool[R]) ID() uuid.UUID { return p.id }

// UpdateIdleTimeout retunes eviction without rebuilding the pool. It takes
// effect on the reaper's next tick.
func (p *Pool[R]) UpdateIdleTimeout(d time.Duration) {
	p.idleTimeoutNanos.Store(int64(d))
}

func (p *Pool[R]) idleTimeout() time.Duration {
	return time.Duration(p.idleTimeoutNanos.Load())
}

// PoolStats is a cheap, non-Prometheus introspection snapshot summed across
// all stripes.
type PoolStats struct {
	Available int
	Cached    int
	Waiters   int
}

// Stats snapshots available/cached/waiting counts across every stripe.
func (p *Pool[R]) Stats() PoolStats {
	var s PoolStats
	for _, lp := range p.stripes {
		lp.mu.Lock()
		s.Available += lp.available
		s.Cached += len(lp.cache)
		s.Waiters += lp.waitersLen()
		lp.mu.Unlock()
	}
	return s
}

// selectStripe picks the LocalPool a Take call will operate against. Go
// exposes no public "current CPU" identifier, so this follows the
// documented fallback of a stable, process-wide round-robin counter: each
// Take samples it once and threads the chosen LocalPool through the
// returned Resource, so the matching Put/Destroy always targets the same
// stripe even if the goroutine migrates to a different OS thread in
// between.
func (p *Pool[R]) selectStripe() *localPool[R] {
	idx := p.nextStripe.Add(1)
	return p.stripes[idx%uint64(len(p.stripes))]
}

// destroySwallow invokes destroy, recovering and logging any panic so that
// one bad resource can never interrupt a batch destroy of others or corrupt
// pool bookkeeping.
func (p *Pool[R]) destroySwallow(v R) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnf("stripepool[%s]: DestroyFunc panicked: %v", p.id, r)
		}
	}()
	p.destroy(v)
	p.metrics.incDestroyed()
}

// Close cancels the reaper and drains every stripe's cache through
// DestroyFunc. It is idempotent and safe to call more than once. New also
// registers a finalizer that calls Close, but the running reaper goroutine
// holds a reference to the Pool until Close stops it, so a Pool dropped
// without Close is never finalized and keeps its reaper goroutine and
// cached resources.
func (p *Pool[R]) Close() error {
	p.closeOnce.Do(func() {
		p.reaperCancel()
		<-p.reaperDone
		p.DestroyAll()
		runtime.SetFinalizer(p, nil)
		p.logger.Infof("stripepool[%s]: closed", p.id)
	})
	return nil
}
