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
	"time"
)

// reaperTick is the fixed poll period, independent of idleTimeout. Actual
// eviction lag is therefore bounded above by idleTimeout + reaperTick.
const reaperTick = time.Second

// runReaper is the pool's dedicated background goroutine. It ticks roughly
// once a second, sweeping every stripe's cache for entries older than the
// pool's current idle timeout, until ctx is cancelled by Close.
func (p *Pool[R]) runReaper(ctx context.Context) {
	defer close(p.reaperDone)

	ticker := p.clock.Ticker(reaperTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.reapOnce()
		}
	}
}

// reapOnce sweeps every stripe's cache once, destroying entries whose idle
// time exceeds the current timeout.
func (p *Pool[R]) reapOnce() {
	now := p.clock.Now()
	timeout := p.idleTimeout()

	for i, lp := range p.stripes {
		lp.mu.Lock()
		stale, fresh := partitionByAge(lp.cache, now, timeout)
		lp.cache = fresh
		available, cacheLen, waiters := lp.available, len(lp.cache), lp.waitersLen()
		lp.mu.Unlock()

		p.metrics.setStripeGauges(i, available, cacheLen, waiters)

		for _, e := range stale {
			p.destroySwallow(e.value)
		}
		if len(stale) > 0 {
			p.logger.Debugf("stripepool[%s]: reaper evicted %d idle entries from stripe %d", p.id, len(stale), i)
		}
	}
}

// partitionByAge splits cache into entries older than timeout (stale) and
// the rest (fresh), preserving relative order within each half.
func partitionByAge[R any](cache []entry[R], now time.Time, timeout time.Duration) (stale, fresh []entry[R]) {
	for _, e := range cache {
		if now.Sub(e.lastUsed) > timeout {
			stale = append(stale, e)
		} else {
			fresh = append(fresh, e)
		}
	}
	return stale, fresh
}
