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

import "github.com/benbjohnson/clock"

// config carries everything New's functional Options can tune, separately
// from the immutable fields baked into Pool at construction time.
type config struct {
	clock            clock.Clock
	logger           *Logger
	metricsNamespace string
	stripeCount      int
}

func defaultConfig() *config {
	return &config{
		clock:            clock.New(),
		logger:           defaultLogger,
		metricsNamespace: "stripepool",
		stripeCount:      0, // 0 means "derive from GOMAXPROCS"
	}
}

// Option configures a Pool at construction time.
type Option func(*config)

// WithClock injects a clock.Clock, overriding the real wall clock. Tests use
// this to drive the reaper and latency measurements with clock.NewMock
// instead of sleeping real time.
func WithClock(c clock.Clock) Option {
	return func(cfg *config) { cfg.clock = c }
}

// WithLogger overrides the default stderr logger.
func WithLogger(l *Logger) Option {
	return func(cfg *config) { cfg.logger = l }
}

// WithMetricsNamespace sets the "namespace" label value attached to this
// pool's Prometheus series, letting multiple pools of different resource
// types share one process without their metrics colliding.
func WithMetricsNamespace(ns string) Option {
	return func(cfg *config) { cfg.metricsNamespace = ns }
}

// WithStripeCount pins the stripe count instead of deriving it from
// runtime.GOMAXPROCS(0). Primarily useful in tests, where a fixed, small
// stripe count makes stripe-isolation and handoff scenarios deterministic.
func WithStripeCount(n int) Option {
	return func(cfg *config) { cfg.stripeCount = n }
}
