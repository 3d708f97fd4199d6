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
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// poolMetrics mirrors per-stripe state as Prometheus gauges/counters. All
// metric families are registered once at package init, with namespace and
// pool_id carried as label values rather than baked into distinct
// collectors per Pool, so constructing many pools (or pools with a custom
// WithMetricsNamespace) never triggers a duplicate-registration panic.
type poolMetrics struct {
	namespace string
	poolID    string

	available     *prometheus.GaugeVec
	cacheLen      *prometheus.GaugeVec
	waitersLen    *prometheus.GaugeVec
	created       *prometheus.CounterVec
	destroyed     *prometheus.CounterVec
	taken         *prometheus.CounterVec
	waited        *prometheus.CounterVec
	createFailure *prometheus.CounterVec
}

var (
	availableGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Subsystem: "stripepool", Name: "available", Help: "unborrowed capacity in a stripe"},
		[]string{"namespace", "pool_id", "stripe"},
	)
	cacheLenGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Subsystem: "stripepool", Name: "cache_len", Help: "idle entries cached in a stripe"},
		[]string{"namespace", "pool_id", "stripe"},
	)
	waitersLenGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Subsystem: "stripepool", Name: "waiters_len", Help: "waiter slots queued in a stripe, including ones left by cancelled waiters"},
		[]string{"namespace", "pool_id", "stripe"},
	)
	createdCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{Subsystem: "stripepool", Name: "created_total", Help: "resources created by CreateFunc"},
		[]string{"namespace", "pool_id"},
	)
	destroyedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{Subsystem: "stripepool", Name: "destroyed_total", Help: "resources passed to DestroyFunc"},
		[]string{"namespace", "pool_id"},
	)
	takenCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{Subsystem: "stripepool", Name: "taken_total", Help: "takes satisfied from the idle cache"},
		[]string{"namespace", "pool_id"},
	)
	waitedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{Subsystem: "stripepool", Name: "waited_total", Help: "takes that had to block on a waiter slot"},
		[]string{"namespace", "pool_id"},
	)
	createFailureCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{Subsystem: "stripepool", Name: "create_failures_total", Help: "CreateFunc calls that returned an error"},
		[]string{"namespace", "pool_id"},
	)
)

func init() {
	prometheus.MustRegister(
		availableGauge, cacheLenGauge, waitersLenGauge,
		createdCounter, destroyedCounter, takenCounter, waitedCounter, createFailureCounter,
	)
}

func newPoolMetrics(namespace, poolID string) *poolMetrics {
	return &poolMetrics{
		namespace:     namespace,
		poolID:        poolID,
		available:     availableGauge,
		cacheLen:      cacheLenGauge,
		waitersLen:    waitersLenGauge,
		created:       createdCounter,
		destroyed:     destroyedCounter,
		taken:         takenCounter,
		waited:        waitedCounter,
		createFailure: createFailureCounter,
	}
}

func (m *poolMetrics) stripeLabels(stripe int) prometheus.Labels {
	return prometheus.Labels{"namespace": m.namespace, "pool_id": m.poolID, "stripe": strconv.Itoa(stripe)}
}

func (m *poolMetrics) poolLabels() prometheus.Labels {
	return prometheus.Labels{"namespace": m.namespace, "pool_id": m.poolID}
}

func (m *poolMetrics) setStripeGauges(stripe, available, cacheLen, waiters int) {
	labels := m.stripeLabels(stripe)
	m.available.With(labels).Set(float64(available))
	m.cacheLen.With(labels).Set(float64(cacheLen))
	m.waitersLen.With(labels).Set(float64(waiters))
}

func (m *poolMetrics) incCreated()       { m.created.With(m.poolLabels()).Inc() }
func (m *poolMetrics) incDestroyed()     { m.destroyed.With(m.poolLabels()).Inc() }
func (m *poolMetrics) incTaken()         { m.taken.With(m.poolLabels()).Inc() }
func (m *poolMetrics) incWaited()        { m.waited.With(m.poolLabels()).Inc() }
func (m *poolMetrics) incCreateFailure() { m.createFailure.With(m.poolLabels()).Inc() }
