/*
Copyright 2016 Google Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package tracker manages all internal state metrics for the realm daemon.
package tracker

import (
	"sync"

	"github.com/google/adrealm/metric"
	"github.com/google/deck"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric models a metric tracking the internal state of the realm daemon.
type Metric interface {
	Name() string
	Increment() error
	Add(int64) error
	Set(int64) error
	Value() int64
}

// Tracker maintains a map of all internal metrics.
type Tracker struct {
	mu       sync.Mutex
	counters map[string]Metric
	reg      prometheus.Registerer
}

// New allocates a new metric Tracker object. Counters created on demand by
// Increment are registered with reg.
func New(reg prometheus.Registerer) *Tracker {
	return &Tracker{
		counters: make(map[string]Metric),
		reg:      reg,
	}
}

// Get retrieves a metric by name.
func (t *Tracker) Get(name string) Metric {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.counters[name]
}

// Add adds a new metric to the tracker under its own name.
func (t *Tracker) Add(m Metric) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counters[m.Name()] = m
}

// Increment bumps the named metric, creating a counter if none exists.
// It is safe to call on a nil Tracker.
func (t *Tracker) Increment(name string) {
	t.update(name, newCounter, func(m Metric) error { return m.Increment() })
}

// Adjust adds delta to the named metric, creating a gauge if none exists.
// It is safe to call on a nil Tracker.
func (t *Tracker) Adjust(name string, delta int64) {
	t.update(name, newGauge, func(m Metric) error { return m.Add(delta) })
}

func newCounter(name string, reg prometheus.Registerer) (*metric.Metric, error) {
	return metric.NewCounter(name, "Count of "+name+" events.", reg)
}

func newGauge(name string, reg prometheus.Registerer) (*metric.Metric, error) {
	return metric.NewGauge(name, "Current value of "+name+".", reg)
}

func (t *Tracker) update(name string, create func(string, prometheus.Registerer) (*metric.Metric, error), f func(Metric) error) {
	if t == nil {
		return
	}
	t.mu.Lock()
	m, ok := t.counters[name]
	if !ok {
		c, err := create(name, t.reg)
		if err != nil {
			t.mu.Unlock()
			deck.Warningf("metric %q unavailable: %v", name, err)
			return
		}
		t.counters[name] = c
		m = c
	}
	t.mu.Unlock()
	if err := f(m); err != nil {
		deck.Warningf("updating metric %q: %v", name, err)
	}
}
