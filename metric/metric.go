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

/*
Package metric implements a simple int64 metric with Set, Add and Increment
abilities, mirrored into a prometheus collector.

Metric names are exported with the adrealm_ namespace, so join_success is
scraped as adrealm_join_success.
*/
package metric

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every exported metric.
const Namespace = "adrealm"

// ErrCounterSet is returned when Set is called on a counter.
var ErrCounterSet = errors.New("counters cannot be set")

// Metric tracks a basic int64 type value metric.
type Metric struct {
	name string

	mu      sync.Mutex
	value   int64
	counter prometheus.Counter
	gauge   prometheus.Gauge
}

// NewCounter allocates a new metric for incremental values and registers it
// with reg. A nil reg leaves the metric unexported.
func NewCounter(name, help string, reg prometheus.Registerer) (*Metric, error) {
	c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: Namespace, Name: name, Help: help})
	if err := register(reg, c); err != nil {
		return nil, fmt.Errorf("registering counter %q: %w", name, err)
	}
	return &Metric{name: name, counter: c}, nil
}

// NewGauge allocates a new metric for arbitrary values.
func NewGauge(name, help string, reg prometheus.Registerer) (*Metric, error) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: Namespace, Name: name, Help: help})
	if err := register(reg, g); err != nil {
		return nil, fmt.Errorf("registering gauge %q: %w", name, err)
	}
	return &Metric{name: name, gauge: g}, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector) error {
	if reg == nil {
		return nil
	}
	return reg.Register(c)
}

// Increment adds one to the current value.
func (c *Metric) Increment() error {
	return c.Add(1)
}

// Add adds delta to the current value. Counters reject negative deltas.
func (c *Metric) Add(delta int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.counter != nil {
		if delta < 0 {
			return fmt.Errorf("counter %q cannot decrease", c.name)
		}
		c.counter.Add(float64(delta))
	} else {
		c.gauge.Add(float64(delta))
	}
	c.value += delta
	return nil
}

// Name retrieves the name of the metric.
func (c *Metric) Name() string {
	return c.name
}

// Value retrieves the current value of the metric.
func (c *Metric) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.value
}

// Set updates the internal metric value. Only gauges can be set.
func (c *Metric) Set(val int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.counter != nil {
		return fmt.Errorf("%w: %s", ErrCounterSet, c.name)
	}
	c.gauge.Set(float64(val))
	c.value = val
	return nil
}
