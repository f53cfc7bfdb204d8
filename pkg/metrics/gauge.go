// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"math"

	"go.uber.org/atomic"
)

// Gauge holds the last set value per label tuple.
type Gauge struct {
	def Definition
	vec *vec[*atomic.Float64]
}

func newGauge(def Definition) *Gauge {
	return &Gauge{
		def: def,
		vec: newVec(&def, func() *atomic.Float64 { return atomic.NewFloat64(0) }),
	}
}

// Definition implements Metric.
func (g *Gauge) Definition() Definition {
	return g.def.clone()
}

func (g *Gauge) child(v float64, lvs []string) (*atomic.Float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &InvalidValueError{Metric: g.def.Name, Value: v, Reason: "value is not finite"}
	}
	return g.vec.get(lvs)
}

// Set overwrites the gauge value for the given label values.
func (g *Gauge) Set(v float64, lvs ...string) error {
	child, err := g.child(v, lvs)
	if err != nil {
		return err
	}
	child.Store(v)
	return nil
}

// Add adds v, which can be negative, to the gauge value.
func (g *Gauge) Add(v float64, lvs ...string) error {
	child, err := g.child(v, lvs)
	if err != nil {
		return err
	}
	child.Add(v)
	return nil
}

// Sub subtracts v from the gauge value.
func (g *Gauge) Sub(v float64, lvs ...string) error {
	return g.Add(-v, lvs...)
}

func (g *Gauge) Inc(lvs ...string) error {
	return g.Add(1, lvs...)
}

func (g *Gauge) Dec(lvs ...string) error {
	return g.Add(-1, lvs...)
}

// Value returns the current value for the given label values, or 0 if the
// tuple was never used.
func (g *Gauge) Value(lvs ...string) float64 {
	child, ok := g.vec.lookup(lvs)
	if !ok {
		return 0
	}
	return child.Load()
}

// Observe implements Observer, so that SafeSet can share the coercion logic
// of SafeObserve.
func (g *Gauge) Observe(v float64, lvs ...string) error {
	return g.Set(v, lvs...)
}

func (g *Gauge) samples() []Sample {
	var ret []Sample
	g.vec.each(func(values []string, child *atomic.Float64) {
		ret = append(ret, Sample{LabelValues: values, Value: child.Load()})
	})
	return ret
}
