// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"math"

	"go.uber.org/atomic"
)

// Counter is a monotonic sum per label tuple.
type Counter struct {
	def Definition
	vec *vec[*atomic.Float64]
}

func newCounter(def Definition) *Counter {
	return &Counter{
		def: def,
		vec: newVec(&def, func() *atomic.Float64 { return atomic.NewFloat64(0) }),
	}
}

// Definition implements Metric.
func (c *Counter) Definition() Definition {
	return c.def.clone()
}

// Add increases the counter for the given label values by v. Negative and
// non-finite values are rejected with *InvalidValueError; the counter is left
// untouched.
func (c *Counter) Add(v float64, lvs ...string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidValueError{Metric: c.def.Name, Value: v, Reason: "value is not finite"}
	}
	if v < 0 {
		return &InvalidValueError{Metric: c.def.Name, Value: v, Reason: "counter can't decrease"}
	}
	child, err := c.vec.get(lvs)
	if err != nil {
		return err
	}
	child.Add(v)
	return nil
}

// Inc increases the counter for the given label values by 1.
func (c *Counter) Inc(lvs ...string) error {
	return c.Add(1, lvs...)
}

// Value returns the current value for the given label values, or 0 if the
// tuple was never used.
func (c *Counter) Value(lvs ...string) float64 {
	child, ok := c.vec.lookup(lvs)
	if !ok {
		return 0
	}
	return child.Load()
}

func (c *Counter) samples() []Sample {
	var ret []Sample
	c.vec.each(func(values []string, child *atomic.Float64) {
		ret = append(ret, Sample{LabelValues: values, Value: child.Load()})
	})
	return ret
}
