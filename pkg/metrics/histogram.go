// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"math"
	"sort"
	"sync"
)

// Histogram counts observations into cumulative buckets per label tuple.
type Histogram struct {
	def Definition
	vec *vec[*histogramChild]
}

type histogramChild struct {
	upperBounds []float64

	mu sync.Mutex
	// counts[i] is the number of observations <= upperBounds[i].
	counts []uint64
	count  uint64
	sum    float64
}

func newHistogram(def Definition) *Histogram {
	return &Histogram{
		def: def,
		vec: newVec(&def, func() *histogramChild {
			return &histogramChild{
				upperBounds: def.Buckets,
				counts:      make([]uint64, len(def.Buckets)),
			}
		}),
	}
}

// Definition implements Metric.
func (h *Histogram) Definition() Definition {
	return h.def.clone()
}

// Observe records v for the given label values. Non-finite values are
// rejected with *InvalidValueError.
func (h *Histogram) Observe(v float64, lvs ...string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidValueError{Metric: h.def.Name, Value: v, Reason: "value is not finite"}
	}
	child, err := h.vec.get(lvs)
	if err != nil {
		return err
	}
	child.observe(v)
	return nil
}

// Sample returns the current state for the given label values.
func (h *Histogram) Sample(lvs ...string) (HistogramSample, bool) {
	child, ok := h.vec.lookup(lvs)
	if !ok {
		return HistogramSample{}, false
	}
	return child.snapshot(), true
}

func (h *Histogram) samples() []Sample {
	var ret []Sample
	h.vec.each(func(values []string, child *histogramChild) {
		s := child.snapshot()
		ret = append(ret, Sample{LabelValues: values, Histogram: &s})
	})
	return ret
}

func (c *histogramChild) observe(v float64) {
	// smallest i such that upperBounds[i] >= v
	i := sort.SearchFloat64s(c.upperBounds, v)
	c.mu.Lock()
	for j := i; j < len(c.counts); j++ {
		c.counts[j]++
	}
	c.count++
	c.sum += v
	c.mu.Unlock()
}

func (c *histogramChild) snapshot() HistogramSample {
	buckets := make([]Bucket, len(c.upperBounds))
	c.mu.Lock()
	for i, ub := range c.upperBounds {
		buckets[i] = Bucket{UpperBound: ub, CumulativeCount: c.counts[i]}
	}
	s := HistogramSample{Buckets: buckets, Count: c.count, Sum: c.sum}
	c.mu.Unlock()
	return s
}
