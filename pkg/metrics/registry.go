// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/model"
)

// Kind is the type of a registered metric.
type Kind int

const (
	CounterKind Kind = iota
	GaugeKind
	HistogramKind
)

func (k Kind) String() string {
	switch k {
	case CounterKind:
		return "counter"
	case GaugeKind:
		return "gauge"
	case HistogramKind:
		return "histogram"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Definition describes a metric. Name is unique within a Registry, and the
// order of LabelNames is the order in which label values are passed to the
// metric.
type Definition struct {
	Name       string
	Help       string
	Kind       Kind
	LabelNames []string
	// Buckets is only used by histograms.
	Buckets []float64
}

func (d Definition) clone() Definition {
	d.LabelNames = slices.Clone(d.LabelNames)
	d.Buckets = slices.Clone(d.Buckets)
	return d
}

func (d *Definition) validate() error {
	if !model.IsValidMetricName(model.LabelValue(d.Name)) {
		return fmt.Errorf("invalid metric name %q", d.Name)
	}
	seen := make(map[string]struct{}, len(d.LabelNames))
	for _, l := range d.LabelNames {
		if !model.LabelName(l).IsValid() || strings.HasPrefix(l, model.ReservedLabelPrefix) {
			return fmt.Errorf("metric %q: invalid label name %q", d.Name, l)
		}
		if _, ok := seen[l]; ok {
			return fmt.Errorf("metric %q: duplicate label name %q", d.Name, l)
		}
		seen[l] = struct{}{}
	}
	switch d.Kind {
	case CounterKind, GaugeKind:
		if len(d.Buckets) > 0 {
			return fmt.Errorf("metric %q: buckets are only valid for histograms", d.Name)
		}
	case HistogramKind:
		if _, ok := seen[model.BucketLabel]; ok {
			return fmt.Errorf("metric %q: %q is reserved for histogram buckets", d.Name, model.BucketLabel)
		}
		if len(d.Buckets) == 0 {
			d.Buckets = slices.Clone(prometheus.DefBuckets)
		}
		for i, b := range d.Buckets {
			if math.IsNaN(b) || math.IsInf(b, 0) {
				return fmt.Errorf("metric %q: bucket %v is not finite", d.Name, b)
			}
			if i > 0 && b <= d.Buckets[i-1] {
				return fmt.Errorf("metric %q: buckets must be strictly ascending, %v follows %v", d.Name, b, d.Buckets[i-1])
			}
		}
	default:
		return fmt.Errorf("metric %q: unknown kind %v", d.Name, d.Kind)
	}
	return nil
}

// Metric is a handle to a registered metric. It's one of *Counter, *Gauge or
// *Histogram.
type Metric interface {
	Definition() Definition
	samples() []Sample
}

// Registry holds a set of uniquely named metrics and their state.
//
// A Registry is safe for concurrent use. Updates to different label tuples of
// the same metric don't contend with each other, and reading a snapshot
// doesn't block updates beyond the time needed to copy a single tuple.
type Registry struct {
	mu           sync.RWMutex
	metrics      []Metric
	byName       map[string]Metric
	collectFuncs []CollectFunc
	gatherers    []prometheus.Gatherer
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Metric),
	}
}

// Register adds a metric to the registry. It returns *DuplicateNameError if a
// metric with the same name exists already.
func (r *Registry) Register(def Definition) (Metric, error) {
	def = def.clone()
	if err := def.validate(); err != nil {
		return nil, err
	}

	var m Metric
	switch def.Kind {
	case CounterKind:
		m = newCounter(def)
	case GaugeKind:
		m = newGauge(def)
	case HistogramKind:
		m = newHistogram(def)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[def.Name]; ok {
		return nil, &DuplicateNameError{Name: def.Name}
	}
	r.byName[def.Name] = m
	r.metrics = append(r.metrics, m)
	return m, nil
}

// MustRegister is like Register, but panics on error.
func (r *Registry) MustRegister(def Definition) Metric {
	m, err := r.Register(def)
	if err != nil {
		panic(err)
	}
	return m
}

// NewCounter registers a counter.
func (r *Registry) NewCounter(opts Opts) (*Counter, error) {
	m, err := r.Register(opts.definition(CounterKind))
	if err != nil {
		return nil, err
	}
	return m.(*Counter), nil
}

// MustNewCounter is like NewCounter, but panics on error.
func (r *Registry) MustNewCounter(opts Opts) *Counter {
	c, err := r.NewCounter(opts)
	if err != nil {
		panic(err)
	}
	return c
}

// NewGauge registers a gauge.
func (r *Registry) NewGauge(opts Opts) (*Gauge, error) {
	m, err := r.Register(opts.definition(GaugeKind))
	if err != nil {
		return nil, err
	}
	return m.(*Gauge), nil
}

// MustNewGauge is like NewGauge, but panics on error.
func (r *Registry) MustNewGauge(opts Opts) *Gauge {
	g, err := r.NewGauge(opts)
	if err != nil {
		panic(err)
	}
	return g
}

// NewHistogram registers a histogram.
func (r *Registry) NewHistogram(opts HistogramOpts) (*Histogram, error) {
	m, err := r.Register(opts.definition())
	if err != nil {
		return nil, err
	}
	return m.(*Histogram), nil
}

// MustNewHistogram is like NewHistogram, but panics on error.
func (r *Registry) MustNewHistogram(opts HistogramOpts) *Histogram {
	h, err := r.NewHistogram(opts)
	if err != nil {
		panic(err)
	}
	return h
}

// Lookup returns the metric registered under name.
func (r *Registry) Lookup(name string) (Metric, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byName[name]
	return m, ok
}

// AddGatherer attaches a gatherer whose families are exposed after the
// registry's own metrics. It's used for the default Go and process metrics.
func (r *Registry) AddGatherer(g prometheus.Gatherer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gatherers = append(r.gatherers, g)
}

// Snapshot returns the current state of every registered metric, in
// registration order. Label tuples of a metric are returned in the order they
// were first used.
//
// Collect functions run before any metric is read.
func (r *Registry) Snapshot() []FamilySnapshot {
	r.runCollectFuncs()

	r.mu.RLock()
	metrics := r.metrics
	r.mu.RUnlock()

	ret := make([]FamilySnapshot, 0, len(metrics))
	for _, m := range metrics {
		ret = append(ret, FamilySnapshot{
			Definition: m.Definition(),
			Samples:    m.samples(),
		})
	}
	return ret
}

// FamilySnapshot is the state of one metric at the time of a snapshot.
type FamilySnapshot struct {
	Definition Definition
	Samples    []Sample
}

// Sample is the state of one label tuple. Value is set for counters and
// gauges, Histogram for histograms.
type Sample struct {
	LabelValues []string
	Value       float64
	Histogram   *HistogramSample
}

// HistogramSample holds cumulative bucket counts, excluding the implicit +Inf
// bucket which always equals Count.
type HistogramSample struct {
	Buckets []Bucket
	Count   uint64
	Sum     float64
}

type Bucket struct {
	UpperBound      float64
	CumulativeCount uint64
}

// Validate checks the histogram invariants: bucket counts are non-decreasing
// and none exceeds the total count.
func (h *HistogramSample) Validate() error {
	var prev uint64
	for _, b := range h.Buckets {
		if b.CumulativeCount < prev {
			return fmt.Errorf("bucket le=%v has count %d, lower than previous bucket count %d",
				b.UpperBound, b.CumulativeCount, prev)
		}
		prev = b.CumulativeCount
	}
	if prev > h.Count {
		return errors.New("bucket count exceeds sample count")
	}
	return nil
}
