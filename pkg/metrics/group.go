// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import "slices"

// Group is a set of metrics defined together and initialized together, e.g.
// all HTTP server metrics. Metrics are registered in the underlying Registry
// immediately; Init only pre-initializes label tuples.
type Group struct {
	registry     *Registry
	initFunc     func()
	initDocsFunc func()
}

// NewGroup creates a new Group registering its metrics in reg.
func NewGroup(reg *Registry) *Group {
	return &Group{
		registry:     reg,
		initFunc:     func() {},
		initDocsFunc: func() {},
	}
}

// Registry returns the registry the group registers into.
func (g *Group) Registry() *Registry {
	return g.registry
}

// NewCounter registers a counter. If the counter is constrained, Init will
// initialize every combination of its label values at 0.
func (g *Group) NewCounter(opts Opts) (*Counter, error) {
	c, err := g.registry.NewCounter(opts)
	if err != nil {
		return nil, err
	}
	g.extendConstrainedInit(&opts, c.vec.touch)
	return c, nil
}

func (g *Group) MustNewCounter(opts Opts) *Counter {
	c, err := g.NewCounter(opts)
	if err != nil {
		panic(err)
	}
	return c
}

// NewGauge registers a gauge. See NewCounter for initialization.
func (g *Group) NewGauge(opts Opts) (*Gauge, error) {
	m, err := g.registry.NewGauge(opts)
	if err != nil {
		return nil, err
	}
	g.extendConstrainedInit(&opts, m.vec.touch)
	return m, nil
}

func (g *Group) MustNewGauge(opts Opts) *Gauge {
	m, err := g.NewGauge(opts)
	if err != nil {
		panic(err)
	}
	return m
}

// NewHistogram registers a histogram. See NewCounter for initialization.
func (g *Group) NewHistogram(opts HistogramOpts) (*Histogram, error) {
	h, err := g.registry.NewHistogram(opts)
	if err != nil {
		return nil, err
	}
	g.extendConstrainedInit(&opts.Opts, h.vec.touch)
	return h, nil
}

func (g *Group) MustNewHistogram(opts HistogramOpts) *Histogram {
	h, err := g.NewHistogram(opts)
	if err != nil {
		panic(err)
	}
	return h
}

func (g *Group) extendConstrainedInit(opts *Opts, touch func([]string) error) {
	g.extendInitForDocs(opts, touch)
	if !opts.IsConstrained() || len(opts.ConstrainedLabels) == 0 {
		return
	}
	tuples := combinations(opts.ConstrainedLabels)
	g.ExtendInit(func() {
		for _, lvs := range tuples {
			LogUpdateError(touch(lvs))
		}
	})
}

// extendInitForDocs initializes unconstrained labels with their example
// values, so that generated documentation lists every label.
func (g *Group) extendInitForDocs(opts *Opts, touch func([]string) error) {
	if len(opts.UnconstrainedLabels) == 0 {
		return
	}
	labels := slices.Clone(opts.ConstrainedLabels)
	for _, l := range opts.UnconstrainedLabels {
		labels = append(labels, ConstrainedLabel{Name: l.Name, Values: []string{l.ExampleValue}})
	}
	tuples := combinations(labels)
	oldInit := g.initDocsFunc
	g.initDocsFunc = func() {
		oldInit()
		for _, lvs := range tuples {
			LogUpdateError(touch(lvs))
		}
	}
}

// Init initializes the metrics of the group. It's safe to call more than once.
func (g *Group) Init() {
	g.initFunc()
}

// InitForDocs initializes the metrics of the group like Init, and
// additionally exposes every metric with unconstrained labels using their
// example values.
func (g *Group) InitForDocs() {
	g.initFunc()
	g.initDocsFunc()
}

// ExtendInit extends the group Init method.
//
// Constrained metrics created through the group are initialized
// automatically. ExtendInit is helpful for metrics whose initial label values
// are only known at runtime, or which need a non-zero initial value.
func (g *Group) ExtendInit(init func()) {
	if init == nil {
		return
	}
	oldInit := g.initFunc
	g.initFunc = func() {
		oldInit()
		init()
	}
}
