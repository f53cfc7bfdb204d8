// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Opts describes a metric in the same terms as prometheus.Opts, with labels
// split into constrained and unconstrained ones.
//
// Constrained labels have a known, finite set of values. They are used to
// pre-initialize the metric at 0 for every combination when the metric is
// fully constrained (see Group.Init). Values outside of the list are still
// accepted at write time.
//
// The final label order is: constrained labels first, then unconstrained
// labels, each in the order given.
type Opts struct {
	Namespace           string
	Subsystem           string
	Name                string
	Help                string
	ConstrainedLabels   []ConstrainedLabel
	UnconstrainedLabels []UnconstrainedLabel
}

// HistogramOpts extends Opts with histogram-specific fields.
type HistogramOpts struct {
	Opts
	// Buckets are the upper bounds of the histogram buckets, strictly
	// ascending. The +Inf bucket is implicit. Empty means
	// prometheus.DefBuckets.
	Buckets []float64
}

func NewOpts(
	namespace, subsystem, name, help string,
	constrainedLabels []ConstrainedLabel, unconstrainedLabels []UnconstrainedLabel,
) Opts {
	return Opts{
		Namespace:           namespace,
		Subsystem:           subsystem,
		Name:                name,
		Help:                help,
		ConstrainedLabels:   constrainedLabels,
		UnconstrainedLabels: unconstrainedLabels,
	}
}

// FQName returns the fully-qualified metric name.
func (o *Opts) FQName() string {
	return prometheus.BuildFQName(o.Namespace, o.Subsystem, o.Name)
}

// labelNames returns the full label list following the order described in
// Opts.
func (o *Opts) labelNames() []string {
	names := make([]string, 0, len(o.ConstrainedLabels)+len(o.UnconstrainedLabels))
	for _, l := range o.ConstrainedLabels {
		names = append(names, l.Name)
	}
	for _, l := range o.UnconstrainedLabels {
		names = append(names, l.Name)
	}
	return names
}

// IsConstrained reports whether every label of the metric has a known set of
// values.
func (o *Opts) IsConstrained() bool {
	return len(o.UnconstrainedLabels) == 0
}

func (o *Opts) definition(kind Kind) Definition {
	return Definition{
		Name:       o.FQName(),
		Help:       o.Help,
		Kind:       kind,
		LabelNames: o.labelNames(),
	}
}

func (o *HistogramOpts) definition() Definition {
	def := o.Opts.definition(HistogramKind)
	def.Buckets = o.Buckets
	return def
}
