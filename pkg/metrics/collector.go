// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Describe implements prometheus.Collector. The registry is an unchecked
// collector: metrics can be registered after it was added to a
// prometheus.Registry.
func (r *Registry) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector by converting the current snapshot
// into constant metrics. Families of attached gatherers are not included.
func (r *Registry) Collect(ch chan<- prometheus.Metric) {
	for _, fs := range r.Snapshot() {
		def := &fs.Definition
		desc := prometheus.NewDesc(def.Name, def.Help, def.LabelNames, nil)
		for _, s := range fs.Samples {
			m, err := constMetric(desc, def.Kind, &s)
			if err != nil {
				m = prometheus.NewInvalidMetric(desc, err)
			}
			ch <- m
		}
	}
}

func constMetric(desc *prometheus.Desc, kind Kind, s *Sample) (prometheus.Metric, error) {
	switch kind {
	case CounterKind:
		return prometheus.NewConstMetric(desc, prometheus.CounterValue, s.Value, s.LabelValues...)
	case GaugeKind:
		return prometheus.NewConstMetric(desc, prometheus.GaugeValue, s.Value, s.LabelValues...)
	}
	if err := s.Histogram.Validate(); err != nil {
		return nil, err
	}
	buckets := make(map[float64]uint64, len(s.Histogram.Buckets))
	for _, b := range s.Histogram.Buckets {
		buckets[b.UpperBound] = b.CumulativeCount
	}
	return prometheus.NewConstHistogram(desc, s.Histogram.Count, s.Histogram.Sum, buckets, s.LabelValues...)
}
