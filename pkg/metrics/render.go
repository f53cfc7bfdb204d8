// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// ContentType is the content type of the text exposition format served by
// Handler.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Gather implements prometheus.Gatherer.
//
// Unlike prometheus.Registry, families are not sorted: the registry's own
// metrics come first in registration order, followed by the families of
// attached gatherers. Metrics without any label tuple are skipped.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	snapshot := r.Snapshot()

	mfs := make([]*dto.MetricFamily, 0, len(snapshot))
	names := make(map[string]struct{}, len(snapshot))
	for i := range snapshot {
		fs := &snapshot[i]
		if len(fs.Samples) == 0 {
			continue
		}
		mf, err := fs.toDTO()
		if err != nil {
			return nil, &RenderError{Metric: fs.Definition.Name, Err: err}
		}
		mfs = append(mfs, mf)
		names[fs.Definition.Name] = struct{}{}
	}

	r.mu.RLock()
	gatherers := r.gatherers
	r.mu.RUnlock()
	for _, g := range gatherers {
		extra, err := g.Gather()
		if err != nil {
			return nil, &RenderError{Err: err}
		}
		for _, mf := range extra {
			if _, ok := names[mf.GetName()]; ok {
				return nil, &RenderError{Metric: mf.GetName(), Err: errors.New("family collected twice")}
			}
			names[mf.GetName()] = struct{}{}
			mfs = append(mfs, mf)
		}
	}
	return mfs, nil
}

// Render writes the text exposition of every family to w. Nothing is written
// if any family fails to render.
func (r *Registry) Render(w io.Writer) error {
	mfs, err := r.Gather()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return &RenderError{Metric: mf.GetName(), Err: err}
		}
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func (fs *FamilySnapshot) toDTO() (*dto.MetricFamily, error) {
	def := &fs.Definition
	mf := &dto.MetricFamily{
		Name: proto.String(def.Name),
		Help: proto.String(def.Help),
	}
	switch def.Kind {
	case CounterKind:
		mf.Type = dto.MetricType_COUNTER.Enum()
	case GaugeKind:
		mf.Type = dto.MetricType_GAUGE.Enum()
	case HistogramKind:
		mf.Type = dto.MetricType_HISTOGRAM.Enum()
	default:
		return nil, fmt.Errorf("unknown kind %v", def.Kind)
	}

	mf.Metric = make([]*dto.Metric, 0, len(fs.Samples))
	for _, s := range fs.Samples {
		if len(s.LabelValues) != len(def.LabelNames) {
			return nil, fmt.Errorf("sample has %d label values, metric has %d labels",
				len(s.LabelValues), len(def.LabelNames))
		}
		m := &dto.Metric{
			Label: make([]*dto.LabelPair, len(def.LabelNames)),
		}
		for i, name := range def.LabelNames {
			m.Label[i] = &dto.LabelPair{
				Name:  proto.String(name),
				Value: proto.String(s.LabelValues[i]),
			}
		}
		switch def.Kind {
		case CounterKind:
			m.Counter = &dto.Counter{Value: proto.Float64(s.Value)}
		case GaugeKind:
			m.Gauge = &dto.Gauge{Value: proto.Float64(s.Value)}
		case HistogramKind:
			h, err := histogramToDTO(s.Histogram)
			if err != nil {
				return nil, err
			}
			m.Histogram = h
		}
		mf.Metric = append(mf.Metric, m)
	}
	return mf, nil
}

func histogramToDTO(s *HistogramSample) (*dto.Histogram, error) {
	if s == nil {
		return nil, errors.New("histogram sample is missing")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	h := &dto.Histogram{
		SampleCount: proto.Uint64(s.Count),
		SampleSum:   proto.Float64(s.Sum),
		Bucket:      make([]*dto.Bucket, len(s.Buckets)),
	}
	for i, b := range s.Buckets {
		h.Bucket[i] = &dto.Bucket{
			UpperBound:      proto.Float64(b.UpperBound),
			CumulativeCount: proto.Uint64(b.CumulativeCount),
		}
	}
	return h, nil
}
