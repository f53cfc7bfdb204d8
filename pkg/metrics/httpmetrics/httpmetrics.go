// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package httpmetrics

import (
	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/consts"
)

var (
	DurationBuckets = []float64{.01, .05, .1, .5, 1, 2.5, 5, 10}
	SizeBuckets     = []float64{100, 1000, 10000, 100000, 1000000}
)

var (
	methodLabel = metrics.ConstrainedLabel{
		Name:   "method",
		Values: consts.HTTPMethods,
	}
	routeLabel = metrics.UnconstrainedLabel{
		Name:         "route",
		ExampleValue: consts.ExampleRoute,
	}
	statusLabel = metrics.UnconstrainedLabel{
		Name:         "status",
		ExampleValue: consts.ExampleStatus,
	}
)

// Metrics are the HTTP server metrics recorded by Instrumenter.
type Metrics struct {
	RequestsTotal   *metrics.Counter
	RequestDuration *metrics.Histogram
	RequestSize     *metrics.Histogram
	ResponseSize    *metrics.Histogram
	ActiveRequests  *metrics.Gauge
}

func NewMetrics(group *metrics.Group) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	m.RequestsTotal, err = group.NewCounter(metrics.NewOpts(
		consts.MetricsNamespace, "http", "requests_total",
		"Total number of HTTP requests",
		[]metrics.ConstrainedLabel{methodLabel},
		[]metrics.UnconstrainedLabel{routeLabel, statusLabel},
	))
	if err != nil {
		return nil, err
	}
	m.RequestDuration, err = group.NewHistogram(metrics.HistogramOpts{
		Opts: metrics.NewOpts(
			consts.MetricsNamespace, "http", "request_duration_seconds",
			"Duration of HTTP requests in seconds",
			[]metrics.ConstrainedLabel{methodLabel},
			[]metrics.UnconstrainedLabel{routeLabel, statusLabel},
		),
		Buckets: DurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	m.RequestSize, err = group.NewHistogram(metrics.HistogramOpts{
		Opts: metrics.NewOpts(
			consts.MetricsNamespace, "http", "request_size_bytes",
			"Size of HTTP requests in bytes",
			[]metrics.ConstrainedLabel{methodLabel},
			[]metrics.UnconstrainedLabel{routeLabel},
		),
		Buckets: SizeBuckets,
	})
	if err != nil {
		return nil, err
	}
	m.ResponseSize, err = group.NewHistogram(metrics.HistogramOpts{
		Opts: metrics.NewOpts(
			consts.MetricsNamespace, "http", "response_size_bytes",
			"Size of HTTP responses in bytes",
			[]metrics.ConstrainedLabel{methodLabel},
			[]metrics.UnconstrainedLabel{routeLabel, statusLabel},
		),
		Buckets: SizeBuckets,
	})
	if err != nil {
		return nil, err
	}
	m.ActiveRequests, err = group.NewGauge(metrics.NewOpts(
		consts.MetricsNamespace, "http", "active_requests",
		"Number of active HTTP requests",
		[]metrics.ConstrainedLabel{methodLabel}, nil,
	))
	if err != nil {
		return nil, err
	}
	return &m, nil
}
