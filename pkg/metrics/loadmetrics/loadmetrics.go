// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package loadmetrics

import (
	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/consts"
)

// Metrics record the simulated load workloads.
type Metrics struct {
	FibonacciDuration          *metrics.Histogram
	MemoryLeakBytes            *metrics.Gauge
	MemoryLeakItems            *metrics.Gauge
	IOOperationsDuration       *metrics.Histogram
	ComplexQueryDuration       *metrics.Histogram
	ConcurrentWorkloadDuration *metrics.Histogram
}

func NewMetrics(group *metrics.Group) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	m.FibonacciDuration, err = group.NewHistogram(metrics.HistogramOpts{
		Opts: metrics.NewOpts(
			consts.MetricsNamespace, "", "fibonacci_calculation_duration_seconds",
			"Duration of Fibonacci calculations in seconds",
			nil, []metrics.UnconstrainedLabel{{Name: "input", ExampleValue: "40"}},
		),
		Buckets: []float64{0.001, 0.01, 0.1, 1, 5, 10, 30, 60},
	})
	if err != nil {
		return nil, err
	}
	m.MemoryLeakBytes, err = group.NewGauge(metrics.NewOpts(
		consts.MetricsNamespace, "", "memory_leak_simulation_bytes",
		"Memory allocated by the memory leak simulation",
		nil, nil,
	))
	if err != nil {
		return nil, err
	}
	m.MemoryLeakItems, err = group.NewGauge(metrics.NewOpts(
		consts.MetricsNamespace, "", "memory_leak_items_count",
		"Number of items in the memory leak array",
		nil, nil,
	))
	if err != nil {
		return nil, err
	}
	m.IOOperationsDuration, err = group.NewHistogram(metrics.HistogramOpts{
		Opts: metrics.NewOpts(
			consts.MetricsNamespace, "", "io_operations_duration_seconds",
			"Duration of I/O operations in seconds",
			nil, []metrics.UnconstrainedLabel{{Name: "iterations", ExampleValue: "100"}},
		),
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})
	if err != nil {
		return nil, err
	}
	m.ComplexQueryDuration, err = group.NewHistogram(metrics.HistogramOpts{
		Opts: metrics.NewOpts(
			consts.MetricsNamespace, "", "complex_query_duration_seconds",
			"Duration of complex database queries in seconds",
			nil, nil,
		),
		Buckets: []float64{1, 2, 5, 10, 20, 30},
	})
	if err != nil {
		return nil, err
	}
	m.ConcurrentWorkloadDuration, err = group.NewHistogram(metrics.HistogramOpts{
		Opts: metrics.NewOpts(
			consts.MetricsNamespace, "", "concurrent_workload_duration_seconds",
			"Duration of concurrent workload executions in seconds",
			nil, nil,
		),
		Buckets: []float64{1, 2, 5, 10, 20, 30},
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}
