// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package config

import (
	"regexp"

	grpcmetrics "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/businessmetrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/consts"
	"github.com/cilium/monitoring-poc/pkg/metrics/dbmetrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/errormetrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/healthmetrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/httpmetrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/loadmetrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/memmetrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/ratelimitmetrics"
	"github.com/cilium/monitoring-poc/pkg/version"
)

// AllMetrics holds every application metric.
type AllMetrics struct {
	Registry  *metrics.Registry
	HTTP      *httpmetrics.Metrics
	Errors    *errormetrics.Metrics
	Database  *dbmetrics.Metrics
	Load      *loadmetrics.Metrics
	Business  *businessmetrics.Metrics
	Health    *healthmetrics.Status
	Memory    *metrics.Gauge
	RateLimit *metrics.Counter
	// GRPC instruments the health gRPC server
	GRPC *grpcmetrics.ServerMetrics
}

type Options struct {
	// ProcessMetrics adds the Go runtime and process collectors.
	ProcessMetrics bool
}

// InitAllMetrics registers all application metrics into reg, in exposition
// order, and initializes them.
func InitAllMetrics(reg *metrics.Registry, opts Options) (*AllMetrics, error) {
	group := metrics.NewGroup(reg)
	all, err := registerAllMetrics(group, opts)
	if err != nil {
		return nil, err
	}
	group.Init()
	return all, nil
}

// InitMetricsForDocs registers all application metrics into a fresh registry,
// with example values for unconstrained labels, for documentation.
func InitMetricsForDocs() (*metrics.Registry, error) {
	reg := metrics.NewRegistry()
	group := metrics.NewGroup(reg)
	if _, err := registerAllMetrics(group, Options{}); err != nil {
		return nil, err
	}
	group.InitForDocs()
	return reg, nil
}

func registerAllMetrics(group *metrics.Group, opts Options) (*AllMetrics, error) {
	reg := group.Registry()
	all := &AllMetrics{Registry: reg}

	var err error
	if all.HTTP, err = httpmetrics.NewMetrics(group); err != nil {
		return nil, err
	}
	if all.Errors, err = errormetrics.NewMetrics(group); err != nil {
		return nil, err
	}
	if all.Database, err = dbmetrics.NewMetrics(group); err != nil {
		return nil, err
	}
	if all.Memory, err = memmetrics.NewMetrics(group); err != nil {
		return nil, err
	}
	if all.Load, err = loadmetrics.NewMetrics(group); err != nil {
		return nil, err
	}
	if all.Business, err = businessmetrics.NewMetrics(group); err != nil {
		return nil, err
	}
	if all.Health, err = healthmetrics.NewStatus(group); err != nil {
		return nil, err
	}
	if all.RateLimit, err = ratelimitmetrics.NewRateLimitTotal(group); err != nil {
		return nil, err
	}

	// third-party collectors live in their own registry, exposed after the
	// application metrics
	promReg := prometheus.NewRegistry()
	all.GRPC = grpcmetrics.NewServerMetrics()
	if err := promReg.Register(all.GRPC); err != nil {
		return nil, err
	}
	if err := promReg.Register(version.NewBuildInfoCollector()); err != nil {
		return nil, err
	}
	if opts.ProcessMetrics {
		if err := initResourcesMetrics(prometheus.WrapRegistererWithPrefix(consts.ProcessMetricsPrefix, promReg)); err != nil {
			return nil, err
		}
	}
	reg.AddGatherer(promReg)

	return all, nil
}

func initResourcesMetrics(registerer prometheus.Registerer) error {
	if err := registerer.Register(collectors.NewGoCollector(
		collectors.WithGoCollectorRuntimeMetrics(
			collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile(`^/sched/latencies:seconds`)},
		))); err != nil {
		return err
	}
	return registerer.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}
