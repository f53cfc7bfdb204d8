// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package version

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BuildInfoMetric is a constant gauge whose labels describe the build.
const BuildInfoMetric = "app_build_info"

type buildInfoCollector struct {
	metric prometheus.Metric
}

// Labels returns the labels of BuildInfoMetric.
func (info BuildInfo) Labels() prometheus.Labels {
	return prometheus.Labels{
		"version":    info.Version,
		"go_version": info.GoVersion,
		"commit":     info.Commit,
		"time":       info.Time,
		"modified":   info.Modified,
	}
}

// NewBuildInfoCollector exposes BuildInfoMetric for the running binary.
func NewBuildInfoCollector() prometheus.Collector {
	return newBuildInfoCollector(ReadBuildInfo())
}

func newBuildInfoCollector(info BuildInfo) *buildInfoCollector {
	desc := prometheus.NewDesc(BuildInfoMetric, "Build information about the application", nil, info.Labels())
	return &buildInfoCollector{
		metric: prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, 1),
	}
}

func (c *buildInfoCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.metric.Desc()
}

func (c *buildInfoCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- c.metric
}
