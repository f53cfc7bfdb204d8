// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package healthmetrics

import (
	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/consts"
)

type Component int

const (
	// The process itself, healthy once started
	Application Component = iota
	// The HTTP listener
	Server
	// The metrics pipeline
	Metrics
)

var componentLabelValues = map[Component]string{
	Application: "application",
	Server:      "server",
	Metrics:     "metrics",
}

func (c Component) String() string {
	return componentLabelValues[c]
}

// Components lists all known components.
var Components = []Component{Application, Server, Metrics}

var componentLabel = metrics.ConstrainedLabel{
	Name:   "component",
	Values: []string{Application.String(), Server.String(), Metrics.String()},
}

// Status tracks system_health_status.
type Status struct {
	gauge *metrics.Gauge
}

func NewStatus(group *metrics.Group) (*Status, error) {
	gauge, err := group.NewGauge(metrics.NewOpts(
		consts.MetricsNamespace, "system", "health_status",
		"System health indicators (1=healthy, 0=unhealthy)",
		[]metrics.ConstrainedLabel{componentLabel}, nil,
	))
	if err != nil {
		return nil, err
	}
	return &Status{gauge: gauge}, nil
}

// Gauge returns the underlying metric.
func (s *Status) Gauge() *metrics.Gauge {
	return s.gauge
}

// Set marks a component as healthy or not.
func (s *Status) Set(c Component, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	metrics.LogUpdateError(s.gauge.Set(v, c.String()))
}

func (s *Status) Healthy(c Component) bool {
	return s.gauge.Value(c.String()) == 1
}

// Unhealthy returns the components that are not healthy. Components which
// never reported are considered unhealthy.
func (s *Status) Unhealthy() []Component {
	var ret []Component
	for _, c := range Components {
		if !s.Healthy(c) {
			ret = append(ret, c)
		}
	}
	return ret
}
