// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package ratelimitmetrics

import (
	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/consts"
)

// NewRateLimitTotal registers rate_limit_total, counting rejected requests
// per endpoint and client IP.
func NewRateLimitTotal(group *metrics.Group) (*metrics.Counter, error) {
	return group.NewCounter(metrics.NewOpts(
		consts.MetricsNamespace, "", "rate_limit_total",
		"Total number of rate limit hits",
		nil, []metrics.UnconstrainedLabel{
			{Name: "endpoint", ExampleValue: consts.ExampleRoute},
			{Name: "ip", ExampleValue: consts.ExampleIP},
		},
	))
}
