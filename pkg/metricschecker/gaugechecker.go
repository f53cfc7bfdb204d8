// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metricschecker

import (
	"fmt"

	model "github.com/prometheus/client_model/go"
)

// GaugeChecker checks a single series of a gauge.
type GaugeChecker struct {
	selector
	checks []NumericMatcher[float64]
}

func NewGaugeChecker(name string) *GaugeChecker {
	return &GaugeChecker{
		selector: selector{name: name, typ: model.MetricType_GAUGE},
	}
}

func (checker *GaugeChecker) Check(metrics map[string]*model.MetricFamily) error {
	series, err := checker.series(metrics)
	if err != nil {
		return &MetricsCheckError{name: checker.name, inner: []error{err}}
	}
	if len(series) > 1 {
		return &MetricsCheckError{name: checker.name, inner: []error{
			fmt.Errorf("%d series match labels %v", len(series), checker.describeLabels()),
		}}
	}
	if errs := runMatchers("value", series[0].GetGauge().GetValue(), checker.checks); len(errs) > 0 {
		return &MetricsCheckError{name: checker.name, inner: errs}
	}
	return nil
}

func (checker *GaugeChecker) WithLabel(name, value string) *GaugeChecker {
	checker.withLabel(name, value)
	return checker
}

func (checker *GaugeChecker) WithMatcher(matcher NumericMatcher[float64]) *GaugeChecker {
	checker.checks = append(checker.checks, matcher)
	return checker
}
