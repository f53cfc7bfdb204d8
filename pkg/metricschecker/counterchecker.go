// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metricschecker

import model "github.com/prometheus/client_model/go"

// CounterChecker checks the sum of the series of a counter matching its
// labels.
type CounterChecker struct {
	selector
	checks []NumericMatcher[float64]
}

func NewCounterChecker(name string) *CounterChecker {
	return &CounterChecker{
		selector: selector{name: name, typ: model.MetricType_COUNTER},
		checks:   []NumericMatcher[float64]{},
	}
}

func (checker *CounterChecker) Check(metrics map[string]*model.MetricFamily) error {
	series, err := checker.series(metrics)
	if err != nil {
		return &MetricsCheckError{name: checker.name, inner: []error{err}}
	}
	var sum float64
	for _, m := range series {
		sum += m.GetCounter().GetValue()
	}
	if errs := runMatchers("value", sum, checker.checks); len(errs) > 0 {
		return &MetricsCheckError{name: checker.name, inner: errs}
	}
	return nil
}

// WithLabel only selects the series with the given label value.
func (checker *CounterChecker) WithLabel(name, value string) *CounterChecker {
	checker.withLabel(name, value)
	return checker
}

func (checker *CounterChecker) WithMatcher(matcher NumericMatcher[float64]) *CounterChecker {
	checker.checks = append(checker.checks, matcher)
	return checker
}

func (checker *CounterChecker) WithMinimum(min float64) *CounterChecker {
	return checker.WithMatcher(GreaterThanOrEqual[float64](min))
}

func (checker *CounterChecker) WithMaximum(max float64) *CounterChecker {
	return checker.WithMatcher(LessThanOrEqual[float64](max))
}

func (checker *CounterChecker) WithRange(left, right float64) *CounterChecker {
	return checker.WithMatcher(Range[float64](left, right))
}
