// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metricschecker

import (
	"fmt"
	"maps"
	"slices"

	model "github.com/prometheus/client_model/go"
)

// selector selects the series of a metric family by label values.
type selector struct {
	name   string
	typ    model.MetricType
	labels map[string]string
}

func (s *selector) withLabel(name, value string) {
	if s.labels == nil {
		s.labels = make(map[string]string)
	}
	s.labels[name] = value
}

func (s *selector) matches(m *model.Metric) bool {
	found := 0
	for _, lp := range m.GetLabel() {
		if v, ok := s.labels[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			found++
		}
	}
	return found == len(s.labels)
}

// series returns the series matching the selector, or an error if there are
// none.
func (s *selector) series(metrics map[string]*model.MetricFamily) ([]*model.Metric, error) {
	family, err := getMetric(metrics, s.name)
	if err != nil {
		return nil, err
	}
	if family.GetType() != s.typ {
		return nil, fmt.Errorf("metric %s is a %s, not a %s", s.name, family.GetType(), s.typ)
	}
	var ret []*model.Metric
	for _, m := range family.GetMetric() {
		if s.matches(m) {
			ret = append(ret, m)
		}
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("no series of %s matching labels %v", s.name, s.describeLabels())
	}
	return ret, nil
}

func (s *selector) describeLabels() []string {
	var ret []string
	for _, k := range slices.Sorted(maps.Keys(s.labels)) {
		ret = append(ret, fmt.Sprintf("%s=%q", k, s.labels[k]))
	}
	return ret
}

func runMatchers[N Number](name string, actual N, matchers []NumericMatcher[N]) []error {
	var errs []error
	for _, m := range matchers {
		if err := m.Match(actual); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errs
}
