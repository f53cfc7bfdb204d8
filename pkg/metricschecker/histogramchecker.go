// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metricschecker

import (
	"fmt"

	model "github.com/prometheus/client_model/go"
)

type bucketCheck struct {
	upperBound float64
	matcher    NumericMatcher[uint64]
}

// HistogramChecker checks the merged series of a histogram matching its
// labels: counts and sums are added, buckets are added by upper bound.
type HistogramChecker struct {
	selector
	count   []NumericMatcher[uint64]
	sum     []NumericMatcher[float64]
	buckets []bucketCheck
}

func NewHistogramChecker(name string) *HistogramChecker {
	return &HistogramChecker{
		selector: selector{name: name, typ: model.MetricType_HISTOGRAM},
	}
}

func (checker *HistogramChecker) Check(metrics map[string]*model.MetricFamily) error {
	series, err := checker.series(metrics)
	if err != nil {
		return &MetricsCheckError{name: checker.name, inner: []error{err}}
	}

	var (
		count   uint64
		sum     float64
		buckets = make(map[float64]uint64)
	)
	for _, m := range series {
		h := m.GetHistogram()
		count += h.GetSampleCount()
		sum += h.GetSampleSum()
		for _, b := range h.GetBucket() {
			buckets[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}

	var errs []error
	errs = append(errs, runMatchers("count", count, checker.count)...)
	errs = append(errs, runMatchers("sum", sum, checker.sum)...)
	for _, bc := range checker.buckets {
		v, ok := buckets[bc.upperBound]
		if !ok {
			errs = append(errs, fmt.Errorf("no bucket with upper bound %v", bc.upperBound))
			continue
		}
		errs = append(errs, runMatchers(fmt.Sprintf("bucket le=%v", bc.upperBound), v, []NumericMatcher[uint64]{bc.matcher})...)
	}
	if len(errs) > 0 {
		return &MetricsCheckError{name: checker.name, inner: errs}
	}
	return nil
}

func (checker *HistogramChecker) WithLabel(name, value string) *HistogramChecker {
	checker.withLabel(name, value)
	return checker
}

func (checker *HistogramChecker) WithCount(matcher NumericMatcher[uint64]) *HistogramChecker {
	checker.count = append(checker.count, matcher)
	return checker
}

func (checker *HistogramChecker) WithSum(matcher NumericMatcher[float64]) *HistogramChecker {
	checker.sum = append(checker.sum, matcher)
	return checker
}

// WithBucket checks the cumulative count of the bucket with the given upper
// bound.
func (checker *HistogramChecker) WithBucket(upperBound float64, matcher NumericMatcher[uint64]) *HistogramChecker {
	checker.buckets = append(checker.buckets, bucketCheck{upperBound: upperBound, matcher: matcher})
	return checker
}
