// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metricschecker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cilium/monitoring-poc/pkg/metricschecker"
)

type TestCase[N metricschecker.Number] struct {
	name        string
	matcher     metricschecker.NumericMatcher[N]
	val         N
	expectedErr bool
}

func (tc *TestCase[N]) Run(t *testing.T) {
	err := tc.matcher.Match(tc.val)
	if tc.expectedErr {
		assert.Error(t, err, "match should fail")
	} else {
		assert.NoError(t, err, "match should succeed")
	}
}

func TestNumericMatchersUint64(t *testing.T) {
	testCases := []TestCase[uint64]{
		{name: "lessThanGood", matcher: metricschecker.LessThan[uint64](13), val: 12},
		{name: "lessThanBad", matcher: metricschecker.LessThan[uint64](13), val: 13, expectedErr: true},
		{name: "lessThanOrEqualGood", matcher: metricschecker.LessThanOrEqual[uint64](13), val: 13},
		{name: "lessThanOrEqualBad", matcher: metricschecker.LessThanOrEqual[uint64](13), val: 14, expectedErr: true},
		{name: "greaterThanGood", matcher: metricschecker.GreaterThan[uint64](13), val: 14},
		{name: "greaterThanBad", matcher: metricschecker.GreaterThan[uint64](13), val: 13, expectedErr: true},
		{name: "greaterThanOrEqualGood", matcher: metricschecker.GreaterThanOrEqual[uint64](13), val: 13},
		{name: "greaterThanOrEqualBad", matcher: metricschecker.GreaterThanOrEqual[uint64](13), val: 0, expectedErr: true},
		{name: "equalGood", matcher: metricschecker.Equal[uint64](13), val: 13},
		{name: "equalBad", matcher: metricschecker.Equal[uint64](13), val: 12, expectedErr: true},
		{name: "rangeGood", matcher: metricschecker.Range[uint64](0, 13), val: 0},
		{name: "rangeBad", matcher: metricschecker.Range[uint64](0, 13), val: 13, expectedErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, tc.Run)
	}
}

func TestNumericMatchersFloat64(t *testing.T) {
	testCases := []TestCase[float64]{
		{name: "lessThanGood", matcher: metricschecker.LessThan(0.5), val: 0.25},
		{name: "greaterThanBad", matcher: metricschecker.GreaterThan(0.5), val: 0.5, expectedErr: true},
		{name: "rangeGood", matcher: metricschecker.Range(0.1, 0.2), val: 0.1},
		{name: "rangeBad", matcher: metricschecker.Range(0.1, 0.2), val: 0.2, expectedErr: true},
		{name: "inDeltaGood1", matcher: metricschecker.InDelta(1.0, 0.01), val: 1.005},
		{name: "inDeltaGood2", matcher: metricschecker.InDelta(1.0, 0.01), val: 0.99},
		{name: "inDeltaBad", matcher: metricschecker.InDelta(1.0, 0.01), val: 1.5, expectedErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, tc.Run)
	}
}
