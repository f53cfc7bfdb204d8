// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metricschecker

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Integer | constraints.Float
}

// NumericMatcher checks a sample value, count or sum.
type NumericMatcher[N Number] interface {
	Match(actual N) error
}

type FnNumericMatcher[N Number] func(n N) error

func (f FnNumericMatcher[N]) Match(actual N) error {
	return f(actual)
}

// matcher fails with "expected <actual> <want>" when ok returns false.
func matcher[N Number](ok func(N) bool, want string, args ...any) FnNumericMatcher[N] {
	return func(actual N) error {
		if ok(actual) {
			return nil
		}
		return fmt.Errorf("expected %v "+want, append([]any{actual}, args...)...)
	}
}

func LessThan[N Number](expected N) FnNumericMatcher[N] {
	return matcher(func(a N) bool { return a < expected }, "< %v", expected)
}

func GreaterThan[N Number](expected N) FnNumericMatcher[N] {
	return matcher(func(a N) bool { return a > expected }, "> %v", expected)
}

func LessThanOrEqual[N Number](expected N) FnNumericMatcher[N] {
	return matcher(func(a N) bool { return a <= expected }, "<= %v", expected)
}

func GreaterThanOrEqual[N Number](expected N) FnNumericMatcher[N] {
	return matcher(func(a N) bool { return a >= expected }, ">= %v", expected)
}

func Equal[N Number](expected N) FnNumericMatcher[N] {
	return matcher(func(a N) bool { return a == expected }, "== %v", expected)
}

// Range matches values in [left, right).
func Range[N Number](left, right N) FnNumericMatcher[N] {
	return matcher(func(a N) bool { return a >= left && a < right }, "to be within range [%v, %v)", left, right)
}

// InDelta matches values within delta of expected.
func InDelta[N constraints.Float](expected, delta N) FnNumericMatcher[N] {
	return matcher(func(a N) bool { return a >= expected-delta && a <= expected+delta }, "to be within %v of %v", delta, expected)
}
