// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"fmt"
)

// DuplicateNameError is returned by Register when a metric with the same
// fully-qualified name already exists in the registry.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("metric %q is already registered", e.Name)
}

// LabelArityError is returned when the number of label values passed to a
// metric doesn't match the number of label names it was defined with.
type LabelArityError struct {
	Metric   string
	Expected int
	Got      int
}

func (e *LabelArityError) Error() string {
	return fmt.Sprintf("metric %q: expected %d label values, got %d", e.Metric, e.Expected, e.Got)
}

// InvalidValueError is returned when a metric update carries a value outside
// of the metric's domain: NaN or infinite for any metric, negative for a
// counter increment.
type InvalidValueError struct {
	Metric string
	Value  any
	Reason string
}

func (e *InvalidValueError) Error() string {
	if e.Metric == "" {
		return fmt.Sprintf("invalid value %v: %s", e.Value, e.Reason)
	}
	return fmt.Sprintf("metric %q: invalid value %v: %s", e.Metric, e.Value, e.Reason)
}

// InvalidLabelError is returned when a label value isn't valid UTF-8.
type InvalidLabelError struct {
	Metric string
	Value  string
}

func (e *InvalidLabelError) Error() string {
	return fmt.Sprintf("metric %q: label value %q is not valid UTF-8", e.Metric, e.Value)
}

// RenderError is returned when the registry state can't be turned into the
// text exposition format.
type RenderError struct {
	Metric string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Metric == "" {
		return fmt.Sprintf("failed to render metrics: %v", e.Err)
	}
	return fmt.Sprintf("failed to render metric %q: %v", e.Metric, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
