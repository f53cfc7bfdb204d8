// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"strings"

	"github.com/prometheus/common/model"
)

// ConstrainedLabel represents a label with a known, finite set of values.
type ConstrainedLabel struct {
	Name   string
	Values []string
}

// UnconstrainedLabel represents a label with an open set of values.
// ExampleValue is used when initializing metrics for generating docs.
type UnconstrainedLabel struct {
	Name         string
	ExampleValue string
}

var labelSeparator = string([]byte{model.SeparatorByte})

// labelKey joins label values into a map key. The separator can't appear in
// valid UTF-8, so two different tuples never produce the same key.
func labelKey(lvs []string) string {
	switch len(lvs) {
	case 0:
		return ""
	case 1:
		return lvs[0]
	}
	return strings.Join(lvs, labelSeparator)
}

// combinations returns the cartesian product of the constrained label values,
// in label order.
func combinations(labels []ConstrainedLabel) [][]string {
	out := [][]string{{}}
	for _, l := range labels {
		next := make([][]string, 0, len(out)*len(l.Values))
		for _, prefix := range out {
			for _, v := range l.Values {
				tuple := make([]string, len(prefix), len(prefix)+1)
				copy(tuple, prefix)
				next = append(next, append(tuple, v))
			}
		}
		out = next
	}
	return out
}
