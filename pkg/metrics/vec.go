// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"slices"
	"sync"
	"unicode/utf8"
)

type labeledChild[C any] struct {
	values []string
	child  C
}

// vec holds the per-label-tuple state of a metric. Children are never
// removed, so the order slice is append-only and can be read without holding
// the lock after its header was copied.
type vec[C any] struct {
	name       string
	labelNames []string
	newChild   func() C

	mu       sync.RWMutex
	children map[string]*labeledChild[C]
	order    []*labeledChild[C]
}

func newVec[C any](def *Definition, newChild func() C) *vec[C] {
	v := &vec[C]{
		name:       def.Name,
		labelNames: def.LabelNames,
		newChild:   newChild,
		children:   make(map[string]*labeledChild[C]),
	}
	// A metric without labels has exactly one child, exposed from the start.
	if len(def.LabelNames) == 0 {
		v.getOrCreate(nil)
	}
	return v
}

func (v *vec[C]) checkArity(lvs []string) error {
	if len(lvs) != len(v.labelNames) {
		return &LabelArityError{Metric: v.name, Expected: len(v.labelNames), Got: len(lvs)}
	}
	return nil
}

// get returns the child for the given label values, creating it if needed.
func (v *vec[C]) get(lvs []string) (C, error) {
	var zero C
	if err := v.checkArity(lvs); err != nil {
		return zero, err
	}
	key := labelKey(lvs)

	v.mu.RLock()
	l, ok := v.children[key]
	v.mu.RUnlock()
	if ok {
		return l.child, nil
	}

	for _, lv := range lvs {
		if !utf8.ValidString(lv) {
			return zero, &InvalidLabelError{Metric: v.name, Value: lv}
		}
	}
	return v.getOrCreate(lvs), nil
}

// touch creates the child for the given label values without updating it.
func (v *vec[C]) touch(lvs []string) error {
	_, err := v.get(lvs)
	return err
}

func (v *vec[C]) getOrCreate(lvs []string) C {
	key := labelKey(lvs)
	v.mu.Lock()
	defer v.mu.Unlock()
	if l, ok := v.children[key]; ok {
		return l.child
	}
	l := &labeledChild[C]{values: slices.Clone(lvs), child: v.newChild()}
	v.children[key] = l
	v.order = append(v.order, l)
	return l.child
}

// lookup returns the child for the given label values without creating it.
func (v *vec[C]) lookup(lvs []string) (C, bool) {
	var zero C
	if len(lvs) != len(v.labelNames) {
		return zero, false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	l, ok := v.children[labelKey(lvs)]
	if !ok {
		return zero, false
	}
	return l.child, true
}

// each calls fn for every child in creation order.
func (v *vec[C]) each(fn func(values []string, child C)) {
	v.mu.RLock()
	order := v.order
	v.mu.RUnlock()
	for _, l := range order {
		fn(slices.Clone(l.values), l.child)
	}
}
