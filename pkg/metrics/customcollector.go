// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
)

// CollectFunc refreshes metrics whose values are read from state owned
// elsewhere, e.g. runtime memory statistics. Collect functions run at the
// start of every snapshot, so the values are as fresh as the scrape.
type CollectFunc func()

// AddCollectFunc registers a collect function. Functions run in the order
// they were added.
func (r *Registry) AddCollectFunc(f CollectFunc) {
	if f == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectFuncs = append(r.collectFuncs, f)
}

func (r *Registry) runCollectFuncs() {
	r.mu.RLock()
	funcs := r.collectFuncs
	r.mu.RUnlock()
	for _, f := range funcs {
		runCollectFunc(f)
	}
}

// runCollectFunc runs f, recovering from panics. A broken collect function
// leaves its metrics stale instead of failing the scrape.
func runCollectFunc(f CollectFunc) {
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().WithField(logfields.Panic, r).Error("Metrics collect function panicked")
		}
	}()
	f()
}
