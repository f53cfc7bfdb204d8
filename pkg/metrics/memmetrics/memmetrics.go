// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package memmetrics

import (
	"runtime"

	"github.com/prometheus/procfs"

	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/consts"
)

type MemoryType int

const (
	// Resident set size of the process
	RSS MemoryType = iota
	// Heap memory obtained from the OS
	HeapTotal
	// Allocated heap objects
	HeapUsed
	// Memory obtained from the OS outside of the heap and stacks
	External
	// Stack memory in use
	StackInuse
)

var memoryTypeLabelValues = map[MemoryType]string{
	RSS:        "rss",
	HeapTotal:  "heapTotal",
	HeapUsed:   "heapUsed",
	External:   "external",
	StackInuse: "stackInuse",
}

func (t MemoryType) String() string {
	return memoryTypeLabelValues[t]
}

var MemoryTypes = []MemoryType{RSS, HeapTotal, HeapUsed, External, StackInuse}

var typeLabel = metrics.ConstrainedLabel{
	Name: "type",
	Values: []string{
		RSS.String(), HeapTotal.String(), HeapUsed.String(), External.String(), StackInuse.String(),
	},
}

// Usage is a point in time reading of the process memory, in bytes.
type Usage map[MemoryType]uint64

// ReadUsage reads the current memory usage. RSS is read from procfs, and
// falls back to the memory obtained from the OS by the runtime where procfs
// isn't available.
func ReadUsage() Usage {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	u := Usage{
		RSS:        ms.Sys,
		HeapTotal:  ms.HeapSys,
		HeapUsed:   ms.HeapAlloc,
		External:   ms.Sys - ms.HeapSys - ms.StackSys,
		StackInuse: ms.StackInuse,
	}
	if rss, err := readRSS(); err == nil {
		u[RSS] = rss
	} else {
		logger.GetLogger().WithError(err).Debug("Failed to read RSS from procfs")
	}
	return u
}

func readRSS() (uint64, error) {
	p, err := procfs.Self()
	if err != nil {
		return 0, err
	}
	stat, err := p.Stat()
	if err != nil {
		return 0, err
	}
	return uint64(stat.ResidentMemory()), nil
}

// NewMetrics registers app_memory_usage_bytes and refreshes it on every
// snapshot of the group's registry.
func NewMetrics(group *metrics.Group) (*metrics.Gauge, error) {
	usage, err := group.NewGauge(metrics.NewOpts(
		consts.MetricsNamespace, "", "app_memory_usage_bytes",
		"Application memory usage in bytes",
		[]metrics.ConstrainedLabel{typeLabel}, nil,
	))
	if err != nil {
		return nil, err
	}
	group.Registry().AddCollectFunc(func() {
		for typ, v := range ReadUsage() {
			metrics.SafeSet(usage, []string{typ.String()}, v)
		}
	})
	return usage, nil
}
