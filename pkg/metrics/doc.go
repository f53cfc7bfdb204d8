// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// The metrics package provides an in-process metrics registry exposing its
// state in the Prometheus text format, and helpers for recording into it
// without ever failing the code path being measured.
//
// The package is designed to support the following functionality:
//   - Explicit registries. There is no process-wide default: a Registry is
//     created at startup and passed to whatever records or serves metrics,
//     so tests can use isolated registries.
//   - Stable exposition order. Metrics are rendered in registration order,
//     label tuples in the order they were first used.
//   - Exactly one aggregate per label tuple, safe under concurrent updates.
//     Counters and gauges use atomics, histograms a per-tuple mutex, so a
//     scrape never sees a torn bucket vector.
//   - Initialize metrics with known labels on startup, so that dashboards
//     see explicit zeros instead of missing series.
//   - Interoperate with the prometheus Go library. Registry implements both
//     prometheus.Gatherer and prometheus.Collector, and default Go/process
//     collectors can be attached with AddGatherer.
//
// Here we describe the key parts of the metrics package. See also doc comments
// in the code for more details.
//
// `Registry` owns metric definitions and their state. `Register` rejects
// duplicate names with `*DuplicateNameError`. `Snapshot` returns a
// point-in-time copy of every metric; `Render` and `Handler` serve it.
//
// `Counter`, `Gauge` and `Histogram` are the metric handles. Updates return
// typed errors (`*LabelArityError`, `*InvalidValueError`) instead of
// panicking.
//
// `SafeObserve` and `SafeSet` wrap updates whose value comes from outside
// (request sizes, durations, user input): invalid values are logged and
// dropped, and errors and panics never reach the caller.
//
// `Group` collects metrics defined together, e.g. in one of the subpackages,
// and initializes their constrained label combinations.
//
// `Opts` and `HistogramOpts` define metrics with constrained and unconstrained
// labels, following prometheus.Opts naming.
//
// `CollectFunc` refreshes metrics derived from external state, e.g. runtime
// memory statistics, at the start of every snapshot.
package metrics
