// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package workload implements the simulated workloads served by the load test
// endpoints: CPU bound computations, memory growth, waits standing in for I/O
// and an intentionally naive in-memory query.
package workload
