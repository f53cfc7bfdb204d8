// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package server

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cilium/monitoring-poc/pkg/apierror"
	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/memmetrics"
	"github.com/cilium/monitoring-poc/pkg/workload"
)

const (
	primesMax         = 10000
	memoryItems       = 100000
	maxRandomLatency  = 2000
	defaultFibonacciN = 40
	maxFibonacciN     = 45
	leakItems         = 1000000
	ioIterations      = 100
	ioWait            = 10 * time.Millisecond
	complexQueryDelay = 4 * time.Second
	complexResults    = 5
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func toMB(b uint64) float64 {
	return float64(b) / 1024 / 1024
}

func millis(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func (s *Server) cpuIntensive(w http.ResponseWriter, _ *http.Request) error {
	log.Info("CPU intensive endpoint called")
	start := time.Now()
	primes := workload.FindPrimes(primesMax)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "CPU intensive operation completed",
		"duration":   millis(time.Since(start)),
		"primeCount": len(primes),
	})
	return nil
}

func (s *Server) memoryIntensive(w http.ResponseWriter, _ *http.Request) error {
	log.Info("Memory intensive endpoint called")
	items := workload.AllocateItems(memoryItems)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Memory intensive operation completed",
		"arraySize": len(items),
		"firstItem": items[0],
		"lastItem":  items[len(items)-1],
	})
	return nil
}

func (s *Server) randomLatency(w http.ResponseWriter, r *http.Request) error {
	delay := rand.IntN(maxRandomLatency + 1)
	log.WithField("delay", delay).Info("Random latency endpoint called")
	if err := s.config.Delay.Sleep(r.Context(), time.Duration(delay)*time.Millisecond); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Random latency response",
		"delay":   delay,
	})
	return nil
}

func (s *Server) extremeCPU(w http.ResponseWriter, r *http.Request) error {
	n := defaultFibonacciN
	if v := r.URL.Query().Get("n"); v != "" {
		var err error
		n, err = strconv.Atoi(v)
		if err != nil || n < 0 || n > maxFibonacciN {
			return apierror.New(http.StatusBadRequest, "INVALID_INPUT",
				fmt.Sprintf("n must be an integer between 0 and %d", maxFibonacciN)).
				WithField("input", v)
		}
	}
	log.WithField("input", n).Info("Extreme CPU endpoint called")

	start := time.Now()
	result := workload.Fibonacci(n)
	duration := time.Since(start)
	metrics.SafeObserve(s.metrics.Load.FibonacciDuration, []string{strconv.Itoa(n)}, duration)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Extreme CPU load completed",
		"duration": seconds(duration),
		"input":    n,
		"result":   result,
	})
	return nil
}

func (s *Server) updateLeakMetrics() {
	metrics.SafeSet(s.metrics.Load.MemoryLeakItems, nil, s.leak.Len())
	metrics.SafeSet(s.metrics.Load.MemoryLeakBytes, nil, s.leak.Bytes())
}

func (s *Server) memoryLeak(w http.ResponseWriter, _ *http.Request) error {
	before := memmetrics.ReadUsage()[memmetrics.HeapUsed]
	total := s.leak.Add(leakItems, newRand())
	after := memmetrics.ReadUsage()[memmetrics.HeapUsed]
	s.updateLeakMetrics()

	increase := toMB(after) - toMB(before)
	log.WithFields(logrus.Fields{
		"itemsAdded":     leakItems,
		"totalItems":     total,
		"memoryBeforeMB": toMB(before),
		"memoryAfterMB":  toMB(after),
		"increasedMB":    increase,
	}).Warn("Memory leak simulation: items added")

	writeJSON(w, http.StatusOK, map[string]any{
		"message":          "Memory leak simulation - added 1,000,000 items",
		"totalItems":       total,
		"memoryIncreaseMB": increase,
		"timestamp":        timestamp(),
	})
	return nil
}

func (s *Server) resetMemoryLeak(w http.ResponseWriter, _ *http.Request) error {
	cleared := s.leak.Reset()
	s.updateLeakMetrics()
	runtime.GC()
	log.WithField("itemsCleared", cleared).Info("Memory leak simulation reset")
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Memory leak simulation reset",
		"itemsCleared": cleared,
		"timestamp":    timestamp(),
	})
	return nil
}

func (s *Server) heavyIO(w http.ResponseWriter, r *http.Request) error {
	log.Info("Heavy I/O endpoint called")
	start := time.Now()
	if err := workload.HeavyIO(r.Context(), s.config.Delay, ioIterations, ioWait); err != nil {
		return err
	}
	duration := time.Since(start)
	metrics.SafeObserve(s.metrics.Load.IOOperationsDuration, []string{strconv.Itoa(ioIterations)}, duration)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Heavy I/O operations completed",
		"iterations": ioIterations,
		"duration":   millis(duration),
	})
	return nil
}

func (s *Server) complexQuery(w http.ResponseWriter, r *http.Request) error {
	log.Info("Complex query endpoint called")
	start := time.Now()
	if err := s.config.Delay.Sleep(r.Context(), complexQueryDelay); err != nil {
		return err
	}
	results := workload.ComplexQuery(s.config.QuerySize, newRand(), time.Now())
	duration := time.Since(start)
	metrics.SafeObserve(s.metrics.Load.ComplexQueryDuration, nil, duration)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Complex query completed",
		"executionTime": seconds(duration),
		"resultCount":   len(results),
		"results":       results[:min(complexResults, len(results))],
	})
	return nil
}

func (s *Server) concurrentWorkload(w http.ResponseWriter, r *http.Request) error {
	log.Info("Concurrent workload endpoint called")
	start := time.Now()
	if err := workload.ConcurrentWorkload(r.Context(), s.config.Delay, s.config.QuerySize, rand.Uint64()); err != nil {
		return err
	}
	duration := time.Since(start)
	metrics.SafeObserve(s.metrics.Load.ConcurrentWorkloadDuration, nil, duration)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Concurrent workload completed",
		"duration":   seconds(duration),
		"operations": []string{"cpu", "memory", "io", "database"},
	})
	return nil
}
