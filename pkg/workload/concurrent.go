// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package workload

import (
	"context"
	"math/rand/v2"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

func itoa(i int) string {
	return strconv.Itoa(i)
}

// HeavyIO waits iterations times for each, one wait after the other.
func HeavyIO(ctx context.Context, delay Delayer, iterations int, each time.Duration) error {
	for range iterations {
		if err := delay.Sleep(ctx, each); err != nil {
			return err
		}
	}
	return nil
}

// ConcurrentWorkload runs a CPU, a memory, an I/O and a query workload in
// parallel, and waits for all of them.
func ConcurrentWorkload(ctx context.Context, delay Delayer, size QuerySize, seed uint64) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		FindPrimes(5000)
		return nil
	})
	g.Go(func() error {
		items := make([]Item, 50000)
		for i := range items {
			items[i] = Item{ID: i, Data: "Data " + itoa(i)}
		}
		return nil
	})
	g.Go(func() error {
		return delay.Sleep(ctx, 2*time.Second)
	})
	g.Go(func() error {
		ComplexQuery(size, rand.New(rand.NewPCG(seed, seed)), time.Now())
		return nil
	})
	return g.Wait()
}
