// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package workload

import (
	"context"
	"time"
)

// Delayer waits for simulated durations, multiplied by its value. A zero
// Delayer doesn't wait.
type Delayer float64

// Sleep waits for d, scaled, or until ctx is done.
func (s Delayer) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	scaled := time.Duration(float64(d) * float64(s))
	if scaled <= 0 {
		return nil
	}
	t := time.NewTimer(scaled)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
