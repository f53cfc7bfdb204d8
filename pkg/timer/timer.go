// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package timer

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Periodic runs a job at a fixed interval in its own goroutine, until Stop is
// called or the context passed to Start is done.
type Periodic struct {
	name string
	job  func(context.Context)

	mu       sync.Mutex
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewPeriodic(name string, job func(context.Context)) *Periodic {
	return &Periodic{name: name, job: job}
}

// Start starts the job. A running job is restarted if interval changed and
// left alone otherwise.
func (p *Periodic) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%s: invalid interval %s", p.name, interval)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running() && p.interval == interval {
		return nil
	}
	p.stopLocked()

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.interval = interval
	go p.run(ctx, interval, p.done)
	return nil
}

// Stop stops the job and waits for a running invocation to return.
func (p *Periodic) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Running reports whether the job is scheduled.
func (p *Periodic) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running()
}

func (p *Periodic) running() bool {
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *Periodic) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
}

func (p *Periodic) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.job(ctx)
		}
	}
}
