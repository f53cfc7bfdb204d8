// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package load

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/cilium/monitoring-poc/cmd/pocctl/common"
)

const examples = `  # Send 100 requests to /success
  pocctl load

  # Mix successes and server errors, 20 at a time
  pocctl load -n 500 -c 20 /success /errors/500 /db/users`

// Summary holds the outcome of a load run.
type Summary struct {
	Requests int
	Failed   int64
	Statuses map[int]int
	Duration time.Duration
	Mean     time.Duration
	Max      time.Duration
}

type collector struct {
	mu        sync.Mutex
	statuses  map[int]int
	total     time.Duration
	max       time.Duration
	completed int
	failed    atomic.Int64
}

func (c *collector) record(status int, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[status]++
	c.total += d
	c.completed++
	c.max = max(c.max, d)
}

// Run sends requests GET requests to the server, cycling through paths, with
// at most concurrency requests in flight. Requests that fail to reach the
// server are counted, not returned as errors.
func Run(ctx context.Context, c *common.Client, paths []string, requests, concurrency int) (*Summary, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no path to request")
	}
	if requests <= 0 || concurrency <= 0 {
		return nil, fmt.Errorf("requests and concurrency must be positive")
	}

	col := &collector{statuses: make(map[int]int)}
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := 0; i < requests; i++ {
		path := paths[i%len(paths)]
		g.Go(func() error {
			reqStart := time.Now()
			resp, err := c.Do(ctx, path)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				col.failed.Inc()
				return nil
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			col.record(resp.StatusCode, time.Since(reqStart))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Summary{
		Requests: requests,
		Failed:   col.failed.Load(),
		Statuses: col.statuses,
		Duration: time.Since(start),
		Max:      col.max,
	}
	if col.completed > 0 {
		s.Mean = col.total / time.Duration(col.completed)
	}
	return s, nil
}

func (s *Summary) PrettyPrint(w io.Writer) {
	header := color.New(color.FgBlue)
	header.Fprintln(w, "Load summary")
	header.Fprintln(w, "------------")
	fmt.Fprintf(w, "Requests:       %d\n", s.Requests)
	fmt.Fprintf(w, "Total duration: %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Mean latency:   %s\n", s.Mean.Round(time.Microsecond))
	fmt.Fprintf(w, "Max latency:    %s\n", s.Max.Round(time.Microsecond))
	fmt.Fprintln(w, "Status codes:")
	for _, code := range slices.Sorted(maps.Keys(s.Statuses)) {
		c := color.New(color.FgGreen)
		switch {
		case code >= 500:
			c = color.New(color.FgRed)
		case code >= 400:
			c = color.New(color.FgYellow)
		}
		c.Fprintf(w, "  %d: %d\n", code, s.Statuses[code])
	}
	if s.Failed > 0 {
		color.New(color.FgRed).Fprintf(w, "Failed:         %d\n", s.Failed)
	}
}

func New() *cobra.Command {
	var (
		requests    int
		concurrency int
	)
	cmd := &cobra.Command{
		Use:     "load [path...]",
		Short:   "Generate traffic against a running server",
		Example: examples,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				paths = []string{"/success"}
			}
			return common.CliRun(func(ctx context.Context, c *common.Client) error {
				s, err := Run(ctx, c, paths, requests, concurrency)
				if err != nil {
					return err
				}
				s.PrettyPrint(cmd.OutOrStdout())
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&requests, "requests", "n", 100, "Number of requests to send")
	flags.IntVarP(&concurrency, "concurrency", "c", 10, "Maximum number of requests in flight")
	return cmd
}
