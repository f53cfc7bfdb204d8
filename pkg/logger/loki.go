// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cilium/monitoring-poc/pkg/timer"
)

const lokiPushPath = "/loki/api/v1/push"

type LokiOptions struct {
	// URL of the Loki server, without the push path
	URL           string
	BatchInterval time.Duration
	// Labels of the main stream (job, environment, application)
	Labels map[string]string
	Client *http.Client
}

type lokiStream struct {
	labels map[string]string
	values [][2]string
}

// LokiHook pushes log entries to Loki. Entries are batched per stream and
// pushed every BatchInterval. Error entries are also pushed to a second stream
// labelled log_type="error".
type LokiHook struct {
	url       string
	interval  time.Duration
	client    *http.Client
	formatter logrus.Formatter

	mu      sync.Mutex
	main    *lokiStream
	errors  *lokiStream
	dropped int
}

func NewLokiHook(opts LokiOptions) *LokiHook {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	interval := opts.BatchInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	errorLabels := maps.Clone(opts.Labels)
	if errorLabels == nil {
		errorLabels = map[string]string{}
	}
	errorLabels["log_type"] = "error"
	return &LokiHook{
		url:       strings.TrimSuffix(opts.URL, "/") + lokiPushPath,
		interval:  interval,
		client:    client,
		formatter: Options{Format: FormatJSON}.formatter(),
		main:      &lokiStream{labels: maps.Clone(opts.Labels)},
		errors:    &lokiStream{labels: errorLabels},
	}
}

func (h *LokiHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *LokiHook) Fire(e *logrus.Entry) error {
	line, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	value := [2]string{
		strconv.FormatInt(e.Time.UnixNano(), 10),
		string(bytes.TrimRight(line, "\n")),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.main.values = append(h.main.values, value)
	if e.Level <= logrus.ErrorLevel {
		h.errors.values = append(h.errors.values, value)
	}
	return nil
}

// Run pushes batches until ctx is done, then pushes what is left.
func (h *LokiHook) Run(ctx context.Context) {
	push := timer.NewPeriodic("loki push", h.Flush)
	if err := push.Start(ctx, h.interval); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start loki push: %v\n", err)
	}
	<-ctx.Done()
	push.Stop()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.Flush(flushCtx)
}

type lokiPushStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type lokiPushRequest struct {
	Streams []lokiPushStream `json:"streams"`
}

// Flush pushes the pending entries. Failures can't be logged through the
// logger the hook is attached to, so they go to stderr and the batch is
// dropped.
func (h *LokiHook) Flush(ctx context.Context) {
	h.mu.Lock()
	var req lokiPushRequest
	for _, s := range []*lokiStream{h.main, h.errors} {
		if len(s.values) == 0 {
			continue
		}
		req.Streams = append(req.Streams, lokiPushStream{Stream: s.labels, Values: s.values})
		s.values = nil
	}
	h.mu.Unlock()

	if len(req.Streams) == 0 {
		return
	}
	if err := h.push(ctx, &req); err != nil {
		h.mu.Lock()
		for _, s := range req.Streams {
			h.dropped += len(s.Values)
		}
		h.mu.Unlock()
		fmt.Fprintf(os.Stderr, "failed to push logs to loki: %v\n", err)
	}
}

func (h *LokiHook) push(ctx context.Context, req *lokiPushRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := h.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

// Dropped returns the number of entries that could not be pushed.
func (h *LokiHook) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
