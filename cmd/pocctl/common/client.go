// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package common

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/server"
)

// Client talks to a running monitoring-poc server.
type Client struct {
	http    *http.Client
	baseURL string
	retries int
}

// NewClient returns a client for address.
func NewClient(address string, timeout time.Duration, retries int) (*Client, error) {
	c, url, err := server.NewClient(address, timeout)
	if err != nil {
		return nil, err
	}
	return &Client{http: c, baseURL: url, retries: retries}, nil
}

// URL returns the absolute URL of path on the server.
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// Do sends a GET request for path, retrying with exponential backoff when the
// server can't be reached. The caller must close the response body.
func (c *Client) Do(ctx context.Context, path string) (*http.Response, error) {
	backoff := time.Second
	attempts := 0
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path), nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err == nil {
			return resp, nil
		}
		if attempts >= c.retries || ctx.Err() != nil {
			return nil, fmt.Errorf("failed to reach server after %d attempts: %w", attempts+1, err)
		}
		attempts++
		logger.GetLogger().WithField("url", req.URL.String()).WithField("attempts", attempts).WithError(err).Warn("Connection attempt failed, retrying...")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
}

// Get returns the body of path, failing on non-2xx status codes.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.Do(ctx, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %s", path, resp.Status)
	}
	return body, nil
}

// GetJSON decodes the JSON body of path into v.
func (c *Client) GetJSON(ctx context.Context, path string, v any) error {
	body, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// CliRun connects to the resolved server address and runs fn until it
// returns or the command is interrupted.
func CliRun(fn func(ctx context.Context, c *Client) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := NewClient(ResolveServerAddress(), Timeout, Retries)
	if err != nil {
		return err
	}
	return fn(ctx, c)
}
