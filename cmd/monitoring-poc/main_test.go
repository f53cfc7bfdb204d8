// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/option"
	"github.com/cilium/monitoring-poc/pkg/workload"
)

func TestServerConfig(t *testing.T) {
	saved := option.Config
	defer func() { option.Config = saved }()

	option.Config.Environment = "production"
	option.Config.LatencyScale = 0.5
	option.Config.RateLimit = 20
	option.Config.RateLimitInterval = time.Second
	option.Config.RateLimitCacheSize = 16
	option.Config.DBCacheSize = 8
	option.Config.DecrementInFlightOnAbort = true

	cfg := serverConfig()
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, workload.Delayer(0.5), cfg.Delay)
	assert.Equal(t, 20, cfg.RateLimit)
	assert.Equal(t, time.Second, cfg.RateLimitInterval)
	assert.Equal(t, 16, cfg.RateLimitCacheSize)
	assert.Equal(t, 8, cfg.DBCacheSize)
	assert.True(t, cfg.DecrementInFlightOnAbort)
	assert.Equal(t, workload.DefaultQuerySize, cfg.QuerySize)
}

func TestSetupLoggingLoki(t *testing.T) {
	var (
		mu     sync.Mutex
		pushes []string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		pushes = append(pushes, string(b))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	saved := option.Config
	defer func() { option.Config = saved }()
	old := logger.DefaultLogger.ReplaceHooks(make(logrus.LevelHooks))
	defer logger.DefaultLogger.ReplaceHooks(old)

	option.Config.LogOpts = logger.DefaultOptions()
	option.Config.AppName = "poc-test"
	option.Config.Environment = "test"
	option.Config.LokiURL = ts.URL
	option.Config.LokiBatchInterval = time.Hour

	stop, err := setupLogging()
	require.NoError(t, err)
	logger.GetLogger().Info("hello")
	logger.GetLogger().Error("boom")
	stop()

	mu.Lock()
	defer mu.Unlock()
	// nothing is pushed before the batch interval, everything on stop
	require.Len(t, pushes, 1)
	body := pushes[0]
	require.Equal(t, int64(2), gjson.Get(body, "streams.#").Int())
	assert.Equal(t, "poc-test", gjson.Get(body, "streams.0.stream.job").String())
	assert.Equal(t, "test", gjson.Get(body, "streams.0.stream.environment").String())
	assert.Len(t, gjson.Get(body, "streams.0.values").Array(), 2)

	assert.Equal(t, "error", gjson.Get(body, "streams.1.stream.log_type").String())
	line := gjson.Get(body, "streams.1.values.0.1").String()
	assert.Equal(t, "boom", gjson.Get(line, "message").String())
	assert.Equal(t, "poc-test", gjson.Get(line, "service").String())
}

func TestSetupLoggingInvalidLokiURL(t *testing.T) {
	saved := option.Config
	defer func() { option.Config = saved }()

	option.Config.LokiURL = "loki:3100"
	_, err := setupLogging()
	assert.ErrorContains(t, err, "invalid loki-url")
}
