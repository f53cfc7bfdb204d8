// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package server

import (
	"context"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/config"
	"github.com/cilium/monitoring-poc/pkg/metrics/healthmetrics"
	"github.com/cilium/monitoring-poc/pkg/metricschecker"
	"github.com/cilium/monitoring-poc/pkg/workload"
)

func newTestServer(t *testing.T, mod func(*Config)) (*Server, *config.AllMetrics) {
	m, err := config.InitAllMetrics(metrics.NewRegistry(), config.Options{})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Delay = 0
	cfg.QuerySize = workload.QuerySize{Users: 20, Posts: 40, Comments: 100}
	if mod != nil {
		mod(&cfg)
	}
	s, err := New(cfg, m)
	require.NoError(t, err)
	return s, m
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "192.0.2.1:4321"
	h.ServeHTTP(rec, req)
	return rec
}

func scrape(t *testing.T, h http.Handler) string {
	rec := get(h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestSuccessThenScrape(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()

	rec := get(h, "/success")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", gjson.Get(rec.Body.String(), "status").String())
	assert.Equal(t, "Success response", gjson.Get(rec.Body.String(), "message").String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	checker := metricschecker.Checker(
		metricschecker.NewCounterChecker("http_requests_total").
			WithLabel("method", "GET").
			WithLabel("route", "/success").
			WithLabel("status", "200").
			WithMinimum(1),
		metricschecker.NewHistogramChecker("http_request_duration_seconds").
			WithLabel("route", "/success").
			WithCount(metricschecker.GreaterThanOrEqual[uint64](1)),
		metricschecker.NewHistogramChecker("http_response_size_bytes").
			WithLabel("route", "/success").
			WithSum(metricschecker.Equal(float64(rec.Body.Len()))),
		metricschecker.NewCounterChecker("app_errors_total").
			WithMaximum(0),
	)
	assert.NoError(t, metricschecker.CheckText(checker, scrape(t, h)))
}

func TestRoot(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := get(s.Handler(), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, banner, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestServerErrorCounted(t *testing.T) {
	s, m := newTestServer(t, nil)
	h := s.Handler()

	rec := get(h, "/error")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, float64(1), m.Errors.ErrorTotal.Value("server"))
	assert.Equal(t, float64(0), m.Errors.ErrorTotal.Value("client"))

	for _, target := range []string{"/errors/not-found", "/errors/bad-request", "/errors/unauthorized", "/errors/forbidden"} {
		rec := get(h, target)
		assert.GreaterOrEqual(t, rec.Code, 400, target)
		assert.Less(t, rec.Code, 500, target)
		assert.NotEmpty(t, gjson.Get(rec.Body.String(), "error").String(), target)
	}
	assert.Equal(t, float64(4), m.Errors.ErrorTotal.Value("client"))
	assert.Equal(t, float64(1), m.HTTP.RequestsTotal.Value("GET", "/errors/forbidden", "403"))
}

func TestNotFound(t *testing.T) {
	s, m := newTestServer(t, nil)
	h := s.Handler()

	rec := get(h, "/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "Not Found", gjson.Get(body, "message").String())
	assert.Equal(t, "/nope", gjson.Get(body, "path").String())
	assert.Equal(t, "GET", gjson.Get(body, "method").String())
	assert.True(t, gjson.Get(body, "timestamp").Exists())
	assert.Equal(t, float64(1), m.HTTP.RequestsTotal.Value("GET", "/nope", "404"))

	// method mismatch
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/success", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestException(t *testing.T) {
	s, m := newTestServer(t, nil)

	rec := get(s.Handler(), "/errors/exception")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "Simulated uncaught exception", gjson.Get(body, "error").String())
	assert.Equal(t, "EXCEPTION_ERROR", gjson.Get(body, "code").String())
	assert.Equal(t, int64(500), gjson.Get(body, "statusCode").Int())
	assert.Equal(t, "/errors/exception", gjson.Get(body, "path").String())
	assert.NotEmpty(t, gjson.Get(body, "stack").String())
	assert.Equal(t, float64(1), m.HTTP.RequestsTotal.Value("GET", "/errors/exception", "500"))
	assert.Equal(t, float64(0), m.HTTP.ActiveRequests.Value("GET"))
}

func TestDebugError(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := get(s.Handler(), "/errors/debug-error")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "DEBUG_ERROR_CODE", gjson.Get(body, "code").String())
	assert.Equal(t, "test-user-123", gjson.Get(body, "user_id").String())
	assert.Equal(t, "development", gjson.Get(body, "environment").String())
	assert.Equal(t, "username", gjson.Get(body, "validation_errors.0.field").String())
	assert.True(t, strings.HasPrefix(gjson.Get(body, "request_id").String(), "req-"))

	// production hides everything but the first-class members
	s, _ = newTestServer(t, func(c *Config) { c.Environment = "production" })
	rec = get(s.Handler(), "/errors/debug-error")
	body = rec.Body.String()
	assert.Equal(t, "DEBUG_ERROR_CODE", gjson.Get(body, "code").String())
	assert.NotEmpty(t, gjson.Get(body, "details").String())
	assert.False(t, gjson.Get(body, "stack").Exists())
	assert.False(t, gjson.Get(body, "user_id").Exists())
}

func TestLoggedErrors(t *testing.T) {
	s, m := newTestServer(t, nil)
	h := s.Handler()

	rec := get(h, "/errors/multi-error-test")
	require.Equal(t, http.StatusOK, rec.Code)
	names := gjson.Get(rec.Body.String(), "errorTypes").Array()
	require.Len(t, names, 5)
	assert.Equal(t, "ValidationError", names[0].String())
	assert.Equal(t, float64(5), m.Errors.ErrorTotal.Value("application"))

	rec = get(h, "/errors/grafana-error-test")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(6), m.Errors.ErrorTotal.Value("application"))
	assert.Equal(t, float64(0), m.Errors.ErrorTotal.Value("server"))
}

func TestDatabaseRoutes(t *testing.T) {
	s, m := newTestServer(t, nil)
	h := s.Handler()

	rec := get(h, "/db/users")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(10), gjson.Get(rec.Body.String(), "count").Int())

	rec = get(h, "/db/users/3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), gjson.Get(rec.Body.String(), "user.id").Int())
	assert.Len(t, gjson.Get(rec.Body.String(), "posts").Array(), 5)
	assert.Equal(t, float64(1), m.HTTP.RequestsTotal.Value("GET", "/db/users/{id}", "200"))

	rec = get(h, "/db/users/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", gjson.Get(rec.Body.String(), "error").String())

	rec = get(h, "/db/users/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ID", gjson.Get(rec.Body.String(), "code").String())

	rec = get(h, "/db/posts/12")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), gjson.Get(rec.Body.String(), "author.id").Int())
	assert.Len(t, gjson.Get(rec.Body.String(), "comments").Array(), 3)

	rec = get(h, "/db/slow-query")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, gjson.Get(rec.Body.String(), "userStats").Array(), 10)

	assert.Equal(t, float64(3), m.Database.QueriesTotal.Value("select", "users"))
	assert.Equal(t, float64(1), m.Database.QueriesTotal.Value("aggregate", "comments"))
	assert.Equal(t, float64(1), m.Database.QueriesTotal.Value("join", "posts"))
}

func TestDatabaseErrors(t *testing.T) {
	s, m := newTestServer(t, nil)
	h := s.Handler()

	rec := get(h, "/db/db-error")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "DB_CONN_ERROR", gjson.Get(body, "code").String())
	assert.Equal(t, "SELECT * FROM users WHERE id = ?", gjson.Get(body, "query").String())
	assert.Equal(t, "user_123", gjson.Get(body, "params.0").String())

	rec = get(h, "/db/ora-00942")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "ORA-00942", gjson.Get(rec.Body.String(), "code").String())

	rec = get(h, "/db/foreign-key")
	assert.Equal(t, http.StatusConflict, rec.Code)

	for _, target := range []string{"/db/syntax-error", "/db/deadlock", "/db/ora-01652"} {
		rec = get(h, target)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, target)
	}

	assert.Equal(t, float64(6), m.Errors.ErrorTotal.Value("database"))
	assert.Equal(t, float64(1), m.Errors.ErrorDetails.Value("database", "schema", "ORA-00942"))
	assert.Equal(t, float64(5), m.Errors.ErrorTotal.Value("server"))
	assert.Equal(t, float64(1), m.Errors.ErrorTotal.Value("client"))
}

func TestLoadRoutes(t *testing.T) {
	s, m := newTestServer(t, nil)
	h := s.Handler()

	rec := get(h, "/load-test/extreme-cpu?n=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(55), gjson.Get(rec.Body.String(), "result").Int())
	sample, ok := m.Load.FibonacciDuration.Sample("10")
	require.True(t, ok)
	assert.Equal(t, uint64(1), sample.Count)

	for _, n := range []string{"46", "-1", "x"} {
		rec = get(h, "/load-test/extreme-cpu?n="+n)
		assert.Equal(t, http.StatusBadRequest, rec.Code, n)
	}

	rec = get(h, "/load-test/cpu-intensive")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1229), gjson.Get(rec.Body.String(), "primeCount").Int())

	rec = get(h, "/load-test/heavy-io")
	require.Equal(t, http.StatusOK, rec.Code)
	sample, ok = m.Load.IOOperationsDuration.Sample("100")
	require.True(t, ok)
	assert.Equal(t, uint64(1), sample.Count)

	rec = get(h, "/load-test/complex-query")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.LessOrEqual(t, len(gjson.Get(rec.Body.String(), "results").Array()), 5)
	sample, ok = m.Load.ComplexQueryDuration.Sample()
	require.True(t, ok)
	assert.Equal(t, uint64(1), sample.Count)

	rec = get(h, "/load-test/concurrent-workload")
	require.Equal(t, http.StatusOK, rec.Code)
	sample, ok = m.Load.ConcurrentWorkloadDuration.Sample()
	require.True(t, ok)
	assert.Equal(t, uint64(1), sample.Count)

	rec = get(h, "/load-test/random-latency")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.LessOrEqual(t, gjson.Get(rec.Body.String(), "delay").Int(), int64(2000))
}

func TestResetMemoryLeak(t *testing.T) {
	s, m := newTestServer(t, nil)
	s.leak.Add(10, rand.New(rand.NewPCG(1, 1)))
	s.updateLeakMetrics()
	assert.Equal(t, float64(10), m.Load.MemoryLeakItems.Value())
	assert.Positive(t, m.Load.MemoryLeakBytes.Value())

	rec := get(s.Handler(), "/load-test/reset-memory-leak")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(10), gjson.Get(rec.Body.String(), "itemsCleared").Int())
	assert.Equal(t, float64(0), m.Load.MemoryLeakItems.Value())
	assert.Equal(t, float64(0), m.Load.MemoryLeakBytes.Value())
}

func TestBusinessTransaction(t *testing.T) {
	s, m := newTestServer(t, nil)
	h := s.Handler()

	rec := get(h, "/demo-business-transaction")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), m.Business.TransactionsTotal.Value("order_created", "success"))

	rec = get(h, "/demo-business-transaction?type=payment_processed&fail=true")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "TRANSACTION_FAILED", gjson.Get(rec.Body.String(), "code").String())
	assert.Equal(t, float64(1), m.Business.TransactionsTotal.Value("payment_processed", "error"))

	rec = get(h, "/demo-business-transaction?type=refund")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	s, m := newTestServer(t, nil)
	h := s.Handler()

	rec := get(h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"UP"}`, rec.Body.String())

	m.Health.Set(healthmetrics.Application, true)
	rec = get(h, "/health/detailed")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "UP", gjson.Get(body, "status").String())
	assert.True(t, strings.HasSuffix(gjson.Get(body, "memory.rss").String(), " MB"))
	// the request itself is in flight
	assert.Equal(t, int64(1), gjson.Get(body, "activeRequests.GET").Int())
	assert.Equal(t, int64(0), gjson.Get(body, "activeRequests.DELETE").Int())
	assert.True(t, gjson.Get(body, "components.application").Bool())
	assert.False(t, gjson.Get(body, "components.server").Bool())
}

func TestDocs(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := get(s.Handler(), "/docs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	for _, rt := range s.routes {
		assert.Contains(t, body, rt.displayPath())
	}
	assert.Contains(t, body, "<h2>Database endpoints</h2>")
}

func TestRateLimit(t *testing.T) {
	s, m := newTestServer(t, func(c *Config) {
		c.RateLimit = 1
		c.RateLimitInterval = time.Hour
	})
	h := s.Handler()

	assert.Equal(t, http.StatusOK, get(h, "/success").Code)
	rec := get(h, "/success")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, float64(1), m.RateLimit.Value("/success", "192.0.2.1"))
	assert.Equal(t, float64(1), m.HTTP.RequestsTotal.Value("GET", "/success", "429"))
	assert.Equal(t, float64(1), m.Errors.ErrorTotal.Value("client"))
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/errors/exception", nil)
	req.Header.Set(RequestIDHeader, "abc")
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestAccessLog(t *testing.T) {
	hook := test.NewLocal(logger.DefaultLogger)
	defer hook.Reset()

	s, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/success?x=1", nil)
	req.RemoteAddr = "192.0.2.7:1234"
	req.Header.Set("User-Agent", "test/1.0")
	s.Handler().ServeHTTP(rec, req)

	var found bool
	for _, e := range hook.AllEntries() {
		if strings.HasPrefix(e.Message, "192.0.2.7 - - [") {
			found = true
			assert.Contains(t, e.Message, `"GET /success?x=1 HTTP/1.1" 200 `)
			assert.True(t, strings.HasSuffix(e.Message, `"-" "test/1.0"`), e.Message)
		}
	}
	assert.True(t, found)
}

func TestAccessLogFlush(t *testing.T) {
	hook := test.NewLocal(logger.DefaultLogger)
	defer hook.Reset()

	h := accessLog(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		f, ok := w.(http.Flusher)
		require.True(t, ok)
		io.WriteString(w, "chunk")
		f.Flush()
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))

	assert.True(t, rec.Flushed)
	assert.Equal(t, "chunk", rec.Body.String())
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Contains(t, entry.Message, `"GET /stream HTTP/1.1" 200 5 `)
}

func TestServe(t *testing.T) {
	s, m := newTestServer(t, nil)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, listener, time.Second)
	}()

	url := "http://" + listener.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url + "/health")
		if err != nil {
			return false
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, m.Health.Healthy(healthmetrics.Server))

	checker := metricschecker.NewGaugeChecker("system_health_status").
		WithLabel("component", "server").
		WithMatcher(metricschecker.Equal(1.0))
	assert.NoError(t, metricschecker.CheckUrl(checker, url+"/metrics"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.False(t, m.Health.Healthy(healthmetrics.Server))
}
