// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/httpmetrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/ratelimitmetrics"
)

func Test_getLimit(t *testing.T) {
	eps := 1e-9

	assert.InDelta(t, float64(rate.Limit(0)), float64(getLimit(0, time.Minute)), eps)
	assert.InDelta(t, float64(rate.Limit(0)), float64(getLimit(0, 0)), eps)
	assert.InEpsilon(t, float64(rate.Limit(1)), float64(getLimit(60, time.Minute)), eps)
	assert.InEpsilon(t, float64(rate.Limit(10.0/60)), float64(getLimit(10, time.Minute)), eps)
	// 1/ms => 1000/second
	assert.InEpsilon(t, float64(rate.Limit(1000)), float64(getLimit(1, time.Millisecond)), eps)
	// 3600/hour => 1/second
	assert.InEpsilon(t, float64(rate.Limit(1)), float64(getLimit(60*60, time.Hour)), eps)

	// interval<=0 => infinite rate limit (allow all events)
	assert.InEpsilon(t, float64(rate.Inf), float64(getLimit(1, 0)), eps)
	assert.InEpsilon(t, float64(rate.Inf), float64(getLimit(1, -1)), eps)
}

func TestDisabled(t *testing.T) {
	r, err := NewRateLimiter(time.Minute, -1, 10, nil, nil)
	require.NoError(t, err)
	require.Nil(t, r)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	r.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddleware(t *testing.T) {
	counter, err := ratelimitmetrics.NewRateLimitTotal(metrics.NewGroup(metrics.NewRegistry()))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /db/users/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r, err := NewRateLimiter(time.Hour, 2, 10, counter, mux)
	require.NoError(t, err)
	h := r.Middleware(mux)

	serve := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/db/users/1", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, serve("192.0.2.1").Code)
	assert.Equal(t, http.StatusOK, serve("192.0.2.1").Code)
	rec := serve("192.0.2.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, int64(429), gjson.Get(rec.Body.String(), "statusCode").Int())
	assert.Equal(t, "1800", rec.Header().Get("Retry-After"))

	// other clients have their own allowance
	assert.Equal(t, http.StatusOK, serve("192.0.2.2").Code)

	assert.Equal(t, float64(1), counter.Value("/db/users/{id}", "192.0.2.1"))
	assert.Equal(t, uint64(1), r.Dropped())
	r.reportRateLimitInfo(context.Background())
	assert.Zero(t, r.Dropped())
}

func TestDropLabelsMatchHTTPMetrics(t *testing.T) {
	counter, err := ratelimitmetrics.NewRateLimitTotal(metrics.NewGroup(metrics.NewRegistry()))
	require.NoError(t, err)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /db/users/{id}", func(http.ResponseWriter, *http.Request) {})

	for _, routes := range []RouteResolver{mux, nil} {
		r, err := NewRateLimiter(time.Hour, 1, 10, counter, routes)
		require.NoError(t, err)
		h := r.Middleware(mux)
		for range 2 {
			req := httptest.NewRequest(http.MethodGet, "/db/users/7", nil)
			req.RemoteAddr = "192.0.2.9:1234"
			h.ServeHTTP(httptest.NewRecorder(), req)
		}
		route := httpmetrics.ResolveRoute(routes, httptest.NewRequest(http.MethodGet, "/db/users/7", nil))
		assert.Equal(t, float64(1), counter.Value(route, "192.0.2.9"), route)
	}
	assert.Equal(t, float64(1), counter.Value("/db/users/{id}", "192.0.2.9"))
	assert.Equal(t, float64(1), counter.Value("/db/users/7", "192.0.2.9"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4321"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 198.51.100.7, 192.0.2.1")
	assert.Equal(t, "198.51.100.7", ClientIP(req))

	req.Header.Del("X-Forwarded-For")
	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", ClientIP(req))
}
