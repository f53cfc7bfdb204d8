// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package ratelimit

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"

	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/httpmetrics"
	"github.com/cilium/monitoring-poc/pkg/timer"
)

var log = logger.GetLogger().WithField(logfields.LogSubsys, "ratelimit")

// RouteResolver labels dropped requests with the same route as the HTTP
// metrics.
type RouteResolver = httpmetrics.RouteResolver

// RateLimiter limits the number of requests per client IP.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	interval time.Duration
	routes   RouteResolver
	counter  *metrics.Counter

	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]

	dropped atomic.Uint64
	report  *timer.Periodic
}

// getLimit converts an numEvents and interval to rate.Limit which is a floating point value
// representing number of events per second.
func getLimit(numEvents int, interval time.Duration) rate.Limit {
	if numEvents == 0 {
		return 0
	}
	return rate.Every(interval / time.Duration(numEvents))
}

// NewRateLimiter allows numEvents requests per interval and client IP. It
// returns nil if numEvents is negative, i.e. rate limiting is disabled.
// cacheSize bounds the number of tracked clients. Rejected requests are
// counted in counter, labelled by endpoint and IP.
func NewRateLimiter(interval time.Duration, numEvents int, cacheSize int, counter *metrics.Counter, routes RouteResolver) (*RateLimiter, error) {
	if numEvents < 0 {
		return nil, nil
	}
	limiters, err := lru.New[string, *rate.Limiter](cacheSize)
	if err != nil {
		return nil, err
	}
	r := &RateLimiter{
		limit:    getLimit(numEvents, interval),
		burst:    numEvents,
		interval: interval,
		routes:   routes,
		counter:  counter,
		limiters: limiters,
	}
	r.report = timer.NewPeriodic("rate limit report", r.reportRateLimitInfo)
	return r, nil
}

// Start reports dropped requests every interval until ctx is done or Stop is
// called.
func (r *RateLimiter) Start(ctx context.Context) error {
	return r.report.Start(ctx, r.interval)
}

func (r *RateLimiter) Stop() {
	r.report.Stop()
}

func (r *RateLimiter) reportRateLimitInfo(context.Context) {
	if dropped := r.dropped.Swap(0); dropped > 0 {
		log.WithFields(logrus.Fields{
			"dropped":  dropped,
			"interval": r.interval,
		}).Warn("Requests dropped by the rate limiter")
	}
}

func (r *RateLimiter) limiter(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limiters.Get(ip)
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.limiters.Add(ip, l)
	}
	return l
}

// Allow reports whether a request from ip can be served now.
func (r *RateLimiter) Allow(ip string) bool {
	return r.limiter(ip).Allow()
}

// Drop records a rejected request.
func (r *RateLimiter) Drop(endpoint, ip string) {
	r.dropped.Inc()
	if r.counter != nil {
		metrics.LogUpdateError(r.counter.Inc(endpoint, ip))
	}
}

// Dropped returns the number of requests dropped since the last report.
func (r *RateLimiter) Dropped() uint64 {
	return r.dropped.Load()
}

type tooManyRequests struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// Middleware rejects requests over the limit with 429. A nil RateLimiter
// allows all requests.
func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip := ClientIP(req)
		if r.Allow(ip) {
			next.ServeHTTP(w, req)
			return
		}
		r.Drop(httpmetrics.ResolveRoute(r.routes, req), ip)

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", retryAfter(r.limit))
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(&tooManyRequests{
			Error:      http.StatusText(http.StatusTooManyRequests),
			Message:    "Too many requests, please try again later.",
			StatusCode: http.StatusTooManyRequests,
		})
	})
}

// retryAfter returns the number of seconds until the next token is
// available, rounded up.
func retryAfter(limit rate.Limit) string {
	if limit <= 0 {
		return "60"
	}
	secs := int(1/float64(limit) + 0.999)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// ClientIP returns the IP of the client: the first X-Forwarded-For entry if
// present, the remote address otherwise.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
