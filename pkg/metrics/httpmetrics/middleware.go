// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package httpmetrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/errormetrics"
)

var log = logger.GetLogger().WithField(logfields.LogSubsys, "httpmetrics")

// RouteResolver returns the route pattern a request will be dispatched to.
// *http.ServeMux implements it.
type RouteResolver interface {
	Handler(r *http.Request) (h http.Handler, pattern string)
}

type Config struct {
	// DecrementInFlightOnAbort also decrements the in-flight gauge when the
	// wrapped handler panics. By default an aborted request stays counted as
	// in flight.
	DecrementInFlightOnAbort bool
	// Routes resolves route patterns before the request is dispatched, so
	// that the request size can be labelled with the route. Optional.
	Routes RouteResolver
}

// Instrumenter records HTTP metrics for every request going through the
// handlers it wraps.
type Instrumenter struct {
	metrics *Metrics
	errors  *errormetrics.Metrics
	config  Config
}

func NewInstrumenter(m *Metrics, em *errormetrics.Metrics, config Config) *Instrumenter {
	return &Instrumenter{
		metrics: m,
		errors:  em,
		config:  config,
	}
}

const (
	stateActive int32 = iota
	stateCompleted
	stateAborted
)

// requestContext lives for the duration of a single request.
type requestContext struct {
	method      string
	route       string
	start       time.Time
	requestSize int64
	inFlight    bool
	state       atomic.Int32
}

// Wrap returns a handler recording metrics around next. Recording happens
// once next returns, i.e. once the response was handed over to the server.
// Failures while recording are logged and never affect the response.
func (i *Instrumenter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := i.begin(r)
		rec := newResponseRecorder(w)

		returned := false
		defer func() {
			if returned {
				return
			}
			p := recover()
			i.abort(rc, p)
			if p != nil {
				panic(p)
			}
		}()

		next.ServeHTTP(rec, r)
		returned = true
		i.complete(rc, r, rec)
	})
}

// begin always returns a context, even if setting up the metrics failed.
func (i *Instrumenter) begin(r *http.Request) (rc *requestContext) {
	rc = &requestContext{
		method: r.Method,
		start:  time.Now(),
	}
	defer func() {
		if p := recover(); p != nil {
			log.WithFields(logrus.Fields{
				logfields.Method: rc.method,
				logfields.Path:   r.URL.Path,
				logfields.Panic:  p,
			}).Error("Error setting up request metrics")
		}
	}()

	rc.route = ResolveRoute(i.config.Routes, r)
	if err := i.metrics.ActiveRequests.Inc(rc.method); err != nil {
		metrics.LogUpdateError(err)
	} else {
		rc.inFlight = true
	}
	rc.requestSize = max(r.ContentLength, 0)
	metrics.SafeObserve(i.metrics.RequestSize, []string{rc.method, rc.route}, rc.requestSize)
	return rc
}

func (i *Instrumenter) complete(rc *requestContext, r *http.Request, rec *responseRecorder) {
	if rc == nil || !rc.state.CompareAndSwap(stateActive, stateCompleted) {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			log.WithFields(logrus.Fields{
				logfields.Method: rc.method,
				logfields.Route:  rc.route,
				logfields.Panic:  p,
			}).Error("Error recording metrics")
		}
	}()

	duration := time.Since(rc.start)
	route := completedRoute(r, rc.route)
	status := rec.Status()
	labels := []string{rc.method, route, strconv.Itoa(status)}

	metrics.LogUpdateError(i.metrics.RequestsTotal.Inc(labels...))
	metrics.SafeObserve(i.metrics.RequestDuration, labels, duration)
	metrics.SafeObserve(i.metrics.ResponseSize, labels, rec.BytesWritten())
	if rc.inFlight {
		metrics.LogUpdateError(i.metrics.ActiveRequests.Dec(rc.method))
	}
	if et, ok := errormetrics.ForStatus(status); ok && i.errors != nil {
		i.errors.ErrorTotalInc(et)
	}
}

func (i *Instrumenter) abort(rc *requestContext, p any) {
	if rc == nil || !rc.state.CompareAndSwap(stateActive, stateAborted) {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			log.WithFields(logrus.Fields{
				logfields.Method: rc.method,
				logfields.Route:  rc.route,
				logfields.Panic:  p,
			}).Error("Error recording aborted request")
		}
	}()
	decrement := i.config.DecrementInFlightOnAbort && rc.inFlight
	log.WithFields(logrus.Fields{
		logfields.Method: rc.method,
		logfields.Route:  rc.route,
		logfields.Panic:  p,
		"decrement":      decrement,
	}).Debug("Request aborted before completion")
	if decrement {
		metrics.LogUpdateError(i.metrics.ActiveRequests.Dec(rc.method))
	}
}

// ResolveRoute returns the route known before dispatch: the pattern routes
// resolves r to if there is one, the raw path otherwise. routes may be nil.
func ResolveRoute(routes RouteResolver, r *http.Request) string {
	if routes != nil {
		if _, pattern := routes.Handler(r); pattern != "" {
			return RouteFromPattern(pattern)
		}
	}
	return strings.ToValidUTF8(r.URL.Path, "\uFFFD")
}

// completedRoute prefers the pattern set by the mux during dispatch.
func completedRoute(r *http.Request, entryRoute string) string {
	if r.Pattern != "" {
		return RouteFromPattern(r.Pattern)
	}
	if entryRoute == "" {
		return strings.ToValidUTF8(r.URL.Path, "\uFFFD")
	}
	return entryRoute
}

// RouteFromPattern strips the method from a ServeMux pattern ("GET /x").
func RouteFromPattern(pattern string) string {
	if idx := strings.IndexByte(pattern, ' '); idx >= 0 {
		return strings.TrimLeft(pattern[idx+1:], " \t")
	}
	return pattern
}
