// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package server implements the HTTP service: the simulated endpoints, the
// metrics endpoint and the middleware instrumenting them.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cilium/monitoring-poc/pkg/database"
	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
	"github.com/cilium/monitoring-poc/pkg/metrics/config"
	"github.com/cilium/monitoring-poc/pkg/metrics/healthmetrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/httpmetrics"
	"github.com/cilium/monitoring-poc/pkg/ratelimit"
	"github.com/cilium/monitoring-poc/pkg/workload"
)

var log = logger.GetLogger().WithField(logfields.LogSubsys, "server")

const production = "production"

type Config struct {
	Environment string
	// Delay scales all the simulated latencies
	Delay                    workload.Delayer
	DecrementInFlightOnAbort bool

	// RateLimit is the number of requests allowed per RateLimitInterval and
	// client IP, -1 to disable rate limiting.
	RateLimit          int
	RateLimitInterval  time.Duration
	RateLimitCacheSize int

	DBCacheSize int
	// Seed of the simulated data
	Seed      uint64
	QuerySize workload.QuerySize
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Environment:        "development",
		Delay:              1,
		RateLimit:          -1,
		RateLimitInterval:  time.Minute,
		RateLimitCacheSize: 10000,
		DBCacheSize:        128,
		QuerySize:          workload.DefaultQuerySize,
	}
}

type Server struct {
	config  Config
	metrics *config.AllMetrics
	db      *database.DB
	leak    *workload.LeakStore
	limiter *ratelimit.RateLimiter
	mux     *http.ServeMux
	routes  []route
	handler http.Handler
	start   time.Time
}

func New(cfg Config, m *config.AllMetrics) (*Server, error) {
	db, err := database.New(database.Config{
		Seed:      cfg.Seed,
		CacheSize: cfg.DBCacheSize,
		Delay:     cfg.Delay,
		Metrics:   m.Database,
		Errors:    m.Errors,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	s := &Server{
		config:  cfg,
		metrics: m,
		db:      db,
		leak:    workload.NewLeakStore(),
		mux:     http.NewServeMux(),
		start:   time.Now(),
	}
	s.routes = s.routeTable()
	for _, rt := range s.routes {
		s.mux.Handle(rt.pattern(), s.handle(rt.handler))
	}

	s.limiter, err = ratelimit.NewRateLimiter(cfg.RateLimitInterval, cfg.RateLimit, cfg.RateLimitCacheSize, m.RateLimit, s.mux)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	instrumenter := httpmetrics.NewInstrumenter(m.HTTP, m.Errors, httpmetrics.Config{
		DecrementInFlightOnAbort: cfg.DecrementInFlightOnAbort,
		Routes:                   s.mux,
	})
	s.handler = requestID(accessLog(instrumenter.Wrap(s.limiter.Middleware(s.recovery(http.HandlerFunc(s.dispatch))))))
	return s, nil
}

// Handler returns the handler serving all the routes, with the middleware
// chain applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) production() bool {
	return s.config.Environment == production
}

// dispatch serves the matched route, and a JSON 404 otherwise.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	if _, pattern := s.mux.Handler(r); pattern == "" {
		s.handle(s.notFound).ServeHTTP(w, r)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe listens on address and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, address string, shutdownTimeout time.Duration) error {
	proto, addr, err := SplitListenAddr(address)
	if err != nil {
		s.metrics.Health.Set(healthmetrics.Server, false)
		return err
	}
	listener, err := net.Listen(proto, addr)
	if err != nil {
		log.WithField(logfields.Address, address).WithError(err).Error("Server startup error")
		s.metrics.Health.Set(healthmetrics.Server, false)
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return s.Serve(ctx, listener, shutdownTimeout)
}

// Serve serves on listener until ctx is cancelled, then shuts down
// gracefully, waiting at most shutdownTimeout for requests in flight.
func (s *Server) Serve(ctx context.Context, listener net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.limiter != nil {
		if err := s.limiter.Start(ctx); err != nil {
			return err
		}
		defer s.limiter.Stop()
	}

	s.metrics.Health.Set(healthmetrics.Server, true)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	log.WithFields(logrus.Fields{
		logfields.Address:     listener.Addr().String(),
		logfields.Environment: s.config.Environment,
	}).Info("Server is running")
	s.logRoutes()

	select {
	case err := <-errCh:
		s.metrics.Health.Set(healthmetrics.Server, false)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		log.WithError(err).Error("Server error")
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.metrics.Health.Set(healthmetrics.Server, false)
	if err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func (s *Server) logRoutes() {
	for _, g := range routeGroups(s.routes) {
		paths := make([]string, 0, len(g.routes))
		for _, rt := range g.routes {
			paths = append(paths, rt.displayPath())
		}
		log.WithField("paths", paths).Infof("%s endpoints", g.name)
	}
}
