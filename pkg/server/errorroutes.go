// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package server

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/cilium/monitoring-poc/pkg/apierror"
	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
	"github.com/cilium/monitoring-poc/pkg/metrics/errormetrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/memmetrics"
)

type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func requestRef() string {
	return fmt.Sprintf("req-%d", time.Now().UnixMilli())
}

func (s *Server) statusError(status int, message, errText string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		log.WithField(logfields.Path, r.URL.Path).Warnf("%s endpoint called", http.StatusText(status))
		writeJSON(w, status, map[string]any{
			"message":   message,
			"error":     errText,
			"timestamp": timestamp(),
		})
		return nil
	}
}

func (s *Server) exception(_ http.ResponseWriter, _ *http.Request) error {
	err := apierror.New(http.StatusInternalServerError, "EXCEPTION_ERROR", "Simulated uncaught exception").
		WithDetails("This is a simulated error with additional details for testing")
	log.WithFields(err.LogFields()).WithField(logfields.Stack, err.Stack()).Error("Exception endpoint called")
	panic(err)
}

func (s *Server) debugError(_ http.ResponseWriter, _ *http.Request) error {
	log.Info("Debug error endpoint called")
	err := apierror.New(http.StatusInternalServerError, "DEBUG_ERROR_CODE", "Detailed debug error for testing").
		WithDetails("This is a debug error with many properties for testing the error handler").
		WithField("requestId", requestRef()).
		WithField("userId", "test-user-123").
		WithField("environment", s.config.Environment).
		WithField("validationErrors", []validationError{
			{Field: "username", Message: "Username is required"},
			{Field: "email", Message: "Invalid email format"},
		})
	log.WithFields(err.LogFields()).WithField(logfields.Stack, err.Stack()).Error("Debug error created")
	return err
}

func (s *Server) countApplicationError() {
	if s.metrics.Errors != nil {
		s.metrics.Errors.ErrorTotalInc(errormetrics.ApplicationError)
	}
}

// multiErrorTest logs several typed errors without failing the request.
func (s *Server) multiErrorTest(w http.ResponseWriter, _ *http.Request) error {
	log.Info("Multi-error test endpoint called")
	err := multierr.Combine(
		apierror.New(http.StatusBadRequest, "VALIDATION_ERROR", "User data validation failed").
			WithType("ValidationError").
			WithDetails("Multiple fields failed validation checks").
			WithField("fields", []string{"email", "password", "username"}).
			WithField("severity", "medium"),
		apierror.New(http.StatusServiceUnavailable, "DB_CONNECTION_ERROR", "Failed to connect to database").
			WithType("DatabaseError").
			WithDetails("Connection timeout after 30 seconds").
			WithField("dbHost", "db-server-01").
			WithField("retryCount", 3).
			WithField("severity", "high"),
		apierror.New(http.StatusUnauthorized, "AUTH_FAILED", "Invalid credentials provided").
			WithType("AuthenticationError").
			WithDetails("Username or password is incorrect").
			WithField("ipAddress", "192.168.1.100").
			WithField("attempts", 5).
			WithField("severity", "medium"),
		apierror.New(http.StatusTooManyRequests, "RATE_LIMIT", "API rate limit exceeded").
			WithType("RateLimitError").
			WithDetails("Too many requests in 1 minute window").
			WithField("currentRate", 120).
			WithField("limitPerMinute", 100).
			WithField("severity", "low"),
		apierror.New(http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected internal server error").
			WithType("InternalServerError").
			WithDetails("Unhandled exception in business logic").
			WithField("component", "PaymentProcessor").
			WithField("traceId", fmt.Sprintf("trace-%d", time.Now().UnixMilli())).
			WithField("severity", "critical"),
	)

	var names []string
	for _, e := range multierr.Errors(err) {
		apiErr := apierror.From(e)
		names = append(names, apiErr.Type)
		log.WithFields(apiErr.LogFields()).
			WithField(logfields.Stack, apiErr.Stack()).
			WithError(apiErr).
			Errorf("%s occurred", apiErr.Type)
		s.countApplicationError()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    fmt.Sprintf("Multi-error test complete - %d different error types logged", len(names)),
		"errorTypes": names,
		"note":       "Check Grafana detailed error panel to see these errors",
		"timestamp":  timestamp(),
	})
	return nil
}

// grafanaErrorTest logs a single error with every kind of field.
func (s *Server) grafanaErrorTest(w http.ResponseWriter, r *http.Request) error {
	log.Info("Grafana error test endpoint called")
	usage := memmetrics.ReadUsage()
	memory := make(map[string]uint64, len(usage))
	for typ, v := range usage {
		memory[typ.String()] = v
	}
	err := apierror.New(http.StatusInternalServerError, "GRAFANA_TEST_ERROR", "Test error for Grafana visualization").
		WithDetails("This error contains all possible properties for testing Grafana error visualization").
		WithField("requestId", requestRef()).
		WithField("userId", "test-user-123").
		WithField("sessionId", "sess-456-xyz").
		WithField("severity", "medium").
		WithField("component", "ErrorTestController").
		WithField("method", r.Method).
		WithField("path", r.URL.Path).
		WithField("requestParams", map[string]any{"id": 123, "action": "test"}).
		WithField("headers", map[string]string{"user-agent": r.UserAgent(), "content-type": "application/json"}).
		WithField("validationErrors", []validationError{
			{Field: "username", Message: "Required field missing"},
			{Field: "email", Message: "Invalid email format"},
		}).
		WithField("debugInfo", map[string]any{
			"goVersion":   runtime.Version(),
			"platform":    runtime.GOOS + "/" + runtime.GOARCH,
			"goroutines":  runtime.NumGoroutine(),
			"memoryUsage": memory,
			"uptime":      time.Since(s.start).Seconds(),
		})
	log.WithFields(err.LogFields()).
		WithFields(logrus.Fields{
			logfields.Stack:     err.Stack(),
			logfields.RequestID: RequestIDFromContext(r.Context()),
		}).
		WithError(err).
		Error("Grafana test error generated")
	s.countApplicationError()

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Comprehensive error log created for Grafana testing",
		"instructions": "Open Grafana and go to the \"Detailed Error Logs\" panel to see this error with all its details",
		"timestamp":    timestamp(),
	})
	return nil
}
