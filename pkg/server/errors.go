// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cilium/monitoring-poc/pkg/apierror"
	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
)

const codeRequestCancelled = "REQUEST_CANCELLED"

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Error("Failed to encode response")
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		log.WithError(err).Debug("Failed to write response")
	}
}

func toAPIError(err error) *apierror.Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		var apiErr *apierror.Error
		if !errors.As(err, &apiErr) {
			return apierror.Wrap(err, http.StatusServiceUnavailable, codeRequestCancelled)
		}
	}
	return apierror.From(err)
}

// writeError is the error handler of all the routes. It logs err and writes
// it as JSON. Outside of production the response also has the stack trace,
// the query and the extra fields of the error.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	status := apiErr.Status()

	entry := log.WithFields(apiErr.LogFields()).WithFields(logrus.Fields{
		logfields.RequestID: RequestIDFromContext(r.Context()),
		logfields.Method:    r.Method,
		logfields.Path:      r.URL.Path,
	}).WithError(err)
	switch {
	case apiErr.Code == codeRequestCancelled:
		entry.Debug("Request cancelled")
	case status >= http.StatusInternalServerError:
		entry.WithField(logfields.Stack, apiErr.Stack()).Error("Global error handler")
	default:
		entry.Warn("Request failed")
	}

	resp := make(map[string]any)
	if !s.production() {
		for k, v := range apiErr.Fields() {
			resp[k] = v
		}
		resp["stack"] = apiErr.Stack()
		if apiErr.Query != "" {
			resp["query"] = apiErr.Query
			resp["params"] = apiErr.Params
		}
	}
	resp["error"] = apiErr.Message
	if apiErr.Message == "" {
		resp["error"] = http.StatusText(status)
	}
	if apiErr.Code != "" {
		resp["code"] = apiErr.Code
	}
	if apiErr.Details != "" {
		resp["details"] = apiErr.Details
	}
	resp["statusCode"] = status
	resp["path"] = r.URL.Path
	resp["timestamp"] = timestamp()
	writeJSON(w, status, resp)
}
