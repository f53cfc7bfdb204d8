// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package server

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cilium/monitoring-poc/pkg/apierror"
	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
	"github.com/cilium/monitoring-poc/pkg/metrics/businessmetrics"
)

const banner = "Monitoring POC v2 - Logging and Metrics System"

func (s *Server) root(w http.ResponseWriter, _ *http.Request) error {
	log.Info("Root endpoint called")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, err := io.WriteString(w, banner)
	if err != nil {
		log.WithError(err).Debug("Failed to write response")
	}
	return nil
}

func (s *Server) success(w http.ResponseWriter, _ *http.Request) error {
	log.Info("Success endpoint called")
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Success response",
		"status":    "OK",
		"timestamp": timestamp(),
	})
	return nil
}

func (s *Server) serverError(w http.ResponseWriter, _ *http.Request) error {
	log.WithField(logfields.Error, "Simulated server error").Error("Error endpoint called")
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"message":   "Error response",
		"error":     "Internal Server Error",
		"timestamp": timestamp(),
	})
	return nil
}

func (s *Server) slow(w http.ResponseWriter, r *http.Request) error {
	log.WithField(logfields.Duration, "2s").Info("Slow endpoint called")
	if err := s.config.Delay.Sleep(r.Context(), 2*time.Second); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Slow response",
		"processingTime": "2 seconds",
		"timestamp":      timestamp(),
	})
	return nil
}

var errTransactionFailed = errors.New("simulated transaction failure")

// businessTransaction runs a simulated transaction of the type given by
// ?type= (order_created by default). It fails with ?fail=true.
func (s *Server) businessTransaction(w http.ResponseWriter, r *http.Request) error {
	typ := businessmetrics.OrderCreated
	if t := r.URL.Query().Get("type"); t != "" {
		typ = businessmetrics.TransactionType(t)
		if !slices.Contains(businessmetrics.TransactionTypes, typ) {
			return apierror.New(http.StatusBadRequest, "INVALID_TRANSACTION_TYPE", "Unknown transaction type").
				WithField("transactionType", t)
		}
	}
	fail := r.URL.Query().Get("fail") == "true"

	run := s.metrics.Business.WithMetrics(typ, func(ctx context.Context) error {
		latency := time.Duration(50+rand.IntN(450)) * time.Millisecond
		if err := s.config.Delay.Sleep(ctx, latency); err != nil {
			return err
		}
		if fail {
			return errTransactionFailed
		}
		return nil
	})
	if err := run(r.Context()); err != nil {
		if errors.Is(err, errTransactionFailed) {
			return apierror.Wrap(err, http.StatusInternalServerError, "TRANSACTION_FAILED").
				WithType("BusinessError").
				WithField("transactionType", string(typ))
		}
		return err
	}

	log.WithFields(logrus.Fields{
		logfields.Transaction: typ,
	}).Info("Business transaction completed")
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Business transaction completed",
		"type":      typ,
		"timestamp": timestamp(),
	})
	return nil
}
