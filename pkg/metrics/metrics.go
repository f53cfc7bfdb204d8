// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
)

// Handler serves the text exposition of reg on GET (and HEAD). The whole
// output is rendered before anything is written, so a render failure results
// in a 500 instead of a truncated body.
func Handler(reg *Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		var buf bytes.Buffer
		if err := reg.Render(&buf); err != nil {
			logger.GetLogger().WithFields(logrus.Fields{
				logfields.Path:   r.URL.Path,
				logfields.Metric: renderErrorMetric(err),
			}).WithError(err).Error("Error generating metrics")
			http.Error(w, "Error generating metrics", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := buf.WriteTo(w); err != nil {
			logger.GetLogger().WithError(err).Debug("Failed to write metrics response")
		}
	})
}

func renderErrorMetric(err error) string {
	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		return renderErr.Metric
	}
	return ""
}

// EnableMetrics starts a dedicated metrics server on address, separate from
// the application listener. Unlike Handler it negotiates the exposition
// format with the scraper (text, OpenMetrics or protobuf). It blocks until ctx
// is cancelled or the server fails.
func EnableMetrics(ctx context.Context, address string, reg *Registry) error {
	log := logger.GetLogger().WithField(logfields.Address, address)
	log.Info("Starting metrics server")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog:      log,
		ErrorHandling: promhttp.HTTPErrorOnError,
	}))
	srv := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("Stopping metrics server")
		return srv.Shutdown(shutdownCtx)
	}
}
