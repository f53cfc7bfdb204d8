// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package businessmetrics

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/consts"
)

var log = logger.GetLogger().WithField(logfields.LogSubsys, "business")

type TransactionType string

const (
	OrderCreated     TransactionType = "order_created"
	OrderProcessed   TransactionType = "order_processed"
	PaymentProcessed TransactionType = "payment_processed"
	UserRegistered   TransactionType = "user_registered"
	UserLogin        TransactionType = "user_login"
)

var TransactionTypes = []TransactionType{
	OrderCreated, OrderProcessed, PaymentProcessed, UserRegistered, UserLogin,
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusPending Status = "pending"
)

var Statuses = []Status{StatusSuccess, StatusError, StatusPending}

func labelValues[T ~string](values []T) []string {
	ret := make([]string, 0, len(values))
	for _, v := range values {
		ret = append(ret, string(v))
	}
	return ret
}

var (
	typeLabel   = metrics.ConstrainedLabel{Name: "type", Values: labelValues(TransactionTypes)}
	statusLabel = metrics.ConstrainedLabel{Name: "status", Values: labelValues(Statuses)}
)

type Metrics struct {
	TransactionsTotal   *metrics.Counter
	TransactionDuration *metrics.Histogram
}

func NewMetrics(group *metrics.Group) (*Metrics, error) {
	total, err := group.NewCounter(metrics.NewOpts(
		consts.MetricsNamespace, "business", "transactions_total",
		"Total number of business transactions",
		[]metrics.ConstrainedLabel{typeLabel, statusLabel}, nil,
	))
	if err != nil {
		return nil, err
	}
	duration, err := group.NewHistogram(metrics.HistogramOpts{
		Opts: metrics.NewOpts(
			consts.MetricsNamespace, "business", "transaction_duration_seconds",
			"Duration of business transactions in seconds",
			[]metrics.ConstrainedLabel{typeLabel, statusLabel}, nil,
		),
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
	})
	if err != nil {
		return nil, err
	}
	return &Metrics{
		TransactionsTotal:   total,
		TransactionDuration: duration,
	}, nil
}

// TrackTransaction records a finished transaction and logs it together with
// the given fields.
func (m *Metrics) TrackTransaction(typ TransactionType, status Status, d time.Duration, fields logrus.Fields) {
	metrics.LogUpdateError(m.TransactionsTotal.Inc(string(typ), string(status)))
	metrics.SafeObserve(m.TransactionDuration, []string{string(typ), string(status)}, d)

	log.WithFields(fields).WithFields(logrus.Fields{
		logfields.Transaction: string(typ),
		logfields.Status:      string(status),
		logfields.Duration:    d.Seconds(),
	}).Info("Business transaction")
}

// WithMetrics wraps fn so that every call is tracked as a transaction of the
// given type. The status is StatusError if fn fails.
func (m *Metrics) WithMetrics(typ TransactionType, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		start := time.Now()
		err := fn(ctx)
		status := StatusSuccess
		var fields logrus.Fields
		if err != nil {
			status = StatusError
			fields = logrus.Fields{logfields.Error: err.Error()}
		}
		m.TrackTransaction(typ, status, time.Since(start), fields)
		return err
	}
}

// StartMeasuring starts a transaction of the given type. Calling the returned
// function tracks it, and returns its duration.
func (m *Metrics) StartMeasuring(typ TransactionType) func(status Status, fields logrus.Fields) time.Duration {
	start := time.Now()
	return func(status Status, fields logrus.Fields) time.Duration {
		d := time.Since(start)
		m.TrackTransaction(typ, status, d, fields)
		return d
	}
}
