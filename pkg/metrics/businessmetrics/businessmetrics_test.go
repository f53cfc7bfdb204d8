// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package businessmetrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
	"github.com/cilium/monitoring-poc/pkg/metrics"
)

func newTestMetrics(t *testing.T) *Metrics {
	group := metrics.NewGroup(metrics.NewRegistry())
	m, err := NewMetrics(group)
	require.NoError(t, err)
	group.Init()
	return m
}

func TestTrackTransaction(t *testing.T) {
	hook := test.NewLocal(logger.DefaultLogger)
	defer hook.Reset()
	m := newTestMetrics(t)

	// every type and status is initialized
	assert.Equal(t, float64(0), m.TransactionsTotal.Value("user_login", "pending"))

	m.TrackTransaction(OrderCreated, StatusSuccess, 250*time.Millisecond, logrus.Fields{"order_id": "ORD-1"})
	assert.Equal(t, float64(1), m.TransactionsTotal.Value("order_created", "success"))
	s, ok := m.TransactionDuration.Sample("order_created", "success")
	require.True(t, ok)
	assert.Equal(t, uint64(1), s.Count)
	assert.InDelta(t, 0.25, s.Sum, 1e-9)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Business transaction", entry.Message)
	assert.Equal(t, "ORD-1", entry.Data["order_id"])
	assert.Equal(t, "order_created", entry.Data[logfields.Transaction])
	assert.Equal(t, "success", entry.Data[logfields.Status])
}

func TestWithMetrics(t *testing.T) {
	m := newTestMetrics(t)
	boom := errors.New("card declined")

	ok := m.WithMetrics(PaymentProcessed, func(context.Context) error { return nil })
	fail := m.WithMetrics(PaymentProcessed, func(context.Context) error { return boom })

	require.NoError(t, ok(context.Background()))
	require.ErrorIs(t, fail(context.Background()), boom)
	require.ErrorIs(t, fail(context.Background()), boom)

	assert.Equal(t, float64(1), m.TransactionsTotal.Value("payment_processed", "success"))
	assert.Equal(t, float64(2), m.TransactionsTotal.Value("payment_processed", "error"))
}

func TestStartMeasuring(t *testing.T) {
	m := newTestMetrics(t)

	done := m.StartMeasuring(UserRegistered)
	time.Sleep(10 * time.Millisecond)
	d := done(StatusPending, nil)

	assert.GreaterOrEqual(t, d, 10*time.Millisecond)
	assert.Equal(t, float64(1), m.TransactionsTotal.Value("user_registered", "pending"))
	s, ok := m.TransactionDuration.Sample("user_registered", "pending")
	require.True(t, ok)
	assert.InDelta(t, d.Seconds(), s.Sum, 1e-9)
}
