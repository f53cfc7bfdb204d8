// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cilium/monitoring-poc/pkg/logger"
)

func TestGroupInit(t *testing.T) {
	reg := NewRegistry()
	group := NewGroup(reg)

	errorsTotal := group.MustNewCounter(Opts{
		Name: "test_errors_total",
		Help: "Test.",
		ConstrainedLabels: []ConstrainedLabel{
			{Name: "type", Values: []string{"server", "client"}},
			{Name: "retry", Values: []string{"true", "false"}},
		},
	})
	// unconstrained metrics are not initialized
	requests := group.MustNewCounter(Opts{
		Name: "test_requests_total",
		Help: "Test.",
		ConstrainedLabels: []ConstrainedLabel{
			{Name: "method", Values: []string{"GET"}},
		},
		UnconstrainedLabels: []UnconstrainedLabel{
			{Name: "route", ExampleValue: "/"},
		},
	})
	health := group.MustNewGauge(Opts{
		Name: "test_health_status",
		Help: "Test.",
		ConstrainedLabels: []ConstrainedLabel{
			{Name: "component", Values: []string{"application", "server"}},
		},
	})
	group.ExtendInit(func() {
		_ = health.Set(1, "application")
	})

	snapshot := reg.Snapshot()
	require.Len(t, snapshot, 3)
	for _, fs := range snapshot {
		assert.Empty(t, fs.Samples)
	}

	group.Init()
	snapshot = reg.Snapshot()
	var tuples [][]string
	for _, s := range snapshot[0].Samples {
		tuples = append(tuples, s.LabelValues)
		assert.Equal(t, float64(0), s.Value)
	}
	assert.Equal(t, [][]string{
		{"server", "true"}, {"server", "false"},
		{"client", "true"}, {"client", "false"},
	}, tuples)
	assert.Empty(t, snapshot[1].Samples)
	assert.Len(t, snapshot[2].Samples, 2)
	assert.Equal(t, float64(1), health.Value("application"))
	assert.Equal(t, float64(0), health.Value("server"))

	// Init doesn't reset values
	require.NoError(t, errorsTotal.Inc("server", "true"))
	require.NoError(t, requests.Inc("GET", "/"))
	group.Init()
	assert.Equal(t, float64(1), errorsTotal.Value("server", "true"))

	// values outside of the constrained set are accepted
	require.NoError(t, errorsTotal.Inc("database", "false"))
	assert.Equal(t, float64(1), errorsTotal.Value("database", "false"))
}

func TestGroupDuplicate(t *testing.T) {
	reg := NewRegistry()
	group := NewGroup(reg)
	_, err := group.NewGauge(Opts{Name: "test_gauge", Help: "Test."})
	require.NoError(t, err)

	_, err = NewGroup(reg).NewHistogram(HistogramOpts{Opts: Opts{Name: "test_gauge", Help: "Test."}})
	var dupErr *DuplicateNameError
	assert.ErrorAs(t, err, &dupErr)
	assert.Panics(t, func() {
		group.MustNewCounter(Opts{Name: "test_gauge", Help: "Test."})
	})
}

func TestGroupInitLogsErrors(t *testing.T) {
	hook := test.NewLocal(logger.DefaultLogger)
	defer hook.Reset()

	group := NewGroup(NewRegistry())
	opts := Opts{
		Name: "test_errors_total",
		Help: "Test.",
		ConstrainedLabels: []ConstrainedLabel{
			{Name: "type", Values: []string{"server", "client"}},
		},
	}
	var touched [][]string
	group.extendConstrainedInit(&opts, func(lvs []string) error {
		touched = append(touched, lvs)
		return errors.New("touch failed")
	})
	group.Init()

	assert.Equal(t, [][]string{{"server"}, {"client"}}, touched)
	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "Failed to update metric", e.Message)
		assert.EqualError(t, e.Data["error"].(error), "touch failed")
	}
}
