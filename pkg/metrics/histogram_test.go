// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogramBuckets(t *testing.T) {
	reg := NewRegistry()
	h, err := reg.NewHistogram(HistogramOpts{
		Opts:    Opts{Name: "test_size_bytes", Help: "Test."},
		Buckets: []float64{100, 1000, 10000},
	})
	require.NoError(t, err)

	// a value equal to a boundary belongs to that bucket
	for _, v := range []float64{0, 100, 101, 1000, 50000} {
		require.NoError(t, h.Observe(v))
	}

	s, ok := h.Sample()
	require.True(t, ok)
	expected := []Bucket{
		{UpperBound: 100, CumulativeCount: 2},
		{UpperBound: 1000, CumulativeCount: 4},
		{UpperBound: 10000, CumulativeCount: 4},
	}
	if diff := cmp.Diff(expected, s.Buckets); diff != "" {
		t.Errorf("unexpected buckets (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint64(5), s.Count)
	assert.Equal(t, float64(51201), s.Sum)
}

func TestHistogramRejectsNonFinite(t *testing.T) {
	reg := NewRegistry()
	h := reg.MustRegister(sampleHistogramDef).(*Histogram)

	var valueErr *InvalidValueError
	assert.ErrorAs(t, h.Observe(math.NaN(), "GET"), &valueErr)
	assert.ErrorAs(t, h.Observe(math.Inf(1), "GET"), &valueErr)
	assert.ErrorAs(t, h.Observe(math.Inf(-1), "GET"), &valueErr)
	_, ok := h.Sample("GET")
	assert.False(t, ok)

	var arityErr *LabelArityError
	assert.ErrorAs(t, h.Observe(1), &arityErr)
}

func TestHistogramInvariants(t *testing.T) {
	reg := NewRegistry()
	h, err := reg.NewHistogram(HistogramOpts{
		Opts:    Opts{Name: "test_seconds", Help: "Test."},
		Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10},
	})
	require.NoError(t, err)

	rnd := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 10000; i++ {
		require.NoError(t, h.Observe(rnd.ExpFloat64()))
	}

	s, ok := h.Sample()
	require.True(t, ok)
	require.NoError(t, s.Validate())
	for i := 1; i < len(s.Buckets); i++ {
		assert.LessOrEqual(t, s.Buckets[i-1].CumulativeCount, s.Buckets[i].CumulativeCount)
	}
	assert.LessOrEqual(t, s.Buckets[len(s.Buckets)-1].CumulativeCount, s.Count)
	assert.Equal(t, uint64(10000), s.Count)
}

func TestHistogramSampleValidate(t *testing.T) {
	s := HistogramSample{
		Buckets: []Bucket{{UpperBound: 1, CumulativeCount: 3}, {UpperBound: 2, CumulativeCount: 2}},
		Count:   3,
	}
	assert.Error(t, s.Validate())

	s = HistogramSample{
		Buckets: []Bucket{{UpperBound: 1, CumulativeCount: 1}, {UpperBound: 2, CumulativeCount: 4}},
		Count:   3,
	}
	assert.Error(t, s.Validate())

	s = HistogramSample{
		Buckets: []Bucket{{UpperBound: 1, CumulativeCount: 1}, {UpperBound: 2, CumulativeCount: 2}},
		Count:   3,
	}
	assert.NoError(t, s.Validate())
}
