// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package load

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/cilium/monitoring-poc/cmd/pocctl/common"
)

func TestRun(t *testing.T) {
	var (
		inFlight    atomic.Int32
		maxInFlight atomic.Int32
	)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /success", func(w http.ResponseWriter, _ *http.Request) {
		n := inFlight.Inc()
		defer inFlight.Dec()
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /errors/500", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c, err := common.NewClient(strings.TrimPrefix(srv.URL, "http://"), time.Second, 0)
	require.NoError(t, err)

	s, err := Run(context.Background(), c, []string{"/success", "/errors/500", "/nope"}, 30, 4)
	require.NoError(t, err)
	assert.Equal(t, 30, s.Requests)
	assert.Equal(t, int64(0), s.Failed)
	assert.Equal(t, map[int]int{200: 10, 404: 10, 500: 10}, s.Statuses)
	assert.LessOrEqual(t, maxInFlight.Load(), int32(4))
	assert.LessOrEqual(t, s.Mean, s.Max)

	var out bytes.Buffer
	s.PrettyPrint(&out)
	assert.Contains(t, out.String(), "Requests:       30\n")
	assert.Contains(t, out.String(), "  200: 10\n  404: 10\n  500: 10\n")
	assert.NotContains(t, out.String(), "Failed")
}

func TestRunInvalid(t *testing.T) {
	c, err := common.NewClient("localhost:3000", time.Second, 0)
	require.NoError(t, err)

	_, err = Run(context.Background(), c, nil, 10, 1)
	assert.Error(t, err)
	_, err = Run(context.Background(), c, []string{"/"}, 0, 1)
	assert.Error(t, err)
	_, err = Run(context.Background(), c, []string{"/"}, 1, 0)
	assert.Error(t, err)
}
