// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

//go:build !windows

package server

import (
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitListenAddr(t *testing.T) {
	type testCase struct {
		arg string

		expectedErr bool
		proto, addr string
	}
	testCases := []testCase{
		{
			arg:   "unix:///var/run/monitoring-poc/monitoring-poc.sock",
			proto: "unix",
			addr:  "/var/run/monitoring-poc/monitoring-poc.sock",
		}, {
			arg:   "localhost:3000",
			proto: "tcp",
			addr:  "localhost:3000",
		}, {
			arg:   "localhost",
			proto: "tcp",
			addr:  "localhost:3000",
		}, {
			// NB: expect error on relative paths
			arg:         "unix://var/run/monitoring-poc/monitoring-poc.sock",
			expectedErr: true,
		},
	}

	for _, c := range testCases {
		proto, addr, err := SplitListenAddr(c.arg)
		if c.expectedErr {
			assert.Error(t, err, c.arg)
			continue
		}
		require.NoError(t, err, c.arg)
		assert.Equal(t, c.proto, proto, c.arg)
		assert.Equal(t, c.addr, addr, c.arg)
	}
}

func TestDialURL(t *testing.T) {
	for arg, expected := range map[string]string{
		"localhost:3000": "http://localhost:3000",
		":3000":          "http://localhost:3000",
		"127.0.0.1":      "http://127.0.0.1:3000",
	} {
		url, unix, err := DialURL(arg)
		require.NoError(t, err, arg)
		assert.False(t, unix, arg)
		assert.Equal(t, expected, url, arg)
	}

	url, unix, err := DialURL("unix:///run/poc.sock")
	require.NoError(t, err)
	assert.True(t, unix)
	assert.Equal(t, "http://unix", url)
}

func TestNewClientUnix(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "poc.sock")
	listener, err := net.Listen("unix", sock)
	require.NoError(t, err)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.URL.Path)
	})}
	go srv.Serve(listener)
	defer srv.Close()

	client, url, err := NewClient("unix://"+sock, time.Second)
	require.NoError(t, err)
	resp, err := client.Get(url + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "/health", string(body))
}
