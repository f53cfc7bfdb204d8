// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cilium/monitoring-poc/cmd/pocctl/common"
	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/config"
)

func newTestMetrics(t *testing.T) *config.AllMetrics {
	t.Helper()
	all, err := config.InitAllMetrics(metrics.NewRegistry(), config.Options{})
	require.NoError(t, err)
	require.NoError(t, all.HTTP.RequestsTotal.Inc("GET", "/success", "200"))
	require.NoError(t, all.HTTP.RequestDuration.Observe(0.2, "GET", "/success", "200"))
	return all
}

func TestPrint(t *testing.T) {
	color.NoColor = true
	all := newTestMetrics(t)
	srv := httptest.NewServer(metrics.Handler(all.Registry))
	defer srv.Close()
	c, err := common.NewClient(strings.TrimPrefix(srv.URL, "http://"), time.Second, 0)
	require.NoError(t, err)

	families, err := scrape(context.Background(), c)
	require.NoError(t, err)
	require.Contains(t, families, "http_requests_total")
	require.Contains(t, families, "app_build_info")

	families = filterFamilies(families, []string{"http_requests", "http_request_duration"})
	assert.Len(t, families, 2)

	var text bytes.Buffer
	printText(&text, families)
	assert.Contains(t, text.String(), "http_requests_total (counter) Total number of HTTP requests\n")
	assert.Contains(t, text.String(), `  {method="GET",route="/success",status="200"} 1`)
	assert.Contains(t, text.String(), `  {method="GET",route="/success",status="200"} count=1 sum=0.2`)

	var out bytes.Buffer
	require.NoError(t, printJSON(&out, families))
	var decoded []jsonFamily
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "http_request_duration_seconds", decoded[0].Name)
	assert.Equal(t, "histogram", decoded[0].Type)
	require.Len(t, decoded[0].Samples, 1)
	assert.Equal(t, uint64(1), *decoded[0].Samples[0].Count)
	assert.Equal(t, "http_requests_total", decoded[1].Name)
	assert.Equal(t, float64(1), *decoded[1].Samples[0].Value)
	assert.Equal(t, "/success", decoded[1].Samples[0].Labels["route"])
}

func TestGenerateDocs(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, generateDocs(&out))
	docs := out.String()

	assert.Contains(t, docs, "## `http_requests_total`\n\nTotal number of HTTP requests\n\n")
	assert.Contains(t, docs, "## `system_health_status`")
	assert.Contains(t, docs, "## `app_build_info`")
	assert.Contains(t, docs, "931b70f2c9878ba985ba6b589827bea17da6ec33")
	assert.Contains(t, docs, "| `component` |")
}
