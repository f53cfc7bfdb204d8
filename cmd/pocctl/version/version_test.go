// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cilium/monitoring-poc/cmd/pocctl/common"
)

func newTestClient(t *testing.T, body string) *common.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	c, err := common.NewClient(strings.TrimPrefix(srv.URL, "http://"), time.Second, 0)
	require.NoError(t, err)
	return c
}

func TestServerVersion(t *testing.T) {
	c := newTestClient(t, "# HELP http_requests_total Total number of HTTP requests\n# TYPE http_requests_total counter\n")
	_, err := serverVersion(context.Background(), c)
	assert.ErrorContains(t, err, "does not expose app_build_info")

	c = newTestClient(t, `# HELP app_build_info Build information about the application
# TYPE app_build_info gauge
app_build_info{commit="abc",go_version="go1.23.0",modified="false",time="",version="v2.0.0"} 1
`)
	v, err := serverVersion(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "v2.0.0", v)
}
