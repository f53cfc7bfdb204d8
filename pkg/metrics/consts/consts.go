// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package consts

// MetricsNamespace is empty: application metrics keep their historical,
// unprefixed names (http_requests_total, app_errors_total, ...).
const MetricsNamespace = ""

// ProcessMetricsPrefix is prepended to the default Go and process metrics.
const ProcessMetricsPrefix = "app_"

var (
	ExampleMethod      = "GET"
	ExampleRoute       = "/success"
	ExampleStatus      = "200"
	ExampleIP          = "192.0.2.1"
	ExampleEntity      = "users"
	ExampleSubcategory = "connection"
	ExampleCode        = "ECONNREFUSED"
)

// HTTPMethods are the methods for which per-method metrics are initialized.
var HTTPMethods = []string{"GET", "POST", "PUT", "DELETE"}
