// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package logfields

const (
	// LogSubsys is the field denoting the subsystem when logging
	LogSubsys = "subsys"

	// Error is the Go error
	Error = "error"

	// Service is the application name attached to every entry
	Service = "service"

	// Environment is the deployment environment (development, production)
	Environment = "environment"

	// Metric is the fully-qualified name of a metric
	Metric = "metric"

	// Labels are the label values of a metric update
	Labels = "labels"

	// Value is a raw value passed to a metric
	Value = "value"

	// ValueType is the Go type of Value
	ValueType = "value_type"

	// Panic is a recovered panic value
	Panic = "panic"

	RequestID = "request_id"
	Method    = "method"
	Route     = "route"
	Path      = "path"
	Status    = "status"
	Duration  = "duration"
	ClientIP  = "client_ip"
	UserAgent = "user_agent"

	// Code is an application or vendor error code
	Code = "code"

	Stack = "stack"

	// Query and Params describe a simulated database query
	Query  = "query"
	Params = "params"

	Component   = "component"
	Transaction = "transaction"
	Address     = "address"
)
