// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package errormetrics

import (
	"maps"
	"slices"

	"github.com/spf13/cast"

	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/consts"
)

type ErrorType int

const (
	// A response with a 5xx status code
	ServerError ErrorType = iota
	// A response with a 4xx status code
	ClientError
	// A failed (simulated) database query
	DatabaseError
	// An error logged by the application without affecting the response
	ApplicationError
)

var errorTypeLabelValues = map[ErrorType]string{
	ServerError:      "server",
	ClientError:      "client",
	DatabaseError:    "database",
	ApplicationError: "application",
}

func (e ErrorType) String() string {
	return errorTypeLabelValues[e]
}

// ForStatus returns the error type of an HTTP status code, and false if the
// status code isn't an error.
func ForStatus(status int) (ErrorType, bool) {
	switch {
	case status >= 500:
		return ServerError, true
	case status >= 400:
		return ClientError, true
	}
	return 0, false
}

var (
	// Constrained label for error type
	errorTypeLabel = metrics.ConstrainedLabel{
		Name:   "type",
		Values: slices.Sorted(maps.Values(errorTypeLabelValues)),
	}
)

type Metrics struct {
	ErrorTotal   *metrics.Counter
	ErrorDetails *metrics.Counter
}

func NewMetrics(group *metrics.Group) (*Metrics, error) {
	errorTotal, err := group.NewCounter(metrics.NewOpts(
		consts.MetricsNamespace, "", "app_errors_total",
		"Total number of errors",
		[]metrics.ConstrainedLabel{errorTypeLabel}, nil,
	))
	if err != nil {
		return nil, err
	}
	errorDetails, err := group.NewCounter(metrics.NewOpts(
		consts.MetricsNamespace, "", "error_details_total",
		"Detailed breakdown of errors by category and subcategory",
		nil, []metrics.UnconstrainedLabel{
			{Name: "category", ExampleValue: DatabaseError.String()},
			{Name: "subcategory", ExampleValue: consts.ExampleSubcategory},
			{Name: "code", ExampleValue: consts.ExampleCode},
		},
	))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		ErrorTotal:   errorTotal,
		ErrorDetails: errorDetails,
	}, nil
}

// ErrorTotalInc increments app_errors_total for an ErrorType.
func (m *Metrics) ErrorTotalInc(er ErrorType) {
	metrics.LogUpdateError(m.ErrorTotal.Inc(er.String()))
}

// TrackError increments app_errors_total for an arbitrary error type.
func (m *Metrics) TrackError(typ string) {
	metrics.LogUpdateError(m.ErrorTotal.Inc(typ))
}

// TrackDetailedError increments error_details_total, and app_errors_total
// using category as the error type. code is stringified, so both vendor codes
// ("ORA-00942") and numeric ones are accepted.
func (m *Metrics) TrackDetailedError(category, subcategory string, code any) {
	metrics.LogUpdateError(m.ErrorDetails.Inc(category, subcategory, cast.ToString(code)))
	m.TrackError(category)
}
