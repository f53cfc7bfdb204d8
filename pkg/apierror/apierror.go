// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package apierror implements the structured errors returned by HTTP
// handlers. Besides the HTTP status and an application code, an Error carries
// an open set of extra fields which are added to logs and, outside of
// production, to error responses.
package apierror

import (
	"errors"
	"fmt"
	"maps"
	"net/http"

	"github.com/iancoleman/strcase"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
)

// Codes used by the application.
const (
	CodeInternal = "INTERNAL_ERROR"
	CodeNotFound = "NOT_FOUND"
)

// reservedFields can't be set as extra fields, since they are first-class
// members of Error.
var reservedFields = map[string]struct{}{
	"message":     {},
	"stack":       {},
	"code":        {},
	"details":     {},
	"status_code": {},
	"query":       {},
	"params":      {},
	"type":        {},
}

type Error struct {
	// Type is the kind of error, e.g. DatabaseError
	Type       string
	Message    string
	Code       string
	Details    string
	StatusCode int
	Query      string
	Params     []any

	fields map[string]any
	cause  error
}

// New returns an error with a stack trace recorded at the call site.
func New(statusCode int, code, message string) *Error {
	return &Error{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		cause:      pkgerrors.New(message),
	}
}

// Wrap returns an error wrapping err, recording a stack trace at the call
// site.
func Wrap(err error, statusCode int, code string) *Error {
	return &Error{
		Message:    err.Error(),
		Code:       code,
		StatusCode: statusCode,
		cause:      pkgerrors.WithStack(err),
	}
}

// From returns err as an *Error. Errors which aren't are wrapped as internal
// server errors.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Wrap(err, http.StatusInternalServerError, CodeInternal)
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) WithType(typ string) *Error {
	e.Type = typ
	return e
}

func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

func (e *Error) WithQuery(query string, params ...any) *Error {
	e.Query = query
	e.Params = params
	return e
}

// WithField sets an extra field. The key is converted to snake_case. Keys of
// first-class members (message, code, ...) are ignored.
func (e *Error) WithField(key string, value any) *Error {
	key = strcase.ToSnake(key)
	if _, ok := reservedFields[key]; ok {
		return e
	}
	if e.fields == nil {
		e.fields = make(map[string]any)
	}
	e.fields[key] = value
	return e
}

// Fields returns a copy of the extra fields.
func (e *Error) Fields() map[string]any {
	return maps.Clone(e.fields)
}

// Status returns the HTTP status of the error, 500 if it isn't set.
func (e *Error) Status() int {
	if e.StatusCode < 400 || e.StatusCode > 599 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// Stack returns the stack trace recorded when the error was created.
func (e *Error) Stack() string {
	if e.cause == nil {
		return ""
	}
	return fmt.Sprintf("%+v", e.cause)
}

// LogFields returns the fields to log the error with.
func (e *Error) LogFields() logrus.Fields {
	fields := logrus.Fields{
		logfields.Status: e.Status(),
	}
	if e.Type != "" {
		fields["type"] = e.Type
	}
	if e.Code != "" {
		fields[logfields.Code] = e.Code
	}
	if e.Details != "" {
		fields["details"] = e.Details
	}
	if e.Query != "" {
		fields[logfields.Query] = e.Query
		fields[logfields.Params] = e.Params
	}
	for k, v := range e.fields {
		fields[k] = v
	}
	return fields
}
