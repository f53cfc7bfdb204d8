// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	err := New(http.StatusServiceUnavailable, "DB_CONN_ERROR", "Database connection failed").
		WithType("DatabaseError").
		WithDetails("Simulated database connection timeout after 5000ms").
		WithQuery("SELECT * FROM users WHERE id = ?", "user_123").
		WithField("requestId", "req-1").
		WithField("validationErrors", []string{"email"}).
		WithField("statusCode", 200).
		WithField("message", "ignored")

	assert.Equal(t, "DB_CONN_ERROR: Database connection failed", err.Error())
	assert.Equal(t, http.StatusServiceUnavailable, err.Status())
	assert.Equal(t, map[string]any{
		"request_id":        "req-1",
		"validation_errors": []string{"email"},
	}, err.Fields())
	assert.Contains(t, err.Stack(), "TestError")

	fields := err.LogFields()
	assert.Equal(t, "DB_CONN_ERROR", fields["code"])
	assert.Equal(t, []any{"user_123"}, fields["params"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "DatabaseError", fields["type"])
}

func TestFrom(t *testing.T) {
	apiErr := New(http.StatusNotFound, CodeNotFound, "Resource not found")
	wrapped := fmt.Errorf("handler: %w", apiErr)
	assert.Same(t, apiErr, From(wrapped))

	plain := errors.New("boom")
	got := From(plain)
	require.NotNil(t, got)
	assert.Equal(t, http.StatusInternalServerError, got.Status())
	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, "boom", got.Message)
	assert.ErrorIs(t, got, plain)
}

func TestStatus(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, New(0, "", "x").Status())
	assert.Equal(t, http.StatusInternalServerError, New(http.StatusOK, "", "x").Status())
	assert.Equal(t, http.StatusBadRequest, New(http.StatusBadRequest, "", "x").Status())
}
