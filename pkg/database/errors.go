// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package database

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cilium/monitoring-poc/pkg/apierror"
	"github.com/cilium/monitoring-poc/pkg/metrics/errormetrics"
)

const errorType = "DatabaseError"

// ErrorKind is a simulated database failure.
type ErrorKind string

const (
	ConnectionError    ErrorKind = "db-error"
	TableNotFound      ErrorKind = "ora-00942"
	SyntaxError        ErrorKind = "syntax-error"
	Deadlock           ErrorKind = "deadlock"
	TempSpaceExhausted ErrorKind = "ora-01652"
	ForeignKeyError    ErrorKind = "foreign-key"
)

// ErrorKinds are the simulated failures, in the order they are documented.
var ErrorKinds = []ErrorKind{
	ConnectionError,
	TableNotFound,
	SyntaxError,
	Deadlock,
	TempSpaceExhausted,
	ForeignKeyError,
}

type errorProfile struct {
	status      int
	code        string
	subcategory string
	message     string
	details     string
	query       string
	params      []any
	delay       time.Duration
}

var errorProfiles = map[ErrorKind]errorProfile{
	ConnectionError: {
		status:      http.StatusInternalServerError,
		code:        "DB_CONN_ERROR",
		subcategory: "connection",
		message:     "Database connection error",
		details:     "Simulated database connection timeout after 5000ms",
		query:       "SELECT * FROM users WHERE id = ?",
		params:      []any{"user_123"},
		delay:       time.Second,
	},
	TableNotFound: {
		status:      http.StatusInternalServerError,
		code:        "ORA-00942",
		subcategory: "schema",
		message:     "ORA-00942: table or view does not exist",
		details:     "The table USER_PROFILES referenced by the query does not exist in schema APP",
		query:       "SELECT * FROM user_profiles WHERE user_id = :1",
		params:      []any{42},
		delay:       100 * time.Millisecond,
	},
	SyntaxError: {
		status:      http.StatusInternalServerError,
		code:        "SQL_SYNTAX_ERROR",
		subcategory: "syntax",
		message:     "SQL syntax error near 'FORM'",
		details:     "The statement could not be parsed",
		query:       "SELECT id, name FORM users WHERE id = ?",
		params:      []any{7},
		delay:       50 * time.Millisecond,
	},
	Deadlock: {
		status:      http.StatusInternalServerError,
		code:        "ORA-00060",
		subcategory: "concurrency",
		message:     "ORA-00060: deadlock detected while waiting for resource",
		details:     "Transaction rolled back after a lock wait cycle on table POSTS",
		query:       "UPDATE posts SET title = ? WHERE id = ?",
		params:      []any{"Updated title", 12},
		delay:       500 * time.Millisecond,
	},
	TempSpaceExhausted: {
		status:      http.StatusInternalServerError,
		code:        "ORA-01652",
		subcategory: "resource",
		message:     "ORA-01652: unable to extend temp segment by 128 in tablespace TEMP",
		details:     "The sort for the aggregation exceeded the temporary tablespace",
		query:       "SELECT user_id, COUNT(*) FROM comments GROUP BY user_id ORDER BY 2 DESC",
		delay:       300 * time.Millisecond,
	},
	ForeignKeyError: {
		status:      http.StatusConflict,
		code:        "ORA-02291",
		subcategory: "constraint",
		message:     "ORA-02291: integrity constraint (APP.FK_POSTS_USER) violated - parent key not found",
		details:     "No user with id 9999 exists",
		query:       "INSERT INTO posts (user_id, title) VALUES (?, ?)",
		params:      []any{9999, "Orphan post"},
		delay:       100 * time.Millisecond,
	},
}

// UnknownErrorKindError is returned for failures that can't be simulated.
type UnknownErrorKindError struct {
	Kind ErrorKind
}

func (e *UnknownErrorKindError) Error() string {
	return fmt.Sprintf("unknown database error kind %q", string(e.Kind))
}

func newError(kind ErrorKind, prof errorProfile) *apierror.Error {
	return apierror.New(prof.status, prof.code, prof.message).
		WithType(errorType).
		WithDetails(prof.details).
		WithQuery(prof.query, prof.params...).
		WithField("error_kind", string(kind)).
		WithField("timestamp", time.Now().UTC().Format(time.RFC3339Nano))
}

func trackError(em *errormetrics.Metrics, prof errorProfile) {
	if em == nil {
		return
	}
	em.TrackDetailedError(errormetrics.DatabaseError.String(), prof.subcategory, prof.code)
}
