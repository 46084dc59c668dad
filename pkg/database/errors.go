package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotConnected is returned when an operation is attempted before a
// successful Connect, or after Close.
var ErrNotConnected = errors.New("database not connected: call Connect first")

// ConnectError reports a connection sequence that exhausted its retries.
type ConnectError struct {
	Attempts int
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("database connection failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// QueryError is the uniform shape all driver-level failures are normalized
// into. Code and the diagnostic fields come from the server when the failure
// is a PostgreSQL error; otherwise Code is "UNKNOWN_ERROR".
type QueryError struct {
	Op       string
	Code     string
	Message  string
	Detail   string
	Hint     string
	Position int32
	Query    string
	Err      error
}

func (e *QueryError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s error: %s (code %s)", e.Op, e.Message, e.Code)
	if e.Detail != "" {
		fmt.Fprintf(&sb, "\ndetail: %s", e.Detail)
	}
	if e.Hint != "" {
		fmt.Fprintf(&sb, "\nhint: %s", e.Hint)
	}
	if e.Position > 0 {
		fmt.Fprintf(&sb, "\nposition: %d", e.Position)
	}
	if e.Query != "" {
		fmt.Fprintf(&sb, "\nquery: %s", e.Query)
	}
	return sb.String()
}

func (e *QueryError) Unwrap() error { return e.Err }

// Normalize converts a driver failure into a *QueryError carrying the
// server diagnostics when available. The original error stays reachable
// through errors.Is/errors.As. Nil errors pass through unchanged.
func Normalize(err error, op, query string) error {
	if err == nil {
		return nil
	}

	qe := &QueryError{
		Op:      op,
		Code:    "UNKNOWN_ERROR",
		Message: err.Error(),
		Query:   query,
		Err:     err,
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		qe.Code = pgErr.Code
		qe.Message = pgErr.Message
		qe.Detail = pgErr.Detail
		qe.Hint = pgErr.Hint
		qe.Position = pgErr.Position
	}

	return qe
}

// uniqueViolation is the PostgreSQL error code for unique-constraint failures.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint violation.
// The constraint at the storage layer is the authoritative duplicate guard;
// callers translate this into their domain conflict error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
