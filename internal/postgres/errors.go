// File path: internal/postgres/errors.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorKind is the closed set of failure classes the executor reports.
// Callers branch on the kind rather than substring-matching backend
// message text.
type ErrorKind int

const (
	// KindExecution covers any backend rejection that is not a timeout or
	// an unreachable store: syntax errors in a malformed rewritten
	// statement, permission errors, and the like.
	KindExecution ErrorKind = iota
	// KindConnection means the backing store was unreachable or refused
	// authentication.
	KindConnection
	// KindTimeout means the statement exceeded the configured server-side
	// statement timeout.
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	default:
		return "execution"
	}
}

// QueryError tags a backend failure with its kind.
type QueryError struct {
	Kind ErrorKind
	Err  error
}

func (e *QueryError) Error() string {
	return e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// KindOf reports the kind carried by err, defaulting to KindExecution for
// untagged errors.
func KindOf(err error) ErrorKind {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return KindExecution
}

// PostgreSQL error code raised when statement_timeout cancels a query.
const queryCanceledCode = "57014"

func connectionError(err error) *QueryError {
	return &QueryError{Kind: KindConnection, Err: fmt.Errorf("database unreachable: %w", err)}
}

func timeoutError(err error, seconds int) *QueryError {
	return &QueryError{
		Kind: KindTimeout,
		Err:  fmt.Errorf("query timed out after %d seconds; try narrowing the query or reducing the data scope: %w", seconds, err),
	}
}

func classify(err error, timeoutSeconds int) *QueryError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == queryCanceledCode {
		return timeoutError(err, timeoutSeconds)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutError(err, timeoutSeconds)
	}
	return &QueryError{Kind: KindExecution, Err: err}
}
