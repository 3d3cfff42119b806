// File path: internal/postgres/executor.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/floatchat/floatchat/internal/common"
	"github.com/floatchat/floatchat/internal/sqltext"
)

const (
	// DefaultTimeout matches the aggressive statement timeout the chat
	// pipeline runs under.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxRows bounds how many rows a chat-originated statement may
	// return.
	DefaultMaxRows = 200
)

// Policy fixes the execution bounds for one statement. It is set before
// execution begins and never mutated mid-flight.
type Policy struct {
	Timeout time.Duration
	MaxRows int
}

func (p Policy) normalized() Policy {
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}
	if p.MaxRows <= 0 {
		p.MaxRows = DefaultMaxRows
	}
	return p
}

// Row maps column names to scalar values.
type Row map[string]any

// ResultSet is the shaped outcome of one executed statement. An empty
// ResultSet is a valid result, distinct from an execution error.
type ResultSet struct {
	Columns []string
	Rows    []Row
	Elapsed time.Duration
}

// Count returns the number of materialized rows.
func (r *ResultSet) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Executor runs statements through the per-worker connection cache under a
// server-side statement timeout.
type Executor struct {
	cache *Cache
}

// NewExecutor wraps a connection cache.
func NewExecutor(cache *Cache) *Executor {
	return &Executor{cache: cache}
}

// Execute runs a single statement for the given worker identity. The
// statement is bounded twice: the gateway's guard has already injected a
// row cap where one was missing, and Execute independently applies its own
// bound so an unbounded scan requires both layers to fail. Failures
// are returned as tagged QueryErrors; an empty result is not a failure.
func (e *Executor) Execute(ctx context.Context, worker, stmt string, policy Policy) (*ResultSet, error) {
	logger := common.Logger()
	policy = policy.normalized()
	timeoutSeconds := int(policy.Timeout / time.Second)

	// Second, independent bounding layer with its own looser skip list.
	stmt = sqltext.CapRows(stmt, policy.MaxRows)

	conn, release, err := e.cache.Acquire(ctx, worker)
	if err != nil {
		return nil, connectionError(err)
	}
	defer release()

	if err := conn.Exec(ctx, fmt.Sprintf("SET statement_timeout = %d", policy.Timeout/time.Millisecond)); err != nil {
		e.invalidateIfBroken(worker, conn)
		return nil, classify(err, timeoutSeconds)
	}

	start := time.Now()
	rows, err := conn.Query(ctx, stmt)
	if err != nil {
		e.invalidateIfBroken(worker, conn)
		return nil, classify(err, timeoutSeconds)
	}
	defer rows.Close()

	result := &ResultSet{Columns: rows.Columns()}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			e.invalidateIfBroken(worker, conn)
			return nil, classify(err, timeoutSeconds)
		}
		row := make(Row, len(result.Columns))
		for i, col := range result.Columns {
			if i < len(values) {
				row[col] = values[i]
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		e.invalidateIfBroken(worker, conn)
		return nil, classify(err, timeoutSeconds)
	}
	result.Elapsed = time.Since(start)
	logger.Info("postgres: statement executed", "worker", worker, "rows", result.Count(), "elapsed", result.Elapsed)
	return result, nil
}

// invalidateIfBroken drops the worker's cached session when the underlying
// connection reports itself closed after a failure.
func (e *Executor) invalidateIfBroken(worker string, conn Conn) {
	if conn.IsClosed() {
		common.Logger().Warn("postgres: session broken, invalidating cached handle", "worker", worker)
		e.cache.Invalidate(worker)
	}
}
