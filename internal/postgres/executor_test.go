// File path: internal/postgres/executor_test.go
package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestExecuteShapesResult(t *testing.T) {
	conn := &fakeConn{rows: &fakeRows{
		columns: []string{"platform_number", "temperature_c"},
		values:  [][]any{{"2901506", 28.4}, {"2901507", 27.9}},
	}}
	cache := NewCache((&fakeDialer{conns: []*fakeConn{conn}}).dial)
	exec := NewExecutor(cache)

	result, err := exec.Execute(context.Background(), "w1", "SELECT platform_number, temperature_c FROM argo_data LIMIT 2", Policy{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Count() != 2 {
		t.Fatalf("expected 2 rows, got %d", result.Count())
	}
	if len(result.Columns) != 2 || result.Columns[0] != "platform_number" {
		t.Fatalf("unexpected columns: %v", result.Columns)
	}
	if result.Rows[0]["temperature_c"] != 28.4 {
		t.Fatalf("unexpected row shaping: %+v", result.Rows[0])
	}
	if len(conn.execs) != 1 || !strings.HasPrefix(conn.execs[0], "SET statement_timeout = ") {
		t.Fatalf("expected statement timeout to be set, got %v", conn.execs)
	}
}

func TestExecuteSetsPolicyTimeout(t *testing.T) {
	conn := &fakeConn{}
	cache := NewCache((&fakeDialer{conns: []*fakeConn{conn}}).dial)
	exec := NewExecutor(cache)

	if _, err := exec.Execute(context.Background(), "w1", "SELECT 1", Policy{Timeout: 3 * time.Second}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if conn.execs[0] != "SET statement_timeout = 3000" {
		t.Fatalf("unexpected timeout statement: %q", conn.execs[0])
	}
}

func TestExecuteAppliesIndependentBound(t *testing.T) {
	conn := &fakeConn{}
	cache := NewCache((&fakeDialer{conns: []*fakeConn{conn}}).dial)
	exec := NewExecutor(cache)

	if _, err := exec.Execute(context.Background(), "w1", "SELECT * FROM argo_data WHERE latitude > 0", Policy{MaxRows: 100}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(conn.queries) != 1 || !strings.HasSuffix(conn.queries[0], "LIMIT 100") {
		t.Fatalf("expected executor-side bound, got %v", conn.queries)
	}
}

func TestExecuteBoundsDistinctScan(t *testing.T) {
	conn := &fakeConn{}
	cache := NewCache((&fakeDialer{conns: []*fakeConn{conn}}).dial)
	exec := NewExecutor(cache)

	if _, err := exec.Execute(context.Background(), "w1", "SELECT DISTINCT platform_number FROM argo_data", Policy{MaxRows: 200}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(conn.queries) != 1 || !strings.HasSuffix(conn.queries[0], "LIMIT 200") {
		t.Fatalf("expected DISTINCT scan to be capped, got %v", conn.queries)
	}
}

func TestExecuteEmptyResultIsNotAnError(t *testing.T) {
	conn := &fakeConn{rows: &fakeRows{columns: []string{"count"}}}
	cache := NewCache((&fakeDialer{conns: []*fakeConn{conn}}).dial)
	exec := NewExecutor(cache)

	result, err := exec.Execute(context.Background(), "w1", "SELECT COUNT(*) AS count FROM argo_data WHERE 1=0", Policy{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Count() != 0 {
		t.Fatalf("expected empty result, got %d rows", result.Count())
	}
	if result.Rows != nil && len(result.Rows) != 0 {
		t.Fatalf("expected zero rows, got %v", result.Rows)
	}
}

func TestExecuteClassifiesStatementTimeout(t *testing.T) {
	conn := &fakeConn{queryErr: &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}}
	cache := NewCache((&fakeDialer{conns: []*fakeConn{conn}}).dial)
	exec := NewExecutor(cache)

	_, err := exec.Execute(context.Background(), "w1", "SELECT * FROM argo_data", Policy{Timeout: 2 * time.Second})
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if KindOf(err) != KindTimeout {
		t.Fatalf("expected timeout kind, got %v", KindOf(err))
	}
	if !strings.Contains(err.Error(), "timed out after 2 seconds") {
		t.Fatalf("timeout message should be actionable: %q", err.Error())
	}
}

func TestExecuteClassifiesDialFailureAsConnection(t *testing.T) {
	cache := NewCache((&fakeDialer{dialErr: errors.New("connection refused")}).dial)
	exec := NewExecutor(cache)

	_, err := exec.Execute(context.Background(), "w1", "SELECT 1", Policy{})
	if err == nil {
		t.Fatalf("expected connection error")
	}
	if KindOf(err) != KindConnection {
		t.Fatalf("expected connection kind, got %v", KindOf(err))
	}
}

func TestExecuteGenericBackendFailure(t *testing.T) {
	conn := &fakeConn{queryErr: &pgconn.PgError{Code: "42601", Message: "syntax error"}}
	cache := NewCache((&fakeDialer{conns: []*fakeConn{conn}}).dial)
	exec := NewExecutor(cache)

	_, err := exec.Execute(context.Background(), "w1", "SELEC 1", Policy{})
	if err == nil {
		t.Fatalf("expected execution error")
	}
	if KindOf(err) != KindExecution {
		t.Fatalf("expected execution kind, got %v", KindOf(err))
	}
}

func TestExecuteInvalidatesBrokenSession(t *testing.T) {
	broken := &fakeConn{queryErr: errors.New("unexpected EOF")}
	broken.closed = true
	dialer := &fakeDialer{conns: []*fakeConn{broken, {id: 2}}}
	cache := NewCache(dialer.dial)
	exec := NewExecutor(cache)
	ctx := context.Background()

	if _, err := exec.Execute(ctx, "w1", "SELECT 1", Policy{}); err == nil {
		t.Fatalf("expected failure from broken session")
	}
	conn, release, err := cache.Acquire(ctx, "w1")
	if err != nil {
		t.Fatalf("acquire after invalidation: %v", err)
	}
	release()
	if conn.(*fakeConn).id != 2 {
		t.Fatalf("expected fresh session after broken one, got id %d", conn.(*fakeConn).id)
	}
}

func TestExecuteInvalidatesBrokenSessionOnScanFailure(t *testing.T) {
	rows := &fakeRows{columns: []string{"c"}, values: [][]any{{1}}, valuesErr: errors.New("unexpected EOF")}
	broken := &fakeConn{rows: rows}
	broken.closed = true
	dialer := &fakeDialer{conns: []*fakeConn{broken, {id: 2}}}
	cache := NewCache(dialer.dial)
	exec := NewExecutor(cache)
	ctx := context.Background()

	if _, err := exec.Execute(ctx, "w1", "SELECT c FROM t LIMIT 1", Policy{}); err == nil {
		t.Fatalf("expected scan failure")
	}
	if !rows.closed {
		t.Fatalf("cursor must be closed when a row read fails")
	}
	conn, release, err := cache.Acquire(ctx, "w1")
	if err != nil {
		t.Fatalf("acquire after invalidation: %v", err)
	}
	release()
	if conn.(*fakeConn).id != 2 {
		t.Fatalf("expected fresh session after mid-scan break, got id %d", conn.(*fakeConn).id)
	}
}

func TestExecuteClosesCursorOnRowError(t *testing.T) {
	rows := &fakeRows{columns: []string{"c"}, err: errors.New("stream truncated")}
	conn := &fakeConn{rows: rows}
	cache := NewCache((&fakeDialer{conns: []*fakeConn{conn}}).dial)
	exec := NewExecutor(cache)

	if _, err := exec.Execute(context.Background(), "w1", "SELECT c FROM t LIMIT 1", Policy{}); err == nil {
		t.Fatalf("expected row error")
	}
	if !rows.closed {
		t.Fatalf("cursor must be closed on every exit path")
	}
}
