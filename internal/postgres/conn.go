// File path: internal/postgres/conn.go

// Package postgres manages database sessions for the query gateway: a
// per-worker connection cache with liveness probing, and an executor that
// runs guarded statements under a server-side timeout and shapes the
// results.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Rows is the minimal cursor contract the executor consumes. It mirrors
// the pgx.Rows surface the executor actually touches so tests can supply
// an in-memory implementation.
type Rows interface {
	Next() bool
	Values() ([]any, error)
	Columns() []string
	Err() error
	Close()
}

// Conn is an owned database session. Exactly one worker uses a Conn at a
// time; the cache enforces that ownership.
type Conn interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string) error
	Query(ctx context.Context, sql string) (Rows, error)
	Close(ctx context.Context) error
	IsClosed() bool
}

// Dialer opens a fresh database session. The cache treats a dial failure
// as the store being unreachable.
type Dialer func(ctx context.Context) (Conn, error)

// NewDialer returns a Dialer that opens single pgx connections using the
// provided configuration. The connect call is bounded by the configured
// connect timeout via the DSN.
func NewDialer(cfg Config) Dialer {
	dsn := cfg.DSN()
	return func(ctx context.Context) (Conn, error) {
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return &pgxConn{conn: conn}, nil
	}
}

type pgxConn struct {
	conn *pgx.Conn
}

func (c *pgxConn) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *pgxConn) Exec(ctx context.Context, sql string) error {
	_, err := c.conn.Exec(ctx, sql)
	return err
}

func (c *pgxConn) Query(ctx context.Context, sql string) (Rows, error) {
	rows, err := c.conn.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return &pgxRows{rows: rows}, nil
}

func (c *pgxConn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

func (c *pgxConn) IsClosed() bool {
	return c.conn.IsClosed()
}

type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool {
	return r.rows.Next()
}

func (r *pgxRows) Values() ([]any, error) {
	return r.rows.Values()
}

func (r *pgxRows) Columns() []string {
	fields := r.rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	return columns
}

func (r *pgxRows) Err() error {
	return r.rows.Err()
}

func (r *pgxRows) Close() {
	r.rows.Close()
}
