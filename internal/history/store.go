// File path: internal/history/store.go

// Package history persists every statement the gateway executes so past
// queries can be audited and replayed.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/floatchat/floatchat/internal/gateway"
)

const schemaStatement = `CREATE TABLE IF NOT EXISTS query_history (
        id BIGSERIAL PRIMARY KEY,
        question TEXT NOT NULL DEFAULT '',
        statement TEXT NOT NULL,
        provenance TEXT NOT NULL,
        mode TEXT NOT NULL,
        row_count INTEGER NOT NULL DEFAULT 0,
        duration_ms BIGINT NOT NULL DEFAULT 0,
        error TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Entry is one persisted gateway execution.
type Entry struct {
	ID         int64     `db:"id" json:"id"`
	Question   string    `db:"question" json:"question"`
	Statement  string    `db:"statement" json:"statement"`
	Provenance string    `db:"provenance" json:"provenance"`
	Mode       string    `db:"mode" json:"mode"`
	RowCount   int       `db:"row_count" json:"row_count"`
	DurationMS int64     `db:"duration_ms" json:"duration_ms"`
	Error      string    `db:"error" json:"error,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Store wraps a pooled sqlx.DB connection to the history table.
type Store struct {
	db *sqlx.DB
}

// Open connects to the database at the provided DSN and ensures the
// history schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaStatement); err != nil {
		return fmt.Errorf("migrate history schema: %w", err)
	}
	return nil
}

// Record persists one gateway execution. It satisfies the gateway's
// Recorder contract.
func (s *Store) Record(ctx context.Context, rec gateway.QueryRecord) error {
	if s == nil || s.db == nil {
		return errors.New("history store not initialised")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO query_history (question, statement, provenance, mode, row_count, duration_ms, error)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.Question, rec.Statement, string(rec.Provenance), string(rec.Mode),
		rec.RowCount, rec.Duration.Milliseconds(), rec.Error)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history store not initialised")
	}
	if limit <= 0 {
		limit = 50
	}
	entries := []Entry{}
	if err := s.db.SelectContext(ctx, &entries,
		`SELECT * FROM query_history ORDER BY created_at DESC, id DESC LIMIT $1`, limit); err != nil {
		return nil, fmt.Errorf("select history entries: %w", err)
	}
	return entries, nil
}
