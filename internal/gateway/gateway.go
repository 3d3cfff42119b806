// File path: internal/gateway/gateway.go

// Package gateway turns untrusted free-form text into a bounded, executed,
// shaped result set. Input is either a raw SQL string supplied by an API
// caller or SQL embedded inside a model-generated response; the gateway
// extracts at most one statement, repairs common mistakes, bounds it,
// executes it under a timeout, and filters what the outcome exposes per
// audience mode.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/floatchat/floatchat/internal/common"
	"github.com/floatchat/floatchat/internal/postgres"
	"github.com/floatchat/floatchat/internal/sqltext"
)

// Mode classifies the audience a response is destined for. Developer mode
// exposes the executed statement; user mode suppresses it and redacts
// SQL-looking content from the response text.
type Mode string

const (
	ModeDeveloper Mode = "developer"
	ModeUser      Mode = "user"
)

// Provenance records how the executed statement was obtained.
type Provenance string

const (
	ProvenanceDirect    Provenance = "direct"
	ProvenanceExtracted Provenance = "extracted"
	ProvenanceFallback  Provenance = "fallback"
)

// Executor runs one bounded statement for a worker identity.
type Executor interface {
	Execute(ctx context.Context, worker, stmt string, policy postgres.Policy) (*postgres.ResultSet, error)
}

// QueryRecord describes one executed statement for the history log.
type QueryRecord struct {
	Question   string
	Statement  string
	Provenance Provenance
	Mode       Mode
	RowCount   int
	Duration   time.Duration
	Error      string
}

// Recorder persists query records. Recording failures are logged and never
// affect the outcome.
type Recorder interface {
	Record(ctx context.Context, rec QueryRecord) error
}

// Request carries one gateway invocation. Exactly one statement is carried
// forward per request regardless of how much SQL the input contains.
type Request struct {
	// FreeText is a model-generated response that may embed a SQL block.
	FreeText string
	// RawSQL, when set, is used verbatim instead of extraction.
	RawSQL string
	// Question is the original user question, used only for fallback
	// intent matching and the count-rewrite heuristic.
	Question string
	Mode     Mode
	// Limit bounds the executed result; zero applies the executor default.
	Limit int
	// Timeout bounds statement execution server-side; zero applies the
	// executor default.
	Timeout time.Duration
	// Worker is the identity keying connection reuse.
	Worker string
}

// Outcome is the single in-band result surface of the gateway; no failure
// propagates out any other way.
type Outcome struct {
	ResponseText   string         `json:"response"`
	SQLQuery       *string        `json:"sql_query"`
	QueryResults   []postgres.Row `json:"query_results"`
	ResultCount    int            `json:"result_count"`
	ExecutionError *string        `json:"execution_error"`
}

// Gateway wires the text transforms to an executor and an optional
// recorder.
type Gateway struct {
	exec       Executor
	recorder   Recorder
	guardLimit int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithRecorder attaches a query history recorder.
func WithRecorder(rec Recorder) Option {
	return func(g *Gateway) { g.recorder = rec }
}

// WithGuardLimit overrides the row cap the guard injects into unbounded
// read queries.
func WithGuardLimit(limit int) Option {
	return func(g *Gateway) {
		if limit > 0 {
			g.guardLimit = limit
		}
	}
}

// New builds a Gateway around an executor.
func New(exec Executor, opts ...Option) *Gateway {
	g := &Gateway{exec: exec, guardLimit: sqltext.DefaultRowLimit}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run executes the full pipeline for one request: extract, sanitize,
// guard, execute, shape, and redact. Producing no statement is a valid
// terminal state, not an error; execution failures are reported in-band in
// the outcome's ExecutionError field.
func (g *Gateway) Run(ctx context.Context, req Request) Outcome {
	logger := common.Logger()
	if req.Mode == "" {
		req.Mode = ModeUser
	}

	stmt, prov := g.resolveStatement(req)
	intent := sqltext.IntentNone
	if stmt == "" {
		if matched, ok := sqltext.MatchIntent(req.Question); ok {
			if fallback, ok := sqltext.FallbackStatement(matched); ok {
				stmt, prov, intent = fallback, ProvenanceFallback, matched
				logger.Info("gateway: synthesized fallback statement", "intent", matched.String())
			}
		}
	}

	out := Outcome{ResponseText: req.FreeText}
	if stmt == "" {
		logger.Debug("gateway: no statement produced", "question", req.Question)
		if req.Mode == ModeUser {
			out.ResponseText = sqltext.RedactForUser(out.ResponseText)
		}
		return out
	}

	logger.Info("gateway: executing statement", "provenance", prov, "statement", stmt)
	start := time.Now()
	result, err := g.exec.Execute(ctx, req.Worker, stmt, postgres.Policy{Timeout: req.Timeout, MaxRows: req.Limit})
	var errText string
	if err != nil {
		errText = err.Error()
		out.ExecutionError = &errText
		logger.Error("gateway: execution failed", "kind", postgres.KindOf(err).String(), "error", err)
	} else {
		out.QueryResults = result.Rows
		if out.QueryResults == nil {
			out.QueryResults = []postgres.Row{}
		}
		out.ResultCount = result.Count()
		if count, ok := countValue(result); ok {
			if answer, matched := sqltext.IntentAnswer(intent, count); matched {
				// A directly-verified number beats the model's phrasing.
				out.ResponseText = answer
			} else if strings.TrimSpace(out.ResponseText) != "" {
				out.ResponseText = fmt.Sprintf("%s\n\nData check: The database reports %d records for this request.", out.ResponseText, count)
			}
		}
	}

	g.record(ctx, QueryRecord{
		Question:   req.Question,
		Statement:  stmt,
		Provenance: prov,
		Mode:       req.Mode,
		RowCount:   out.ResultCount,
		Duration:   time.Since(start),
		Error:      errText,
	})

	if req.Mode == ModeUser {
		out.ResponseText = sqltext.RedactForUser(out.ResponseText)
		return out
	}
	out.SQLQuery = &stmt
	return out
}

// resolveStatement picks the single candidate statement for the request and
// runs it through the sanitizer and guard. Raw caller-supplied SQL takes
// precedence over extraction from free text.
func (g *Gateway) resolveStatement(req Request) (string, Provenance) {
	var stmt string
	var prov Provenance
	if raw := strings.TrimSpace(req.RawSQL); raw != "" {
		stmt, prov = raw, ProvenanceDirect
	} else if extracted, ok := sqltext.Extract(req.FreeText); ok {
		stmt, prov = extracted, ProvenanceExtracted
	} else {
		return "", ""
	}
	stmt = sqltext.Sanitize(stmt)
	if rewritten, ok := sqltext.RewriteToCount(stmt, req.Question); ok {
		stmt = rewritten
	}
	return sqltext.EnsureLimit(stmt, g.guardLimit), prov
}

func (g *Gateway) record(ctx context.Context, rec QueryRecord) {
	if g.recorder == nil {
		return
	}
	if err := g.recorder.Record(ctx, rec); err != nil {
		common.Logger().Warn("gateway: history record failed", "error", err)
	}
}

// countValue extracts the verified count from a count-shaped result: a
// single row with a single column whose value is numeric. The column named
// count is preferred when present.
func countValue(result *postgres.ResultSet) (int64, bool) {
	if result == nil || len(result.Rows) != 1 || len(result.Columns) != 1 {
		return 0, false
	}
	row := result.Rows[0]
	if v, ok := row["count"]; ok {
		return toInt64(v)
	}
	for _, v := range row {
		if n, ok := toInt64(v); ok {
			return n, true
		}
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	}
	return 0, false
}
