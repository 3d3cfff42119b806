// File path: internal/sqltext/extract.go

// Package sqltext implements the text transforms the query gateway applies
// to model-generated SQL: extraction from free text, comment stripping,
// type-comparison repair, bounding, and audience redaction. Everything here
// is regex over SQL text, not a parser; the statements handled are
// machine-generated and narrowly scoped, and each transform is a pure
// function so a real parser can replace one locally later.
package sqltext

import (
	"regexp"
	"strings"
)

var (
	sqlFencePattern     = regexp.MustCompile("(?is)```sql\\s*(.*?)\\s*```")
	labeledFencePattern = regexp.MustCompile("(?is)\\*{0,2}SQL Query:?\\*{0,2}\\s*```(?:sql)?\\s*(.*?)\\s*```")
)

// Extract pulls a single SQL statement out of free-form model text. It
// first looks for a fenced code block tagged sql, then for a "SQL Query"
// labelled section followed by a fenced block. The first match wins; any
// further statements in the text are ignored. A missing statement is not
// an error.
func Extract(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	if m := sqlFencePattern.FindStringSubmatch(text); m != nil {
		stmt := strings.TrimSpace(m[1])
		if stmt != "" {
			return stmt, true
		}
	}
	if m := labeledFencePattern.FindStringSubmatch(text); m != nil {
		stmt := strings.TrimSpace(m[1])
		if stmt != "" {
			return stmt, true
		}
	}
	return "", false
}
