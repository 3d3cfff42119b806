// File path: internal/sqltext/sanitize.go
package sqltext

import (
	"regexp"
	"strings"
)

var (
	lineCommentPattern  = regexp.MustCompile(`(?m)--.*$`)
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	qcComparePattern    = regexp.MustCompile(`\b(psal_qc|temp_qc|pres_qc)\s*=\s*(\d+)\b`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// Sanitize returns a cleaned statement string. Comments are removed, known
// type-comparison mistakes are repaired, and whitespace is collapsed. The
// QC flag columns are VARCHAR in the argo_data schema, so an equality
// comparison against a bare numeral is rewritten to compare against the
// numeral quoted as text. Sanitize never rejects input and is idempotent.
func Sanitize(stmt string) string {
	stmt = lineCommentPattern.ReplaceAllString(stmt, "")
	stmt = blockCommentPattern.ReplaceAllString(stmt, "")
	stmt = qcComparePattern.ReplaceAllString(stmt, "$1 = '$2'")
	stmt = whitespacePattern.ReplaceAllString(stmt, " ")
	return strings.TrimSpace(stmt)
}
