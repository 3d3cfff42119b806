// File path: internal/sqltext/guard.go
package sqltext

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultRowLimit is the row cap appended to unbounded read queries.
const DefaultRowLimit = 50

var selectStarPattern = regexp.MustCompile(`(?i)SELECT\s+\*\s+FROM`)

// EnsureLimit appends an explicit LIMIT clause to a read query that carries
// no row-limiting, aggregate-count, or grouping clause. Statements that are
// not SELECT...FROM pass through untouched. Idempotent under repeated
// application.
func EnsureLimit(stmt string, maxRows int) string {
	return boundStatement(stmt, maxRows, "LIMIT", "COUNT", "GROUP BY", "HAVING", "DISTINCT")
}

// CapRows is the executor-side bound. Its skip list is deliberately looser
// than EnsureLimit's: a DISTINCT projection that EnsureLimit leaves alone
// still gets a row cap here, so an unbounded scan has to slip past two
// different heuristics before it reaches the backend uncapped.
func CapRows(stmt string, maxRows int) string {
	return boundStatement(stmt, maxRows, "LIMIT", "COUNT", "GROUP BY", "HAVING")
}

func boundStatement(stmt string, maxRows int, skip ...string) string {
	if maxRows <= 0 {
		maxRows = DefaultRowLimit
	}
	upper := strings.ToUpper(stmt)
	if !strings.Contains(upper, "SELECT") || !strings.Contains(upper, "FROM") {
		return stmt
	}
	for _, clause := range skip {
		if strings.Contains(upper, clause) {
			return stmt
		}
	}
	return fmt.Sprintf("%s LIMIT %d", strings.TrimRight(strings.TrimSpace(stmt), ";"), maxRows)
}

// RewriteToCount rewrites an unrestricted SELECT * with a filter into a
// COUNT(*) aggregate when the surrounding question text suggests a counting
// intent. The rewrite is textual and deliberately narrow: statements with
// joins or subqueries are left alone and rely on the row cap instead.
func RewriteToCount(stmt, question string) (string, bool) {
	upper := strings.ToUpper(stmt)
	if !selectStarPattern.MatchString(stmt) || !strings.Contains(upper, "WHERE") {
		return stmt, false
	}
	if strings.Contains(upper, "JOIN") || strings.Count(upper, "SELECT") > 1 {
		return stmt, false
	}
	q := strings.ToLower(question)
	if !strings.Contains(q, "how many") && !strings.Contains(q, "count") {
		return stmt, false
	}
	return selectStarPattern.ReplaceAllString(stmt, "SELECT COUNT(*) FROM"), true
}
