// File path: internal/sqltext/redact.go
package sqltext

import (
	"regexp"
	"strings"
)

var (
	sqlFenceBlockPattern  = regexp.MustCompile("(?is)```\\s*sql.*?```")
	verbFenceBlockPattern = regexp.MustCompile("(?is)```[^`]*?\\b(select|insert|update|delete)\\b.*?```")
	sqlLinePattern        = regexp.MustCompile(`(?im)^[ \t]*(select|insert|update|delete)\b.*$`)
	blankRunPattern       = regexp.MustCompile(`\n{3,}`)
)

// RedactForUser strips SQL-looking content from text shown to non-developer
// audiences: fenced blocks tagged sql or containing a SQL verb, standalone
// lines beginning with a SQL verb, and the blank-line runs left behind.
// This is pattern-based best-effort redaction, and content that does not
// match the recognized shapes will leak through.
func RedactForUser(text string) string {
	if text == "" {
		return text
	}
	cleaned := sqlFenceBlockPattern.ReplaceAllString(text, "")
	cleaned = verbFenceBlockPattern.ReplaceAllString(cleaned, "")
	cleaned = sqlLinePattern.ReplaceAllString(cleaned, "")
	cleaned = blankRunPattern.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
