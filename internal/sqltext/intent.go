// File path: internal/sqltext/intent.go
package sqltext

import (
	"fmt"
	"strings"
)

// Intent identifies a simple aggregate question the gateway can answer with
// a known-safe synthesized statement when extraction finds no SQL.
type Intent int

const (
	IntentNone Intent = iota
	IntentRowCount
	IntentFloatCount
	IntentProfileCount
)

func (i Intent) String() string {
	switch i {
	case IntentRowCount:
		return "row_count"
	case IntentFloatCount:
		return "float_count"
	case IntentProfileCount:
		return "profile_count"
	default:
		return "none"
	}
}

// MatchIntent recognizes at most one fallback intent in the question text.
// Matching is case-insensitive and order-independent keyword presence; the
// first rule in listed order (rows, floats, profiles) wins for questions
// that mention more than one subject.
func MatchIntent(question string) (Intent, bool) {
	q := strings.ToLower(question)
	howMany := strings.Contains(q, "how many")
	switch {
	case (howMany && strings.Contains(q, "rows")) || strings.Contains(q, "rows in database"):
		return IntentRowCount, true
	case howMany && (strings.Contains(q, "float") || strings.Contains(q, "platform")):
		return IntentFloatCount, true
	case howMany && strings.Contains(q, "profile"):
		return IntentProfileCount, true
	}
	return IntentNone, false
}

// FallbackStatement returns the synthesized statement for a recognized
// intent. Each is a single-value aggregate over argo_data, so the guard's
// limit injection is a no-op on them.
func FallbackStatement(intent Intent) (string, bool) {
	switch intent {
	case IntentRowCount:
		return "SELECT COUNT(*) AS count FROM argo_data", true
	case IntentFloatCount:
		return "SELECT COUNT(DISTINCT platform_number) AS count FROM argo_data", true
	case IntentProfileCount:
		return "SELECT COUNT(DISTINCT profile_index) AS count FROM argo_data", true
	}
	return "", false
}

// IntentAnswer renders the templated authoritative sentence for a verified
// count. A directly-verified number overrides whatever free text the model
// produced for the same question.
func IntentAnswer(intent Intent, count int64) (string, bool) {
	switch intent {
	case IntentRowCount:
		return fmt.Sprintf("There are %d rows in the database.", count), true
	case IntentFloatCount:
		return fmt.Sprintf("There are %d distinct ARGO floats in the database.", count), true
	case IntentProfileCount:
		return fmt.Sprintf("There are %d distinct profiles in the database.", count), true
	}
	return "", false
}
