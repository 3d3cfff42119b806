// File path: internal/sqltext/intent_test.go
package sqltext

import "testing"

func TestMatchIntentKeywords(t *testing.T) {
	cases := map[string]Intent{
		"How many rows are in the database?":       IntentRowCount,
		"rows in database":                         IntentRowCount,
		"HOW MANY FLOATS do we track?":             IntentFloatCount,
		"how many distinct platforms are there":    IntentFloatCount,
		"How many profiles were collected?":        IntentProfileCount,
		"What is the warmest reading?":             IntentNone,
		"how many measurements":                    IntentNone,
	}
	for question, want := range cases {
		got, ok := MatchIntent(question)
		if want == IntentNone {
			if ok {
				t.Fatalf("MatchIntent(%q) matched %v, want none", question, got)
			}
			continue
		}
		if !ok || got != want {
			t.Fatalf("MatchIntent(%q) = %v/%v, want %v", question, got, ok, want)
		}
	}
}

func TestMatchIntentPriorityOrder(t *testing.T) {
	// Rows outrank floats which outrank profiles for overlapping questions.
	got, ok := MatchIntent("How many rows and how many floats?")
	if !ok || got != IntentRowCount {
		t.Fatalf("expected row intent to win, got %v", got)
	}
	got, ok = MatchIntent("How many floats reported profiles?")
	if !ok || got != IntentFloatCount {
		t.Fatalf("expected float intent to win, got %v", got)
	}
}

func TestFallbackStatements(t *testing.T) {
	stmt, ok := FallbackStatement(IntentRowCount)
	if !ok || stmt != "SELECT COUNT(*) AS count FROM argo_data" {
		t.Fatalf("unexpected row statement: %q", stmt)
	}
	stmt, ok = FallbackStatement(IntentFloatCount)
	if !ok || stmt != "SELECT COUNT(DISTINCT platform_number) AS count FROM argo_data" {
		t.Fatalf("unexpected float statement: %q", stmt)
	}
	stmt, ok = FallbackStatement(IntentProfileCount)
	if !ok || stmt != "SELECT COUNT(DISTINCT profile_index) AS count FROM argo_data" {
		t.Fatalf("unexpected profile statement: %q", stmt)
	}
	if _, ok := FallbackStatement(IntentNone); ok {
		t.Fatalf("expected no statement for IntentNone")
	}
}

func TestIntentAnswerTemplates(t *testing.T) {
	answer, ok := IntentAnswer(IntentRowCount, 42)
	if !ok || answer != "There are 42 rows in the database." {
		t.Fatalf("unexpected answer: %q", answer)
	}
	answer, ok = IntentAnswer(IntentFloatCount, 7)
	if !ok || answer != "There are 7 distinct ARGO floats in the database." {
		t.Fatalf("unexpected answer: %q", answer)
	}
}
