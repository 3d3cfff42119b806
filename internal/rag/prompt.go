// File path: internal/rag/prompt.go

// Package rag assembles the chat pipeline: dataset context retrieval, the
// FloatChat prompt, the model call, and the guarded SQL gateway over the
// model's response.
package rag

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"

	"github.com/floatchat/floatchat/internal/gateway"
)

const systemPrompt = "You are FloatChat, an AI-powered ocean data assistant specializing in ARGO float data " +
	"analysis for the Indian Ocean region. You help users discover, query, and visualize oceanographic data " +
	"through natural language."

const promptTemplate = `{{.mode_instructions}}

ARGO Float Context:
{{.context}}

User Question: {{.question}}

Instructions for answering ocean data queries:
- For location-based queries, identify relevant latitude/longitude ranges and list specific float IDs in those regions.
- For temporal queries, extract time ranges from the context and identify floats active during those periods.
- For parameter queries, explain what parameters are available (TEMP, PSAL, PRES).
- Always be specific with float IDs, coordinates, and time ranges, and mention data limitations when relevant.

Additionally, generate a SQL query that would retrieve the relevant data from the ARGO database.
The table is argo_data; its columns are listed in the context above.

IMPORTANT SQL RULES:
- QC columns (pres_qc, temp_qc, psal_qc) are VARCHAR, so use string comparisons: psal_qc = '1' not psal_qc = 1
- Do NOT include comments in SQL queries (no -- or /* */)
- ALWAYS include a LIMIT clause for large result sets (e.g., LIMIT 50)
- Use specific WHERE conditions to reduce data scope
- Prefer COUNT(*) for counting instead of SELECT * on large tables
- Keep queries simple and focused; avoid complex joins or subqueries

Format your response as:

**SQL Query:**
` + "```sql" + `
[Your generated SQL query here]
` + "```" + `

**Answer:**
[Your detailed response here]`

const developerInstructions = "You are in developer mode. Prefer precise answers and include an executable " +
	"PostgreSQL query against table argo_data when relevant."

const userInstructions = "You are in user mode for non-developers. Explain findings in friendly language and " +
	"summarize insights succinctly; the SQL query you generate is used internally and never shown to the user."

var questionPrompt = prompts.NewPromptTemplate(promptTemplate, []string{"mode_instructions", "context", "question"})

func renderPrompt(question, contextBlock string, mode gateway.Mode) (string, error) {
	instructions := userInstructions
	if mode == gateway.ModeDeveloper {
		instructions = developerInstructions
	}
	if contextBlock == "" {
		contextBlock = "(no dataset context available)"
	}
	text, err := questionPrompt.Format(map[string]any{
		"mode_instructions": instructions,
		"context":           contextBlock,
		"question":          question,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return text, nil
}
