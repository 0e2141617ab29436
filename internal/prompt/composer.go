// Package prompt assembles the bounded instruction sent to the LLM from the
// matched domain's schema, the retrieved context items, and the question.
package prompt

import (
	"fmt"
	"strings"

	"github.com/medika-labs/medquery/internal/domain"
	"github.com/medika-labs/medquery/internal/llm"
)

// Contract selects the response format the model is asked for.
type Contract string

const (
	// ContractSQLFence asks for a single fenced SQL block.
	ContractSQLFence Contract = "sql-fence"
	// ContractJSON asks for a JSON object with exactly the reasoning and
	// sql string fields.
	ContractJSON Contract = "json"
)

const (
	// MaxSchemaChars is the hard cap on rendered schema size.
	MaxSchemaChars = 4000
	// TruncationMarker is appended whenever the schema is cut.
	TruncationMarker = "\n... [schema truncated]"
)

const systemInstruction = `You are an expert PostgreSQL assistant for hospital data.
Generate a valid SQL query from the provided schema and context.
Use JOINs where the relationships require them.
Never modify data: no INSERT, UPDATE, DELETE, DROP, ALTER, TRUNCATE or CREATE.
Only read-only SELECT retrieval is allowed.`

// Composer builds role-tagged prompts under one response contract.
type Composer struct {
	contract Contract
}

func NewComposer(contract Contract) *Composer {
	if contract == "" {
		contract = ContractJSON
	}
	return &Composer{contract: contract}
}

// Contract returns the configured response contract.
func (c *Composer) Contract() Contract {
	return c.contract
}

// Build assembles the message list for one question. The schema description
// is truncated deterministically at MaxSchemaChars; context items must
// already be ordered by descending similarity.
func (c *Composer) Build(schemaDescription string, items []domain.ScoredItem, question string) []llm.Message {
	var b strings.Builder

	b.WriteString("DATABASE SCHEMA:\n")
	b.WriteString(TruncateSchema(schemaDescription))
	b.WriteString("\n\nCONTEXT:\n")
	b.WriteString(RenderContext(items))
	b.WriteString("\n\nUser question:\n")
	fmt.Fprintf(&b, "%q\n\n", question)
	b.WriteString(c.formatInstruction())

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemInstruction},
		{Role: llm.RoleUser, Content: b.String()},
	}
}

func (c *Composer) formatInstruction() string {
	if c.contract == ContractSQLFence {
		return "Output format:\n```sql\nSELECT ...\n```"
	}
	return `Output format: a single JSON object with exactly two string fields,
"reasoning" (why this query answers the question) and "sql" (the SELECT statement).
No other text.`
}

// TruncateSchema cuts a schema description at MaxSchemaChars and appends the
// truncation marker. The cut offset is fixed, so identical input always
// yields identical output.
func TruncateSchema(schema string) string {
	if len(schema) <= MaxSchemaChars {
		return schema
	}
	return schema[:MaxSchemaChars] + TruncationMarker
}

// RenderContext renders retrieved items as "(similarity) title: content"
// lines joined by blank lines, preserving the given order.
func RenderContext(items []domain.ScoredItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("(%.3f) %s: %s", item.Similarity, item.Title, item.Content))
	}
	return strings.Join(parts, "\n\n")
}
