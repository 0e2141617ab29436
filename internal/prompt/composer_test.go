package prompt

import (
	"strings"
	"testing"

	"github.com/medika-labs/medquery/internal/domain"
	"github.com/medika-labs/medquery/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateSchema(t *testing.T) {
	t.Run("short schema passes through", func(t *testing.T) {
		assert.Equal(t, "short", TruncateSchema("short"))
	})

	t.Run("oversized schema is cut byte-exactly", func(t *testing.T) {
		schema := strings.Repeat("a", 5000)

		got := TruncateSchema(schema)

		assert.Equal(t, strings.Repeat("a", 4000)+TruncationMarker, got)
	})

	t.Run("exactly at the cap is untouched", func(t *testing.T) {
		schema := strings.Repeat("b", MaxSchemaChars)
		assert.Equal(t, schema, TruncateSchema(schema))
	})

	t.Run("deterministic", func(t *testing.T) {
		schema := strings.Repeat("xyz", 2000)
		first := TruncateSchema(schema)
		for i := 0; i < 5; i++ {
			require.Equal(t, first, TruncateSchema(schema))
		}
	})
}

func TestRenderContext(t *testing.T) {
	items := []domain.ScoredItem{
		{KnowledgeItem: domain.KnowledgeItem{Title: "Table patients", Content: "patient master data"}, Similarity: 0.8125},
		{KnowledgeItem: domain.KnowledgeItem{Title: "Key column gender", Content: "L or P"}, Similarity: 0.5},
	}

	got := RenderContext(items)

	assert.Equal(t, "(0.812) Table patients: patient master data\n\n(0.500) Key column gender: L or P", got)
}

func TestComposer_Build(t *testing.T) {
	items := []domain.ScoredItem{
		{KnowledgeItem: domain.KnowledgeItem{Title: "Table visits", Content: "one row per admission"}, Similarity: 0.9},
	}

	t.Run("json contract", func(t *testing.T) {
		c := NewComposer(ContractJSON)

		messages := c.Build("schema here", items, "how many patients per ward?")

		require.Len(t, messages, 2)
		assert.Equal(t, llm.RoleSystem, messages[0].Role)
		assert.Contains(t, messages[0].Content, "Never modify data")
		assert.Contains(t, messages[0].Content, "read-only")
		assert.Equal(t, llm.RoleUser, messages[1].Role)
		assert.Contains(t, messages[1].Content, "schema here")
		assert.Contains(t, messages[1].Content, "(0.900) Table visits: one row per admission")
		assert.Contains(t, messages[1].Content, `"how many patients per ward?"`)
		assert.Contains(t, messages[1].Content, `"reasoning"`)
		assert.Contains(t, messages[1].Content, `"sql"`)
	})

	t.Run("sql fence contract", func(t *testing.T) {
		c := NewComposer(ContractSQLFence)

		messages := c.Build("schema here", items, "q")

		require.Len(t, messages, 2)
		assert.Contains(t, messages[1].Content, "```sql")
		assert.NotContains(t, messages[1].Content, `"reasoning"`)
	})

	t.Run("empty contract defaults to json", func(t *testing.T) {
		assert.Equal(t, ContractJSON, NewComposer("").Contract())
	})

	t.Run("fewer than three items is legal", func(t *testing.T) {
		c := NewComposer(ContractJSON)
		messages := c.Build("s", nil, "q")
		require.Len(t, messages, 2)
	})
}
