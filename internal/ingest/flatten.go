package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/medika-labs/medquery/internal/kb"
)

// maxChunkChars bounds snippet length so every chunk fits the embedding
// model's effective context comfortably.
const maxChunkChars = 500

// Flatten turns one knowledge base document into embeddable text snippets.
// Sections are walked in sorted key order so repeated runs produce identical
// snippets.
func Flatten(doc *kb.Document) []string {
	var snippets []string

	for _, name := range sortedKeys(doc.Tables) {
		table := doc.Tables[name]

		if table.Description != "" {
			snippets = append(snippets, fmt.Sprintf("Table %s: %s", name, table.Description))
		}
		if table.BusinessContext != "" {
			snippets = append(snippets, fmt.Sprintf("Business context for %s: %s", name, table.BusinessContext))
		}
		for _, query := range table.CommonQueries {
			snippets = append(snippets, fmt.Sprintf("Common query on %s: %s", name, query))
		}
		if len(table.KeyColumns) > 0 {
			var cols []string
			for _, col := range sortedKeys(table.KeyColumns) {
				cols = append(cols, fmt.Sprintf("%s (%s)", col, table.KeyColumns[col]))
			}
			snippets = append(snippets, fmt.Sprintf("Key columns of %s: %s", name, strings.Join(cols, ", ")))
		}
		for _, fk := range table.ForeignKeys {
			snippets = append(snippets, fmt.Sprintf("Foreign key on %s: %s", name, fk))
		}
	}

	for _, name := range sortedKeys(doc.DomainMappings) {
		mapping := doc.DomainMappings[name]
		text := fmt.Sprintf("Mapping %s: %s", name, mapping.Rule)
		if len(mapping.Keywords) > 0 {
			text += fmt.Sprintf(" Keywords: %s.", strings.Join(mapping.Keywords, ", "))
		}
		snippets = append(snippets, text)
	}

	for _, name := range sortedKeys(doc.Relationships) {
		rel := doc.Relationships[name]
		text := fmt.Sprintf("Relationship %s: %s", name, rel.Description)
		if rel.JoinPattern != "" {
			text += fmt.Sprintf(" Join: %s", rel.JoinPattern)
		}
		snippets = append(snippets, text)
	}

	var chunks []string
	for _, snippet := range snippets {
		chunks = append(chunks, chunk(snippet)...)
	}
	return chunks
}

// chunk splits a snippet into rune-bounded pieces of at most maxChunkChars.
func chunk(text string) []string {
	runes := []rune(text)
	if len(runes) <= maxChunkChars {
		return []string{text}
	}

	var parts []string
	for start := 0; start < len(runes); start += maxChunkChars {
		end := start + maxChunkChars
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
