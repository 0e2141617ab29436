// Package kb reads the per-domain knowledge base documents. One JSON
// document per domain, named knowledge-base-<domain>.json, holding table
// schemas, domain mappings, and relationship descriptions. The pipeline only
// needs the tables section; ingestion consumes all three.
package kb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound signals that no document exists for a domain. Routing may
// still have matched the domain through stored embeddings; callers must
// report that data-consistency fault distinctly from a routing miss.
var ErrNotFound = errors.New("knowledge base document not found")

// TableSchema describes one table of a domain.
type TableSchema struct {
	Description     string            `json:"description,omitempty"`
	BusinessContext string            `json:"business_context,omitempty"`
	CommonQueries   []string          `json:"common_queries,omitempty"`
	KeyColumns      map[string]string `json:"key_columns,omitempty"`
	ForeignKeys     []string          `json:"foreign_keys,omitempty"`
}

// DomainMapping describes a business rule that maps phrasing to a domain.
type DomainMapping struct {
	Rule     string   `json:"rule,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// Relationship describes how two tables join.
type Relationship struct {
	Description string `json:"description,omitempty"`
	JoinPattern string `json:"join_pattern,omitempty"`
}

// Document is one domain's knowledge base. All sections are optional.
type Document struct {
	Tables         map[string]TableSchema   `json:"tables,omitempty"`
	DomainMappings map[string]DomainMapping `json:"domainMappings,omitempty"`
	Relationships  map[string]Relationship  `json:"relationships,omitempty"`
}

// SchemaDescription renders the tables section for prompt composition.
// Map keys marshal in sorted order, so the rendering is deterministic.
func (d *Document) SchemaDescription() string {
	if len(d.Tables) == 0 {
		return "{}"
	}
	data, err := json.MarshalIndent(d.Tables, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Store loads knowledge base documents by domain name.
type Store interface {
	Load(ctx context.Context, domain string) (*Document, error)
}

// DocumentKey returns the naming-convention key for a domain's document.
func DocumentKey(domain string) string {
	return fmt.Sprintf("knowledge-base-%s.json", domain)
}

func decodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base document: %w", err)
	}
	return &doc, nil
}
