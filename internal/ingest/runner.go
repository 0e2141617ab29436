// Package ingest builds the embedding store from knowledge base documents.
// It is an offline pass: flatten each domain's document into text snippets,
// embed every snippet, and replace the domain's stored rows.
package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/medika-labs/medquery/internal/domain"
	"github.com/medika-labs/medquery/internal/kb"
)

// Embedder produces one vector per snippet under a fixed model.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// ItemWriter persists embedded knowledge items.
type ItemWriter interface {
	Insert(ctx context.Context, item *domain.KnowledgeItem) error
	DeleteByDomain(ctx context.Context, model, domainName string) error
}

// DocumentSource lists available domains and loads their documents.
type DocumentSource interface {
	kb.Store
	Domains() ([]string, error)
}

type Runner struct {
	source    DocumentSource
	embedders []Embedder
	writer    ItemWriter
}

// NewRunner builds an ingestion runner. Multiple embedders may be supplied
// so the store can serve several embedding models side by side.
func NewRunner(source DocumentSource, writer ItemWriter, embedders ...Embedder) *Runner {
	return &Runner{source: source, embedders: embedders, writer: writer}
}

// Run ingests every domain the source knows about. A domain that fails does
// not stop the others; the first error is returned after all domains ran.
func (r *Runner) Run(ctx context.Context) error {
	domains, err := r.source.Domains()
	if err != nil {
		return fmt.Errorf("failed to list domains: %w", err)
	}
	if len(domains) == 0 {
		return fmt.Errorf("no knowledge base documents found")
	}

	var firstErr error
	for _, name := range domains {
		if err := r.IngestDomain(ctx, name); err != nil {
			log.Printf("ingest: domain %s failed: %v", name, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
	}
	return firstErr
}

// IngestDomain replaces one domain's stored items for every configured
// embedding model.
func (r *Runner) IngestDomain(ctx context.Context, domainName string) error {
	doc, err := r.source.Load(ctx, domainName)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	chunks := Flatten(doc)
	if len(chunks) == 0 {
		return fmt.Errorf("document for %s produced no snippets", domainName)
	}

	for _, embedder := range r.embedders {
		model := embedder.Model()

		if err := r.writer.DeleteByDomain(ctx, model, domainName); err != nil {
			return fmt.Errorf("failed to clear existing items: %w", err)
		}

		for _, content := range chunks {
			vec, err := embedder.GenerateEmbedding(ctx, content)
			if err != nil {
				return fmt.Errorf("failed to embed snippet: %w", err)
			}

			item := &domain.KnowledgeItem{
				ID:        uuid.NewString(),
				Model:     model,
				Domain:    domainName,
				Title:     domain.TitleFromContent(content),
				Content:   content,
				Embedding: vec,
			}
			if err := r.writer.Insert(ctx, item); err != nil {
				return fmt.Errorf("failed to store item: %w", err)
			}
		}

		log.Printf("ingest: domain %s stored %d items (model %s)", domainName, len(chunks), model)
	}
	return nil
}
