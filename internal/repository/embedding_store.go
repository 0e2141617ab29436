package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/medika-labs/medquery/internal/domain"
)

// EmbeddingStore ranks stored knowledge-item embeddings by cosine
// similarity. Rows are written once by ingestion and never change during
// pipeline operation, so concurrent readers need no coordination.
type EmbeddingStore struct {
	db dbtx
}

func NewEmbeddingStore(pool *pgxpool.Pool) *EmbeddingStore {
	return &EmbeddingStore{db: pool}
}

// RankDomains returns domains ordered by their best single-item similarity
// to the query vector. One strong item promotes its whole domain. Ties break
// on ascending domain name so the ordering is reproducible. An empty store
// for the model yields an empty slice, not an error.
func (s *EmbeddingStore) RankDomains(ctx context.Context, vec []float32, model string) ([]domain.DomainScore, error) {
	rows, err := s.db.Query(ctx,
		`SELECT domain, MAX(1 - (embedding <=> $1)) AS similarity
		 FROM rag_knowledge_embeddings
		 WHERE model = $2
		 GROUP BY domain
		 ORDER BY similarity DESC, domain ASC`,
		pgvector.NewVector(vec), model,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []domain.DomainScore
	for rows.Next() {
		var d domain.DomainScore
		if err := rows.Scan(&d.Domain, &d.Similarity); err != nil {
			return nil, err
		}
		scores = append(scores, d)
	}
	return scores, rows.Err()
}

// TopItems returns up to k items of one domain ordered by descending
// similarity. Fewer than k matches is legal.
func (s *EmbeddingStore) TopItems(ctx context.Context, vec []float32, model, domainName string, k int) ([]domain.ScoredItem, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, content, 1 - (embedding <=> $1) AS similarity
		 FROM rag_knowledge_embeddings
		 WHERE model = $2 AND domain = $3
		 ORDER BY similarity DESC
		 LIMIT $4`,
		pgvector.NewVector(vec), model, domainName, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.ScoredItem
	for rows.Next() {
		var item domain.ScoredItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Content, &item.Similarity); err != nil {
			return nil, err
		}
		item.Model = model
		item.Domain = domainName
		items = append(items, item)
	}
	return items, rows.Err()
}

// Insert stores one embedded knowledge item. Used by offline ingestion only.
func (s *EmbeddingStore) Insert(ctx context.Context, item *domain.KnowledgeItem) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO rag_knowledge_embeddings (id, model, domain, title, content, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		item.ID, item.Model, item.Domain, item.Title, item.Content, pgvector.NewVector(item.Embedding),
	)
	return err
}

// DeleteByDomain removes a domain's items for one model so ingestion can be
// re-run without duplicating rows.
func (s *EmbeddingStore) DeleteByDomain(ctx context.Context, model, domainName string) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM rag_knowledge_embeddings WHERE model = $1 AND domain = $2`,
		model, domainName,
	)
	return err
}
