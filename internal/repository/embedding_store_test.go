//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medika-labs/medquery/internal/domain"
	"github.com/medika-labs/medquery/internal/service"
	"github.com/medika-labs/medquery/internal/testutil"
)

func insertItem(ctx context.Context, t *testing.T, store *EmbeddingStore, model, domainName, content string, vec []float32) {
	t.Helper()
	item := &domain.KnowledgeItem{
		ID:        uuid.NewString(),
		Model:     model,
		Domain:    domainName,
		Title:     domain.TitleFromContent(content),
		Content:   content,
		Embedding: vec,
	}
	require.NoError(t, store.Insert(ctx, item))
}

func TestEmbeddingStore_RankDomains(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewEmbeddingStore(pool)

	// mpasien holds the vector closest to the query; one strong item is
	// enough to promote the domain
	insertItem(ctx, t, store, "bge-m3", "mpasien", "patient master data", []float32{1, 0, 0})
	insertItem(ctx, t, store, "bge-m3", "mpasien", "unrelated snippet", []float32{0, 0, 1})
	insertItem(ctx, t, store, "bge-m3", "billing", "invoice data", []float32{0, 1, 0})
	// a different model's rows must not leak in
	insertItem(ctx, t, store, "nomic-embed-text", "pharmacy", "drug stock", []float32{1, 0, 0})

	scores, err := store.RankDomains(ctx, []float32{1, 0, 0}, "bge-m3")
	require.NoError(t, err)

	require.Len(t, scores, 2)
	assert.Equal(t, "mpasien", scores[0].Domain)
	assert.InDelta(t, 1.0, scores[0].Similarity, 1e-6)
	assert.Equal(t, "billing", scores[1].Domain)
	assert.Greater(t, scores[0].Similarity, scores[1].Similarity)
}

func TestEmbeddingStore_RankDomains_Empty(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewEmbeddingStore(pool)

	scores, err := store.RankDomains(ctx, []float32{1, 0, 0}, "bge-m3")
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestEmbeddingStore_TopItems(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewEmbeddingStore(pool)

	insertItem(ctx, t, store, "bge-m3", "mpasien", "closest", []float32{1, 0, 0})
	insertItem(ctx, t, store, "bge-m3", "mpasien", "second", []float32{0.9, 0.1, 0})
	insertItem(ctx, t, store, "bge-m3", "mpasien", "third", []float32{0.5, 0.5, 0})
	insertItem(ctx, t, store, "bge-m3", "mpasien", "farthest", []float32{0, 0, 1})
	insertItem(ctx, t, store, "bge-m3", "billing", "other domain", []float32{1, 0, 0})

	items, err := store.TopItems(ctx, []float32{1, 0, 0}, "bge-m3", "mpasien", 3)
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "closest", items[0].Content)
	assert.Equal(t, "second", items[1].Content)
	assert.Equal(t, "third", items[2].Content)
	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, items[i-1].Similarity, items[i].Similarity)
	}
}

func TestEmbeddingStore_DeleteByDomain(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewEmbeddingStore(pool)

	insertItem(ctx, t, store, "bge-m3", "mpasien", "to delete", []float32{1, 0, 0})
	insertItem(ctx, t, store, "bge-m3", "billing", "to keep", []float32{0, 1, 0})
	insertItem(ctx, t, store, "nomic-embed-text", "mpasien", "other model, kept", []float32{1, 0, 0})

	require.NoError(t, store.DeleteByDomain(ctx, "bge-m3", "mpasien"))

	scores, err := store.RankDomains(ctx, []float32{1, 0, 0}, "bge-m3")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "billing", scores[0].Domain)

	scores, err = store.RankDomains(ctx, []float32{1, 0, 0}, "nomic-embed-text")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "mpasien", scores[0].Domain)
}

func TestQueryLogRepository_CreateQueryLog(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewQueryLogRepository(pool)

	id, err := repo.CreateQueryLog(ctx, service.QueryLogEntry{
		TenantID:       "rs_a_db",
		Question:       "how many patients",
		DetectedDomain: "mpasien",
		Outcome:        "executed",
		SQL:            "SELECT COUNT(*) FROM patients;",
		Message:        "query executed, 1 row(s)",
		Model:          "google/gemma-2-9b-it",
		DurationMs:     1234,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// blocked attempts log with no detected domain or SQL
	id, err = repo.CreateQueryLog(ctx, service.QueryLogEntry{
		TenantID:   "rs_a_db",
		Question:   "hello",
		Outcome:    "no-domain-match",
		Message:    "no relevant knowledge domain found",
		Model:      "google/gemma-2-9b-it",
		DurationMs: 15,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
