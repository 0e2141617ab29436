package admin

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/medika-labs/medquery/internal/config"
	"github.com/medika-labs/medquery/internal/ingest"
	"github.com/medika-labs/medquery/internal/kb"
	"github.com/medika-labs/medquery/internal/openai"
	"github.com/medika-labs/medquery/internal/repository"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	var (
		dir     string
		domains []string
		models  []string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed knowledge base documents into the rag database",
		Long: `Flatten local knowledge base documents into text snippets, embed
each snippet, and replace the stored rows. Re-running is safe: a domain's
rows are replaced atomically per model.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), dir, domains, models)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Knowledge base directory (default from config)")
	cmd.Flags().StringSliceVar(&domains, "domain", nil, "Ingest only the named domains")
	cmd.Flags().StringSliceVar(&models, "model", nil, "Embedding models to ingest with (default from config)")

	return cmd
}

func runIngest(ctx context.Context, dir string, domains, models []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if dir == "" {
		dir = cfg.KBDir
	}
	if len(models) == 0 {
		models = []string{cfg.EmbeddingModel}
	}

	pool, err := pgxpool.New(ctx, cfg.RagDatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to rag database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping rag database: %w", err)
	}

	var embedders []ingest.Embedder
	for _, model := range models {
		embedders = append(embedders, openai.NewClient(openai.Config{
			APIKey:  cfg.EmbeddingAPIKey,
			BaseURL: cfg.EmbeddingBaseURL,
			Model:   model,
		}))
	}

	source := kb.NewDirStore(dir)
	writer := repository.NewEmbeddingStore(pool)
	runner := ingest.NewRunner(source, writer, embedders...)

	if len(domains) > 0 {
		var failed []string
		for _, name := range domains {
			if err := runner.IngestDomain(ctx, name); err != nil {
				log.Printf("ingest: domain %s failed: %v", name, err)
				failed = append(failed, name)
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("ingestion failed for: %s", strings.Join(failed, ", "))
		}
		return nil
	}

	return runner.Run(ctx)
}
