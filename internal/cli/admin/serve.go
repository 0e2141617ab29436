package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/medika-labs/medquery/internal/api/handlers"
	"github.com/medika-labs/medquery/internal/config"
	"github.com/medika-labs/medquery/internal/database"
	"github.com/medika-labs/medquery/internal/kb"
	"github.com/medika-labs/medquery/internal/llm"
	"github.com/medika-labs/medquery/internal/openai"
	"github.com/medika-labs/medquery/internal/prompt"
	"github.com/medika-labs/medquery/internal/repository"
	"github.com/medika-labs/medquery/internal/server"
	"github.com/medika-labs/medquery/internal/service"
	"github.com/medika-labs/medquery/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the medquery API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: cfg.SentrySampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	ragPool, err := pgxpool.New(ctx, cfg.RagDatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to rag database: %w", err)
	}
	defer ragPool.Close()

	if err := ragPool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping rag database: %w", err)
	}
	log.Println("connected to rag database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.RagDatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	kbStore, err := buildKBStore(ctx, cfg)
	if err != nil {
		return err
	}

	pools := database.NewTenantPools(database.Config{
		URLTemplate: cfg.TenantURLTemplate,
		MaxConns:    int32(cfg.TenantMaxConns),
		MaxIdle:     cfg.TenantMaxIdle,
	})
	go pools.StartReaper(ctx, cfg.TenantReapInterval)

	embedder := openai.NewClient(openai.Config{
		APIKey:     cfg.EmbeddingAPIKey,
		BaseURL:    cfg.EmbeddingBaseURL,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
	})

	completer := llm.NewClient(llm.Config{
		APIKey:  cfg.ChatAPIKey,
		BaseURL: cfg.ChatBaseURL,
	})

	composer := prompt.NewComposer(prompt.Contract(cfg.PromptContract))

	embeddingStore := repository.NewEmbeddingStore(ragPool)
	queryLogRepo := repository.NewQueryLogRepository(ragPool)

	pipeline := service.NewPipeline(
		service.PipelineConfig{
			ChatModel:       cfg.ChatModel,
			Temperature:     cfg.ChatTemperature,
			MaxTokens:       cfg.ChatMaxTokens,
			ReasoningEffort: cfg.ChatReasoningEffort,
		},
		embedder,
		embeddingStore,
		kbStore,
		composer,
		completer,
		&executorProvider{pools: pools},
		queryLogRepo,
	)

	routerCfg := server.RouterConfig{
		APIToken:        cfg.APIToken,
		QueryHandler:    handlers.NewQueryHandler(pipeline, cfg.DefaultTenant, cfg.Debug),
		DatabaseHandler: handlers.NewDatabaseHandler(&databaseLister{pools: pools, ragPool: ragPool, defaultTenant: cfg.DefaultTenant}),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	pools.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func buildKBStore(ctx context.Context, cfg *config.Config) (kb.Store, error) {
	if cfg.HasS3() {
		store, err := kb.NewS3Store(ctx, kb.S3StoreConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 knowledge base store: %w", err)
		}
		log.Printf("knowledge base: S3 bucket '%s'", cfg.S3Bucket)
		return store, nil
	}

	log.Printf("knowledge base: directory '%s'", cfg.KBDir)
	return kb.NewDirStore(cfg.KBDir), nil
}

// executorProvider adapts TenantPools to the pipeline's provider interface.
type executorProvider struct {
	pools *database.TenantPools
}

func (p *executorProvider) Acquire(ctx context.Context, tenant string) (service.TenantExecutor, error) {
	return p.pools.Acquire(ctx, tenant)
}

// databaseLister serves tenant discovery. With a default tenant configured
// the listing runs over that tenant's pool; otherwise the rag database
// connection is used.
type databaseLister struct {
	pools         *database.TenantPools
	ragPool       *pgxpool.Pool
	defaultTenant string
}

func (l *databaseLister) ListDatabases(ctx context.Context) ([]string, error) {
	if l.defaultTenant != "" {
		return l.pools.ListDatabases(ctx, l.defaultTenant)
	}

	rows, err := l.ragPool.Query(ctx,
		`SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
