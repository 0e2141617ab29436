package admin

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medika-labs/medquery/internal/config"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  "Apply pending migrations to the rag database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runMigrations(cfg.RagDatabaseURL)
		},
	}
	return cmd
}
