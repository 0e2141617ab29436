package main

import (
	"fmt"
	"os"

	"github.com/medika-labs/medquery/internal/cli"
	"github.com/medika-labs/medquery/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "medquery",
		Short: "Medquery CLI - Natural language queries over hospital databases",
		Long: `Medquery CLI sends natural-language questions to a medquery server.

Environment variables:
  MEDQUERY_API_URL     API base URL (default: http://localhost:8080)
  MEDQUERY_API_TOKEN   API token, if the server requires one
  MEDQUERY_TENANT      Default tenant database name`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-token", "", "API token for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	rootCmd.PersistentFlags().String("tenant", "", "Tenant database name (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.DatabasesCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
