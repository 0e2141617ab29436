package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// InitCmd creates the init command.
func InitCmd() *cobra.Command {
	var (
		apiToken string
		apiURL   string
		tenant   string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Save client configuration",
		Long:  "Stores the server URL, API token, and default tenant in the user config directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runInit(apiToken, apiURL, tenant, outputJSON)
		},
	}

	cmd.Flags().StringVar(&apiToken, "api-token", "", "API token for authentication (optional)")
	cmd.Flags().StringVar(&apiURL, "api-url", defaultAPIURL, "API base URL")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Default tenant database name")

	return cmd
}

func runInit(apiToken, apiURL, tenant string, outputJSON bool) error {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	cfg := &GlobalConfig{
		APIToken: apiToken,
		APIURL:   apiURL,
		Tenant:   tenant,
	}

	// verify the server is reachable before persisting
	api := NewAPIClientWithConfig(apiToken, apiURL, tenant)
	if _, err := api.Get("/health"); err != nil {
		return fmt.Errorf("server check failed: %w", err)
	}

	if err := SaveGlobalConfig(cfg); err != nil {
		return err
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if outputJSON {
		output, _ := json.MarshalIndent(map[string]string{
			"config_path": configPath,
			"api_url":     apiURL,
			"tenant":      tenant,
		}, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Configuration saved to %s\n", configPath)
	if tenant != "" {
		fmt.Printf("Default tenant: %s\n", tenant)
	}
	return nil
}
