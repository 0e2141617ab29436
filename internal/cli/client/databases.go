package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// DatabasesResponse represents the databases API response.
type DatabasesResponse struct {
	Databases []string `json:"databases"`
}

// DatabasesCmd creates the databases command.
func DatabasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "databases",
		Short: "List tenant databases",
		Long:  "Lists the hospital databases available for querying.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClient(cmd)
			if err != nil {
				return err
			}
			return runDatabases(api, outputJSON)
		},
	}
}

func runDatabases(api *APIClient, outputJSON bool) error {
	resp, err := api.Get("/databases")
	if err != nil {
		return fmt.Errorf("failed to list databases: %w", err)
	}

	var result DatabasesResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse databases: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(result.Databases) == 0 {
		fmt.Println("No databases found.")
		return nil
	}
	for _, name := range result.Databases {
		fmt.Println(name)
	}
	return nil
}
