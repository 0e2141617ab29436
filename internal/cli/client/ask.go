package client

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// AskRequest represents the query API request.
type AskRequest struct {
	Question string `json:"question"`
	TenantID string `json:"tenant_id,omitempty"`
}

// AskDiagnostics carries failure detail from the server.
type AskDiagnostics struct {
	Stage   string `json:"stage"`
	Detail  string `json:"detail,omitempty"`
	RawText string `json:"raw_text,omitempty"`
}

// AskResponse represents the query API response.
type AskResponse struct {
	Outcome        string           `json:"outcome"`
	Message        string           `json:"message"`
	SQL            string           `json:"sql,omitempty"`
	Rows           []map[string]any `json:"rows,omitempty"`
	DetectedDomain string           `json:"detected_domain,omitempty"`
	Reasoning      string           `json:"reasoning,omitempty"`
	UnsafeTokens   []string         `json:"unsafe_tokens,omitempty"`
	DurationMs     int64            `json:"duration_ms"`
	Diagnostics    *AskDiagnostics  `json:"diagnostics,omitempty"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question against a hospital database",
		Long:  "Sends a natural-language question to the server, which generates and runs SQL against the selected tenant database.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClient(cmd)
			if err != nil {
				return err
			}
			return runAsk(api, args[0], outputJSON)
		},
	}

	return cmd
}

func runAsk(api *APIClient, question string, outputJSON bool) error {
	resp, err := api.Post("/query/run", AskRequest{
		Question: question,
		TenantID: api.Tenant(),
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	var result AskResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse query result: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printAskResult(&result)
	return nil
}

func printAskResult(result *AskResponse) {
	switch result.Outcome {
	case "executed":
		if result.DetectedDomain != "" {
			fmt.Printf("Domain: %s\n", result.DetectedDomain)
		}
		fmt.Printf("SQL: %s\n", result.SQL)
		if result.Reasoning != "" {
			fmt.Printf("Reasoning: %s\n", result.Reasoning)
		}
		fmt.Println()
		printRows(result.Rows)
		fmt.Printf("\n%d row(s) in %dms\n", len(result.Rows), result.DurationMs)
	case "blocked-unsafe":
		fmt.Printf("Blocked: %s\n", result.Message)
		fmt.Printf("SQL: %s\n", result.SQL)
		fmt.Printf("Forbidden keywords: %s\n", strings.Join(result.UnsafeTokens, ", "))
	default:
		fmt.Printf("%s: %s\n", result.Outcome, result.Message)
		if result.Diagnostics != nil && result.Diagnostics.Detail != "" {
			fmt.Printf("Detail: %s (stage: %s)\n", result.Diagnostics.Detail, result.Diagnostics.Stage)
		}
	}
}

func printRows(rows []map[string]any) {
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return
	}

	// stable column order across rows
	var columns []string
	for col := range rows[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	fmt.Println(strings.Join(columns, " | "))
	fmt.Println(strings.Repeat("-", len(strings.Join(columns, " | "))))
	for _, row := range rows {
		values := make([]string, 0, len(columns))
		for _, col := range columns {
			values = append(values, fmt.Sprintf("%v", row[col]))
		}
		fmt.Println(strings.Join(values, " | "))
	}
}
