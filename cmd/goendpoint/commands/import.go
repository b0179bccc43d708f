package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/goendpoint/internal/cli"
	"github.com/TimurManjosov/goendpoint/internal/client"
)

var (
	importDryRun bool
	importForce  bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import rulesets from a file",
	Long: `Import rulesets from a YAML or JSON file produced by export.

Examples:
  goendpoint import rulesets.yaml --env prod
  goendpoint import rulesets.yaml --env staging --dry-run
  goendpoint import rulesets.yaml --env prod --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		var importData ExportFormat
		if err := yaml.Unmarshal(data, &importData); err != nil {
			return fmt.Errorf("failed to parse file: %w", err)
		}

		if len(importData.Rulesets) == 0 {
			return fmt.Errorf("no rulesets found in file")
		}

		if verbose {
			fmt.Printf("Found %d ruleset(s) to import\n", len(importData.Rulesets))
		}

		// Dry run mode - just show what would be imported
		if importDryRun {
			fmt.Println("Dry run mode - the following rulesets would be imported:")
			for _, rs := range importData.Rulesets {
				fmt.Printf("  - %s\n", rs.Service)
			}
			return nil
		}

		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)
		ctx := context.Background()

		successCount := 0
		errorCount := 0

		for _, rs := range importData.Rulesets {
			// YAML decodes the document as generic data; the API takes JSON
			doc, err := json.Marshal(normalizeYAML(rs.Document))
			if err != nil {
				return fmt.Errorf("ruleset %s: %w", rs.Service, err)
			}

			if verbose {
				fmt.Printf("Importing ruleset: %s\n", rs.Service)
			}

			if err := c.UpsertRuleset(ctx, rs.Service, doc); err != nil {
				errorCount++
				fmt.Fprintf(os.Stderr, "Failed to import ruleset '%s': %v\n", rs.Service, err)
				if !importForce {
					return fmt.Errorf("import failed, use --force to continue on errors")
				}
			} else {
				successCount++
			}
		}

		if !quiet {
			fmt.Printf("Import complete: %d succeeded, %d failed\n", successCount, errorCount)
		}

		if errorCount > 0 && !importForce {
			return fmt.Errorf("import completed with errors")
		}

		return nil
	},
}

// normalizeYAML rewrites map[any]any trees produced by older YAML decoders
// into map[string]any so json.Marshal accepts them.
func normalizeYAML(v any) any {
	switch x := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate without importing")
	importCmd.Flags().BoolVar(&importForce, "force", false, "Continue on errors")
}
