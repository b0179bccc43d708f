package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/goendpoint/internal/cli"
	"github.com/TimurManjosov/goendpoint/internal/client"
)

var pushCmd = &cobra.Command{
	Use:   "push <service> <file>",
	Short: "Upload a ruleset document for a service",
	Long: `Create or replace the ruleset registered for a service.

YAML documents are converted to JSON before upload.

Examples:
  goendpoint push storage storage.json --env prod
  goendpoint push storage storage.yaml --env staging`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, filename := args[0], args[1]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		switch filepath.Ext(filename) {
		case ".yaml", ".yml":
			var doc any
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("failed to parse file: %w", err)
			}
			data, err = json.Marshal(normalizeYAML(doc))
			if err != nil {
				return fmt.Errorf("failed to convert to JSON: %w", err)
			}
		}

		envCfg, effectiveEnv, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)

		if err := c.UpsertRuleset(context.Background(), service, data); err != nil {
			return fmt.Errorf("failed to push ruleset: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully pushed ruleset for '%s' to environment '%s'\n", service, effectiveEnv)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)
}
