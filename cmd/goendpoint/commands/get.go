package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/goendpoint/internal/cli"
	"github.com/TimurManjosov/goendpoint/internal/client"
)

var getOutput string

var getCmd = &cobra.Command{
	Use:   "get <service>",
	Short: "Get a service's ruleset",
	Long: `Get the ruleset document registered for a service.

Examples:
  goendpoint get storage --env prod
  goendpoint get storage --format json
  goendpoint get storage --output storage.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service := args[0]

		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)

		rs, err := c.GetRuleset(context.Background(), service)
		if err != nil {
			return fmt.Errorf("failed to get ruleset: %w", err)
		}

		// Write the raw document when an output file is requested
		if getOutput != "" {
			if err := os.WriteFile(getOutput, rs.Document, 0o644); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			if !quiet {
				fmt.Printf("Wrote %s\n", getOutput)
			}
			return nil
		}

		if !quiet {
			return cli.PrintRuleset(rs, cli.OutputFormat(format))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVar(&getOutput, "output", "", "Write the raw document to a file")
}
