package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/goendpoint/internal/cli"
	"github.com/TimurManjosov/goendpoint/internal/client"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all rulesets",
	Long: `List all rulesets known to the server.

Examples:
  goendpoint list --env prod
  goendpoint list --env prod --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)

		rulesets, err := c.ListRulesets(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list rulesets: %w", err)
		}

		if !quiet {
			if len(rulesets) == 0 {
				fmt.Println("No rulesets found")
				return nil
			}
			return cli.PrintRulesets(rulesets, cli.OutputFormat(format))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
