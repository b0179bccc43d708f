package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/goendpoint/internal/cli"
	"github.com/TimurManjosov/goendpoint/internal/client"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Show the server's current snapshot",
	Long: `Fetch the server's full ruleset snapshot, including its ETag.

Examples:
  goendpoint snapshot
  goendpoint snapshot --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)

		snap, err := c.GetSnapshot(context.Background())
		if err != nil {
			return fmt.Errorf("failed to fetch snapshot: %w", err)
		}

		if quiet {
			fmt.Println(snap.ETag)
			return nil
		}
		return cli.PrintSnapshot(snap, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
