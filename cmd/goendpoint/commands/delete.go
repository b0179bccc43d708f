package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/goendpoint/internal/cli"
	"github.com/TimurManjosov/goendpoint/internal/client"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <service>",
	Short: "Delete a service's ruleset",
	Long: `Delete the ruleset registered for a service.

Examples:
  goendpoint delete storage --env prod
  goendpoint delete storage --env prod --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service := args[0]

		envCfg, effectiveEnv, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		// Confirm deletion unless --force
		if !deleteForce && !quiet {
			fmt.Printf("Are you sure you want to delete the ruleset for '%s' in environment '%s'? (y/N): ", service, effectiveEnv)
			reader := bufio.NewReader(os.Stdin)
			response, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read confirmation: %w", err)
			}
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "y" && response != "yes" {
				fmt.Println("Deletion cancelled")
				return nil
			}
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)

		if err := c.DeleteRuleset(context.Background(), service); err != nil {
			return fmt.Errorf("failed to delete ruleset: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully deleted ruleset for '%s' in environment '%s'\n", service, effectiveEnv)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip confirmation prompt")
}
