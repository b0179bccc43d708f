package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	baseURL string
	apiKey  string
	env     string
	format  string
	quiet   bool
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "goendpoint",
	Short: "CLI tool for managing endpoint rulesets",
	Long: `Goendpoint is a command-line tool for managing endpoint rulesets in the goendpoint service.

It provides commands for inspecting, validating, importing and exporting
ruleset documents, and for resolving endpoints against the server.

Examples:
  goendpoint list --env prod
  goendpoint get storage --env prod
  goendpoint resolve storage --param Region=us-east-1
  goendpoint validate ruleset.json
  goendpoint export --env prod --output rulesets.yaml
  goendpoint import rulesets.yaml --env staging`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the goendpoint API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "Environment (dev, staging, prod)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}
