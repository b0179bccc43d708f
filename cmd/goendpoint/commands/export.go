package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/goendpoint/internal/cli"
	"github.com/TimurManjosov/goendpoint/internal/client"
)

// ExportFormat is the file layout shared by export and import.
type ExportFormat struct {
	Rulesets []ExportRuleset `yaml:"rulesets" json:"rulesets"`
}

// ExportRuleset pairs a service name with its ruleset document. The
// document is kept as generic data so it survives a YAML round trip.
type ExportRuleset struct {
	Service  string `yaml:"service" json:"service"`
	Env      string `yaml:"env,omitempty" json:"env,omitempty"`
	Document any    `yaml:"document" json:"document"`
}

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export rulesets to a file",
	Long: `Export all rulesets to a YAML or JSON file.

The file format is detected from the --output extension (.json for JSON,
anything else for YAML). Without --output, YAML is written to stdout.

Examples:
  goendpoint export --env prod --output rulesets.yaml
  goendpoint export --env prod --output rulesets.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		envCfg, effectiveEnv, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)

		rulesets, err := c.ListRulesets(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list rulesets: %w", err)
		}
		sort.Slice(rulesets, func(i, j int) bool {
			return rulesets[i].Service < rulesets[j].Service
		})

		out := ExportFormat{Rulesets: make([]ExportRuleset, 0, len(rulesets))}
		for _, rs := range rulesets {
			var doc any
			if err := json.Unmarshal(rs.Document, &doc); err != nil {
				return fmt.Errorf("ruleset %s: %w", rs.Service, err)
			}
			out.Rulesets = append(out.Rulesets, ExportRuleset{
				Service:  rs.Service,
				Env:      effectiveEnv,
				Document: doc,
			})
		}

		var data []byte
		if strings.HasSuffix(exportOutput, ".json") {
			data, err = json.MarshalIndent(out, "", "  ")
		} else {
			data, err = yaml.Marshal(out)
		}
		if err != nil {
			return fmt.Errorf("failed to marshal export: %w", err)
		}

		if exportOutput == "" {
			fmt.Print(string(data))
			return nil
		}
		if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		if !quiet {
			fmt.Printf("Exported %d ruleset(s) to %s\n", len(out.Rulesets), exportOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Output file (default stdout)")
}
