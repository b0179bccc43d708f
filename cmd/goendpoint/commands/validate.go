package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/goendpoint/internal/ruleset"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate ruleset documents locally",
	Long: `Validate and compile ruleset documents without contacting the server.

Accepts JSON and YAML documents.

Examples:
  goendpoint validate storage.json
  goendpoint validate rulesets/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, filename := range args {
			if err := validateFile(filename); err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s: %v\n", filename, err)
				continue
			}
			if !quiet {
				fmt.Printf("%s: ok\n", filename)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d document(s) failed validation", failed)
		}
		return nil
	},
}

func validateFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	var doc *ruleset.Document
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		doc, err = ruleset.DecodeYAML(data)
	default:
		doc, err = ruleset.DecodeJSON(data)
	}
	if err != nil {
		return err
	}

	_, err = ruleset.Compile(doc)
	return err
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
