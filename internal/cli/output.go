package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/goendpoint/internal/client"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintRulesets outputs rulesets in the specified format
func PrintRulesets(rulesets []client.Ruleset, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string][]client.Ruleset{"rulesets": rulesets})
	case FormatYAML:
		return printYAML(rulesets)
	case FormatTable:
		return printRulesetTable(rulesets)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintRuleset outputs a single ruleset in the specified format
func PrintRuleset(rs *client.Ruleset, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(rs)
	case FormatYAML:
		return printYAML(rs)
	case FormatTable:
		return printRulesetTable([]client.Ruleset{*rs})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintSnapshot outputs the server's full snapshot in the specified format
func PrintSnapshot(snap *client.Snapshot, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(snap)
	case FormatYAML:
		return printYAML(snap)
	case FormatTable:
		fmt.Printf("etag: %s\n", snap.ETag)
		rulesets := make([]client.Ruleset, 0, len(snap.Rulesets))
		for _, rs := range snap.Rulesets {
			rulesets = append(rulesets, rs)
		}
		return printRulesetTable(rulesets)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintResolveResult outputs a resolved endpoint in the specified format
func PrintResolveResult(result *client.ResolveResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(result)
	case FormatYAML:
		return printYAML(result)
	case FormatTable:
		return printResolveTable(result)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printRulesetTable(rulesets []client.Ruleset) error {
	sort.Slice(rulesets, func(i, j int) bool {
		return rulesets[i].Service < rulesets[j].Service
	})

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Service", "Env", "Size", "Updated At")

	for _, rs := range rulesets {
		table.Append(
			rs.Service,
			rs.Env,
			fmt.Sprintf("%d B", len(rs.Document)),
			rs.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}

	return table.Render()
}

func printResolveTable(result *client.ResolveResult) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")

	table.Append("service", result.Service)
	table.Append("url", result.URL)

	props := make([]string, 0, len(result.Properties))
	for name := range result.Properties {
		props = append(props, name)
	}
	sort.Strings(props)
	for _, name := range props {
		val, err := json.Marshal(result.Properties[name])
		if err != nil {
			return err
		}
		table.Append("property:"+name, string(val))
	}

	headers := make([]string, 0, len(result.Headers))
	for name := range result.Headers {
		headers = append(headers, name)
	}
	sort.Strings(headers)
	for _, name := range headers {
		for _, v := range result.Headers[name] {
			table.Append("header:"+name, v)
		}
	}

	return table.Render()
}
