package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/goendpoint/internal/cli"
	"github.com/TimurManjosov/goendpoint/internal/client"
	"github.com/TimurManjosov/goendpoint/internal/engine"
	"github.com/TimurManjosov/goendpoint/internal/partitions"
	"github.com/TimurManjosov/goendpoint/internal/ruleset"
)

var (
	resolveParams     []string
	resolveBoolParams []string
	resolveFile       string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <service>",
	Short: "Resolve an endpoint for a service",
	Long: `Resolve an endpoint by evaluating the service's ruleset on the server,
or a local ruleset document with --file.

String parameters are passed with --param, boolean parameters with --bool-param.

Examples:
  goendpoint resolve storage --param Region=us-east-1
  goendpoint resolve storage --param Region=us-east-1 --bool-param UseFIPS=true
  goendpoint resolve storage --file storage.json --param Region=eu-west-1
  goendpoint resolve storage --param Region=eu-west-1 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service := args[0]

		params := make(map[string]any, len(resolveParams)+len(resolveBoolParams))
		for _, kv := range resolveParams {
			name, value, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("invalid --param %q, expected Name=value", kv)
			}
			params[name] = value
		}
		for _, kv := range resolveBoolParams {
			name, value, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("invalid --bool-param %q, expected Name=true|false", kv)
			}
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid --bool-param %q: %w", kv, err)
			}
			params[name] = b
		}

		var result *client.ResolveResult
		var err error
		if resolveFile != "" {
			result, err = resolveLocal(service, resolveFile, params)
		} else {
			result, err = resolveRemote(service, params)
		}
		if err != nil {
			return err
		}

		if quiet {
			fmt.Println(result.URL)
			return nil
		}
		return cli.PrintResolveResult(result, cli.OutputFormat(format))
	},
}

func resolveRemote(service string, params map[string]any) (*client.ResolveResult, error) {
	envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)

	result, err := c.Resolve(context.Background(), service, params)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve: %w", err)
	}
	return result, nil
}

// resolveLocal compiles a document from disk and evaluates it in-process,
// without contacting the server.
func resolveLocal(service, filename string, params map[string]any) (*client.ResolveResult, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var doc *ruleset.Document
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		doc, err = ruleset.DecodeYAML(data)
	default:
		doc, err = ruleset.DecodeJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	rs, err := ruleset.Compile(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	input := make(map[engine.Identifier]engine.Value, len(params))
	for name, raw := range params {
		switch x := raw.(type) {
		case string:
			input[engine.Identifier(name)] = engine.String(x)
		case bool:
			input[engine.Identifier(name)] = engine.Bool(x)
		}
	}

	v, err := engine.New(partitions.Default()).Evaluate(rs, input)
	if err != nil {
		var ruleErr *engine.RuleError
		if errors.As(err, &ruleErr) {
			return nil, fmt.Errorf("ruleset rejected the inputs: %s", ruleErr.Message())
		}
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}
	ep, err := v.ExpectEndpoint()
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	return &client.ResolveResult{
		Service:    service,
		URL:        ep.URL,
		Properties: plainProperties(ep.Properties),
		Headers:    ep.Headers,
	}, nil
}

func plainProperties(props map[string]engine.Value) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for name, v := range props {
		out[name] = plainValue(v)
	}
	return out
}

func plainValue(v engine.Value) any {
	switch v.Kind() {
	case engine.KindNone:
		return nil
	case engine.KindString:
		s, _ := v.ExpectString()
		return s
	case engine.KindBool:
		b, _ := v.ExpectBool()
		return b
	case engine.KindArray:
		items, _ := v.ExpectArray()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = plainValue(item)
		}
		return out
	case engine.KindRecord:
		fields, _ := v.ExpectRecord()
		out := make(map[string]any, len(fields))
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out[name] = plainValue(fields[name])
		}
		return out
	default:
		return v.String()
	}
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringArrayVar(&resolveParams, "param", nil, "String parameter (Name=value), repeatable")
	resolveCmd.Flags().StringArrayVar(&resolveBoolParams, "bool-param", nil, "Boolean parameter (Name=true|false), repeatable")
	resolveCmd.Flags().StringVar(&resolveFile, "file", "", "Evaluate a local ruleset document instead of the server")
}
