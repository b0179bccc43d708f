// Package ruleset handles the document form of endpoint rulesets: decoding
// JSON or YAML sources, validating them, and compiling them into the
// engine's expression tree. The engine itself never parses text; this
// package is the loader in front of it.
package ruleset

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the wire form of a ruleset.
type Document struct {
	Version    string               `json:"version" yaml:"version"`
	Parameters map[string]ParamSpec `json:"parameters" yaml:"parameters"`
	Rules      []RuleSpec           `json:"rules" yaml:"rules"`
}

// ParamSpec declares one input parameter.
type ParamSpec struct {
	Type          string `json:"type" yaml:"type"`
	Required      bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Default       any    `json:"default,omitempty" yaml:"default,omitempty"`
	BuiltIn       string `json:"builtIn,omitempty" yaml:"builtIn,omitempty"`
	Documentation string `json:"documentation,omitempty" yaml:"documentation,omitempty"`
}

// RuleSpec is one rule node. Type selects which payload field applies:
// "tree" uses Rules, "error" uses Error, "endpoint" uses Endpoint.
type RuleSpec struct {
	Documentation string          `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	Conditions    []ConditionSpec `json:"conditions" yaml:"conditions"`
	Type          string          `json:"type" yaml:"type"`
	Rules         []RuleSpec      `json:"rules,omitempty" yaml:"rules,omitempty"`
	Error         any             `json:"error,omitempty" yaml:"error,omitempty"`
	Endpoint      *EndpointSpec   `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// ConditionSpec is one guard: a function call plus an optional result name.
type ConditionSpec struct {
	Fn     string `json:"fn" yaml:"fn"`
	Argv   []any  `json:"argv" yaml:"argv"`
	Assign string `json:"assign,omitempty" yaml:"assign,omitempty"`
}

// EndpointSpec is an endpoint rule's outcome before compilation.
type EndpointSpec struct {
	URL        any              `json:"url" yaml:"url"`
	Properties map[string]any   `json:"properties,omitempty" yaml:"properties,omitempty"`
	Headers    map[string][]any `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Rule type discriminators.
const (
	RuleTree     = "tree"
	RuleError    = "error"
	RuleEndpoint = "endpoint"
)

// DecodeJSON parses a JSON ruleset document.
func DecodeJSON(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset JSON: %w", err)
	}
	return &doc, nil
}

// DecodeYAML parses a YAML ruleset document. JSON being valid YAML, this
// also accepts JSON sources.
func DecodeYAML(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset YAML: %w", err)
	}
	return &doc, nil
}

// EncodeJSON renders doc as canonical JSON for storage and hashing.
func EncodeJSON(doc *Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ruleset: %w", err)
	}
	return data, nil
}
