package ruleset

import (
	"errors"
	"testing"
)

func validDoc() *Document {
	return &Document{
		Version: "1.0",
		Parameters: map[string]ParamSpec{
			"Region": {Type: "String", Required: true},
		},
		Rules: []RuleSpec{
			{
				Type:     RuleEndpoint,
				Endpoint: &EndpointSpec{URL: "https://example.com"},
			},
		},
	}
}

func TestValidateAcceptsVersions(t *testing.T) {
	for _, v := range []string{"1.0", "1.0.0", "1.3", "1.9.2"} {
		doc := validDoc()
		doc.Version = v
		if err := Validate(doc); err != nil {
			t.Errorf("Validate(version %q): %v", v, err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
		want   error
	}{
		{
			name:   "empty version",
			mutate: func(d *Document) { d.Version = "" },
			want:   ErrInvalidVersion,
		},
		{
			name:   "garbage version",
			mutate: func(d *Document) { d.Version = "one point oh" },
			want:   ErrInvalidVersion,
		},
		{
			name:   "unsupported major",
			mutate: func(d *Document) { d.Version = "2.0" },
			want:   ErrInvalidVersion,
		},
		{
			name:   "pre 1.0",
			mutate: func(d *Document) { d.Version = "0.9" },
			want:   ErrInvalidVersion,
		},
		{
			name: "unknown parameter type",
			mutate: func(d *Document) {
				d.Parameters["Count"] = ParamSpec{Type: "Integer"}
			},
			want: ErrInvalidParameter,
		},
		{
			name: "parameter name with dots",
			mutate: func(d *Document) {
				d.Parameters["aws.region"] = ParamSpec{Type: "String"}
			},
			want: ErrInvalidParameter,
		},
		{
			name: "string default on boolean parameter",
			mutate: func(d *Document) {
				d.Parameters["UseFIPS"] = ParamSpec{Type: "Boolean", Default: "false"}
			},
			want: ErrInvalidParameter,
		},
		{
			name: "unknown rule type",
			mutate: func(d *Document) {
				d.Rules[0].Type = "redirect"
			},
			want: ErrInvalidRule,
		},
		{
			name: "endpoint rule without url",
			mutate: func(d *Document) {
				d.Rules[0].Endpoint = &EndpointSpec{}
			},
			want: ErrInvalidRule,
		},
		{
			name: "error rule without message",
			mutate: func(d *Document) {
				d.Rules[0] = RuleSpec{Type: RuleError}
			},
			want: ErrInvalidRule,
		},
		{
			name: "empty tree rule",
			mutate: func(d *Document) {
				d.Rules[0] = RuleSpec{Type: RuleTree}
			},
			want: ErrInvalidRule,
		},
		{
			name: "unknown function",
			mutate: func(d *Document) {
				d.Rules[0].Conditions = []ConditionSpec{{Fn: "regexMatch", Argv: []any{"x", "y"}}}
			},
			want: ErrInvalidCondition,
		},
		{
			name: "wrong arity",
			mutate: func(d *Document) {
				d.Rules[0].Conditions = []ConditionSpec{{Fn: "isSet", Argv: []any{map[string]any{"ref": "Region"}, true}}}
			},
			want: ErrInvalidCondition,
		},
		{
			name: "bad assign name",
			mutate: func(d *Document) {
				d.Rules[0].Conditions = []ConditionSpec{{
					Fn:     "isSet",
					Argv:   []any{map[string]any{"ref": "Region"}},
					Assign: "1bad",
				}}
			},
			want: ErrInvalidCondition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDoc()
			tt.mutate(doc)
			err := Validate(doc)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateNestedTree(t *testing.T) {
	doc := validDoc()
	doc.Rules = []RuleSpec{
		{
			Type: RuleTree,
			Rules: []RuleSpec{
				{
					Type: RuleTree,
					Rules: []RuleSpec{
						{Type: RuleEndpoint, Endpoint: &EndpointSpec{URL: "https://a.example.com"}},
					},
				},
				{Type: RuleError, Error: "nothing matched"},
			},
		},
	}
	if err := Validate(doc); err != nil {
		t.Fatalf("Validate nested tree: %v", err)
	}

	doc.Rules[0].Rules[0].Rules[0].Endpoint = nil
	if err := Validate(doc); !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("Validate = %v, want ErrInvalidRule", err)
	}
}

func TestValidateNilDocument(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Fatal("Validate(nil) succeeded, want error")
	}
}
