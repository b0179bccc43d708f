package ruleset

import (
	"errors"
	"testing"

	"github.com/TimurManjosov/goendpoint/internal/engine"
	"github.com/TimurManjosov/goendpoint/internal/partitions"
)

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		parts int
	}{
		{name: "plain text", in: "https://example.com", parts: 1},
		{name: "empty", in: "", parts: 1},
		{name: "single ref", in: "{Region}", parts: 1},
		{name: "mixed", in: "https://{Bucket}.s3.{Region}.amazonaws.com", parts: 5},
		{name: "shorthand", in: "{PartitionResult#dnsSuffix}", parts: 1},
		{name: "escaped braces", in: "{{literal}}", parts: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lit, err := parseTemplate(tt.in)
			if err != nil {
				t.Fatalf("parseTemplate(%q): %v", tt.in, err)
			}
			if len(lit.Parts) != tt.parts {
				t.Fatalf("parseTemplate(%q) has %d parts, want %d", tt.in, len(lit.Parts), tt.parts)
			}
		})
	}
}

func TestParseTemplateEscapes(t *testing.T) {
	lit, err := parseTemplate("{{not-a-ref}}")
	if err != nil {
		t.Fatalf("parseTemplate: %v", err)
	}
	text, ok := lit.Parts[0].(engine.TextPart)
	if !ok {
		t.Fatalf("part is %T, want TextPart", lit.Parts[0])
	}
	if text.Text != "{not-a-ref}" {
		t.Fatalf("text = %q, want %q", text.Text, "{not-a-ref}")
	}
}

func TestParseTemplateErrors(t *testing.T) {
	for _, in := range []string{"{unclosed", "stray}", "{}", "{#path}", "{Ref#}"} {
		if _, err := parseTemplate(in); err == nil {
			t.Errorf("parseTemplate(%q) succeeded, want error", in)
		}
	}
}

func TestParseTemplateShorthand(t *testing.T) {
	lit, err := parseTemplate("{PartitionResult#dnsSuffix}")
	if err != nil {
		t.Fatalf("parseTemplate: %v", err)
	}
	part, ok := lit.Parts[0].(engine.ExprPart)
	if !ok {
		t.Fatalf("part is %T, want ExprPart", lit.Parts[0])
	}
	call, ok := part.Expr.(*engine.Call)
	if !ok || call.Fn != engine.FnGetAttr {
		t.Fatalf("shorthand compiled to %#v, want getAttr call", part.Expr)
	}
	ref, ok := call.Args[0].(*engine.Ref)
	if !ok || ref.Name != "PartitionResult" {
		t.Fatalf("getAttr target = %#v, want ref PartitionResult", call.Args[0])
	}
}

func TestCompileExpr(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "bool", in: true, want: "*engine.BoolLiteral"},
		{name: "int from yaml", in: 4, want: "*engine.IntLiteral"},
		{name: "int from json", in: float64(4), want: "*engine.IntLiteral"},
		{name: "ref", in: map[string]any{"ref": "Region"}, want: "*engine.Ref"},
		{name: "call", in: map[string]any{"fn": "isSet", "argv": []any{map[string]any{"ref": "Region"}}}, want: "*engine.Call"},
		{name: "record", in: map[string]any{"authSchemes": []any{"sigv4"}}, want: "*engine.RecordLiteral"},
		{name: "array", in: []any{"a", "b"}, want: "*engine.ArrayLiteral"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := compileExpr(tt.in)
			if err != nil {
				t.Fatalf("compileExpr: %v", err)
			}
			if got := typeName(expr); got != tt.want {
				t.Fatalf("compileExpr(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func typeName(e engine.Expr) string {
	switch e.(type) {
	case *engine.BoolLiteral:
		return "*engine.BoolLiteral"
	case *engine.IntLiteral:
		return "*engine.IntLiteral"
	case *engine.StringLiteral:
		return "*engine.StringLiteral"
	case *engine.Ref:
		return "*engine.Ref"
	case *engine.Call:
		return "*engine.Call"
	case *engine.RecordLiteral:
		return "*engine.RecordLiteral"
	case *engine.ArrayLiteral:
		return "*engine.ArrayLiteral"
	}
	return "unknown"
}

func TestCompileExprErrors(t *testing.T) {
	for _, in := range []any{
		nil,
		float64(1.5),
		map[string]any{"fn": "noSuchFn", "argv": []any{}},
		map[string]any{"ref": ""},
	} {
		if _, err := compileExpr(in); err == nil {
			t.Errorf("compileExpr(%v) succeeded, want error", in)
		}
	}
}

const regionalDoc = `{
  "version": "1.0",
  "parameters": {
    "Region": {"type": "String", "required": true, "builtIn": "AWS::Region"},
    "UseFIPS": {"type": "Boolean", "required": true, "default": false}
  },
  "rules": [
    {
      "conditions": [
        {"fn": "aws.partition", "argv": [{"ref": "Region"}], "assign": "PartitionResult"}
      ],
      "type": "tree",
      "rules": [
        {
          "conditions": [
            {"fn": "booleanEquals", "argv": [{"ref": "UseFIPS"}, true]}
          ],
          "type": "endpoint",
          "endpoint": {
            "url": "https://service-fips.{Region}.{PartitionResult#dnsSuffix}"
          }
        },
        {
          "conditions": [],
          "type": "endpoint",
          "endpoint": {
            "url": "https://service.{Region}.{PartitionResult#dnsSuffix}",
            "properties": {"authSchemes": [{"name": "sigv4", "signingRegion": "{Region}"}]},
            "headers": {"x-amz-region-set": ["{Region}"]}
          }
        }
      ]
    },
    {
      "conditions": [],
      "type": "error",
      "error": "region {Region} is not in any known partition"
    }
  ]
}`

func TestCompileAndEvaluate(t *testing.T) {
	doc, err := DecodeJSON([]byte(regionalDoc))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	rs, err := Compile(doc)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(rs.Parameters) != 2 {
		t.Fatalf("compiled %d parameters, want 2", len(rs.Parameters))
	}
	if rs.Parameters[0].Name != "Region" || !rs.Parameters[0].Required {
		t.Fatalf("parameters not ordered by name: %+v", rs.Parameters[0])
	}
	// builtIn and documentation stay on the document; the compiled form
	// carries only binding metadata.
	if doc.Parameters["Region"].BuiltIn != "AWS::Region" {
		t.Fatalf("document lost builtIn metadata: %+v", doc.Parameters["Region"])
	}
	if rs.Parameters[1].Default == nil || !rs.Parameters[1].Default.Equal(engine.Bool(false)) {
		t.Fatalf("UseFIPS default = %v, want false", rs.Parameters[1].Default)
	}

	ev := engine.New(partitions.Default())

	got, err := ev.Evaluate(rs, map[engine.Identifier]engine.Value{
		"Region": engine.String("eu-west-1"),
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	ep, err := got.ExpectEndpoint()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if ep.URL != "https://service.eu-west-1.amazonaws.com" {
		t.Errorf("url = %q, want %q", ep.URL, "https://service.eu-west-1.amazonaws.com")
	}
	if hdr := ep.Headers["x-amz-region-set"]; len(hdr) != 1 || hdr[0] != "eu-west-1" {
		t.Errorf("x-amz-region-set = %v, want [eu-west-1]", hdr)
	}
	schemes, err := ep.Properties["authSchemes"].ExpectArray()
	if err != nil {
		t.Fatalf("authSchemes: %v", err)
	}
	rec, err := schemes[0].ExpectRecord()
	if err != nil {
		t.Fatalf("authSchemes[0]: %v", err)
	}
	if !rec["signingRegion"].Equal(engine.String("eu-west-1")) {
		t.Errorf("signingRegion = %s, want eu-west-1", rec["signingRegion"])
	}

	got, err = ev.Evaluate(rs, map[engine.Identifier]engine.Value{
		"Region":  engine.String("eu-west-1"),
		"UseFIPS": engine.Bool(true),
	})
	if err != nil {
		t.Fatalf("Evaluate fips: %v", err)
	}
	ep, err = got.ExpectEndpoint()
	if err != nil {
		t.Fatalf("fips result: %v", err)
	}
	if ep.URL != "https://service-fips.eu-west-1.amazonaws.com" {
		t.Errorf("fips url = %q", ep.URL)
	}
}

func TestCompileAndEvaluateErrorRule(t *testing.T) {
	doc := &Document{
		Version: "1.0",
		Parameters: map[string]ParamSpec{
			"Region": {Type: "String"},
		},
		Rules: []RuleSpec{
			{
				Conditions: []ConditionSpec{
					{Fn: "not", Argv: []any{map[string]any{"fn": "isSet", "argv": []any{map[string]any{"ref": "Region"}}}}},
				},
				Type:  RuleError,
				Error: "a region must be provided",
			},
			{
				Type:     RuleEndpoint,
				Endpoint: &EndpointSpec{URL: "https://global.example.com"},
			},
		},
	}
	rs, err := Compile(doc)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	ev := engine.New(partitions.Default())

	_, err = ev.Evaluate(rs, nil)
	var ruleErr *engine.RuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("Evaluate without region: %v, want RuleError", err)
	}
	if ruleErr.Message() != "a region must be provided" {
		t.Errorf("message = %q", ruleErr.Message())
	}

	got, err := ev.Evaluate(rs, map[engine.Identifier]engine.Value{"Region": engine.String("us-east-1")})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	ep, err := got.ExpectEndpoint()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if ep.URL != "https://global.example.com" {
		t.Errorf("url = %q", ep.URL)
	}
}

func TestDecodeYAMLRoundTrip(t *testing.T) {
	src := []byte(`
version: "1.0"
parameters:
  Bucket:
    type: String
rules:
  - conditions:
      - fn: isSet
        argv:
          - ref: Bucket
      - fn: substring
        argv: [{ref: Bucket}, 0, 4, false]
        assign: prefix
    type: endpoint
    endpoint:
      url: "https://{Bucket}.example.com"
  - conditions: []
    type: error
    error: bucket not set
`)
	doc, err := DecodeYAML(src)
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	rs, err := Compile(doc)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	ev := engine.New(partitions.Default())
	got, err := ev.Evaluate(rs, map[engine.Identifier]engine.Value{"Bucket": engine.String("assets")})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	ep, err := got.ExpectEndpoint()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if ep.URL != "https://assets.example.com" {
		t.Errorf("url = %q", ep.URL)
	}

	out, err := EncodeJSON(doc)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	doc2, err := DecodeJSON(out)
	if err != nil {
		t.Fatalf("DecodeJSON(EncodeJSON): %v", err)
	}
	if _, err := Compile(doc2); err != nil {
		t.Fatalf("Compile after round trip: %v", err)
	}
}
