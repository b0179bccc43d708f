package ruleset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TimurManjosov/goendpoint/internal/engine"
)

// fnKinds maps wire function names to engine built-ins. The aws.-prefixed
// spellings are the canonical wire names for the partition and ARN
// built-ins; the bare spellings are accepted for hand-written documents.
var fnKinds = map[string]engine.FuncKind{
	"booleanEquals":    engine.FnBooleanEquals,
	"stringEquals":     engine.FnStringEquals,
	"isSet":            engine.FnIsSet,
	"not":              engine.FnNot,
	"getAttr":          engine.FnGetAttr,
	"isValidHostLabel": engine.FnIsValidHostLabel,
	"parseURL":         engine.FnParseURL,
	"aws.parseArn":     engine.FnParseArn,
	"parseArn":         engine.FnParseArn,
	"aws.partition":    engine.FnPartition,
	"partition":        engine.FnPartition,
	"substring":        engine.FnSubstring,
	"uriEncode":        engine.FnURIEncode,
}

// fnArity is the required argument count per wire function name.
var fnArity = map[string]int{
	"booleanEquals":    2,
	"stringEquals":     2,
	"isSet":            1,
	"not":              1,
	"getAttr":          2,
	"isValidHostLabel": 2,
	"parseURL":         1,
	"aws.parseArn":     1,
	"parseArn":         1,
	"aws.partition":    1,
	"partition":        1,
	"substring":        4,
	"uriEncode":        1,
}

// Compile validates doc and lowers it into the engine's rule tree. The
// result is immutable and safe to share across concurrent evaluations.
func Compile(doc *Document) (*engine.Ruleset, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}

	rs := &engine.Ruleset{Version: doc.Version}

	// Parameter declarations are a map on the wire; order them by name so
	// compilation is deterministic.
	names := make([]string, 0, len(doc.Parameters))
	for name := range doc.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		spec := doc.Parameters[name]
		param := engine.Parameter{
			Name:     engine.Identifier(name),
			Type:     engine.ParamType(spec.Type),
			Required: spec.Required,
		}
		if spec.Default != nil {
			v, err := literalValue(spec.Default)
			if err != nil {
				return nil, fmt.Errorf("parameter %q default: %w", name, err)
			}
			param.Default = &v
		}
		rs.Parameters = append(rs.Parameters, param)
	}

	rules, err := compileRules(doc.Rules)
	if err != nil {
		return nil, err
	}
	rs.Rules = rules
	return rs, nil
}

func compileRules(specs []RuleSpec) ([]engine.Rule, error) {
	rules := make([]engine.Rule, 0, len(specs))
	for i, spec := range specs {
		rule, err := compileRule(&spec)
		if err != nil {
			return nil, fmt.Errorf("rule[%d]: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func compileRule(spec *RuleSpec) (engine.Rule, error) {
	conds, err := compileConditions(spec.Conditions)
	if err != nil {
		return nil, err
	}

	switch spec.Type {
	case RuleTree:
		children, err := compileRules(spec.Rules)
		if err != nil {
			return nil, err
		}
		return &engine.TreeRule{Conds: conds, Rules: children}, nil
	case RuleError:
		expr, err := compileExpr(spec.Error)
		if err != nil {
			return nil, fmt.Errorf("error expression: %w", err)
		}
		return &engine.ErrorRule{Conds: conds, Error: expr}, nil
	case RuleEndpoint:
		tpl, err := compileEndpoint(spec.Endpoint)
		if err != nil {
			return nil, err
		}
		return &engine.EndpointRule{Conds: conds, Endpoint: *tpl}, nil
	default:
		return nil, fmt.Errorf("unknown rule type %q", spec.Type)
	}
}

func compileConditions(specs []ConditionSpec) ([]engine.Condition, error) {
	conds := make([]engine.Condition, 0, len(specs))
	for i, spec := range specs {
		call, err := compileCall(spec.Fn, spec.Argv)
		if err != nil {
			return nil, fmt.Errorf("condition[%d]: %w", i, err)
		}
		conds = append(conds, engine.Condition{
			Fn:     *call,
			Result: engine.Identifier(spec.Assign),
		})
	}
	return conds, nil
}

func compileCall(name string, argv []any) (*engine.Call, error) {
	kind, ok := fnKinds[name]
	if !ok {
		return nil, fmt.Errorf("unknown function %q", name)
	}
	args := make([]engine.Expr, 0, len(argv))
	for i, raw := range argv {
		arg, err := compileExpr(raw)
		if err != nil {
			return nil, fmt.Errorf("%s argv[%d]: %w", name, i, err)
		}
		args = append(args, arg)
	}
	return &engine.Call{Fn: kind, Args: args}, nil
}

func compileEndpoint(spec *EndpointSpec) (*engine.EndpointTemplate, error) {
	urlExpr, err := compileExpr(spec.URL)
	if err != nil {
		return nil, fmt.Errorf("endpoint url: %w", err)
	}
	tpl := &engine.EndpointTemplate{URL: urlExpr}

	if len(spec.Properties) > 0 {
		tpl.Properties = make(map[string]engine.Expr, len(spec.Properties))
		for name, raw := range spec.Properties {
			expr, err := compileExpr(raw)
			if err != nil {
				return nil, fmt.Errorf("endpoint property %q: %w", name, err)
			}
			tpl.Properties[name] = expr
		}
	}
	if len(spec.Headers) > 0 {
		tpl.Headers = make(map[string][]engine.Expr, len(spec.Headers))
		for name, raws := range spec.Headers {
			exprs := make([]engine.Expr, 0, len(raws))
			for i, raw := range raws {
				expr, err := compileExpr(raw)
				if err != nil {
					return nil, fmt.Errorf("endpoint header %q[%d]: %w", name, i, err)
				}
				exprs = append(exprs, expr)
			}
			tpl.Headers[name] = exprs
		}
	}
	return tpl, nil
}

// compileExpr lowers a decoded wire value into an expression. JSON decodes
// numbers as float64 and YAML as int; both are accepted for the integer
// literals built-ins take structurally.
func compileExpr(raw any) (engine.Expr, error) {
	switch x := raw.(type) {
	case bool:
		return &engine.BoolLiteral{Value: x}, nil
	case string:
		return parseTemplate(x)
	case int:
		return &engine.IntLiteral{Value: x}, nil
	case int64:
		return &engine.IntLiteral{Value: int(x)}, nil
	case float64:
		n := int(x)
		if float64(n) != x {
			return nil, fmt.Errorf("non-integer number %v", x)
		}
		return &engine.IntLiteral{Value: n}, nil
	case []any:
		items := make([]engine.Expr, 0, len(x))
		for i, item := range x {
			expr, err := compileExpr(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, expr)
		}
		return &engine.ArrayLiteral{Items: items}, nil
	case map[string]any:
		if ref, ok := x["ref"]; ok && len(x) == 1 {
			name, ok := ref.(string)
			if !ok || name == "" {
				return nil, fmt.Errorf("ref must be a non-empty string, got %v", ref)
			}
			return &engine.Ref{Name: engine.Identifier(name)}, nil
		}
		if fn, ok := x["fn"]; ok {
			name, ok := fn.(string)
			if !ok {
				return nil, fmt.Errorf("fn must be a string, got %v", fn)
			}
			argv, _ := x["argv"].([]any)
			return compileCall(name, argv)
		}
		fields := make(map[string]engine.Expr, len(x))
		for name, raw := range x {
			expr, err := compileExpr(raw)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			fields[name] = expr
		}
		return &engine.RecordLiteral{Fields: fields}, nil
	case nil:
		return nil, fmt.Errorf("missing expression")
	default:
		return nil, fmt.Errorf("unsupported literal type %T", raw)
	}
}

// literalValue converts a parameter default into a runtime Value. Defaults
// are plain constants; templates and references are not allowed here.
func literalValue(raw any) (engine.Value, error) {
	switch x := raw.(type) {
	case bool:
		return engine.Bool(x), nil
	case string:
		return engine.String(x), nil
	default:
		return engine.None(), fmt.Errorf("defaults must be strings or booleans, got %T", raw)
	}
}

// parseTemplate splits a string template into fixed text and embedded
// expressions. "{Name}" references an identifier, "{Name#attr.path}" is
// shorthand for getAttr on that reference, and "{{"/"}}" escape literal
// braces.
func parseTemplate(s string) (*engine.StringLiteral, error) {
	var parts []engine.TemplatePart
	var text []byte
	i := 0
	for i < len(s) {
		switch s[i] {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				text = append(text, '{')
				i += 2
				continue
			}
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unclosed '{' in template %q", s)
			}
			expr, err := parseTemplateExpr(s[i+1 : i+end])
			if err != nil {
				return nil, fmt.Errorf("template %q: %w", s, err)
			}
			if len(text) > 0 {
				parts = append(parts, engine.TextPart{Text: string(text)})
				text = nil
			}
			parts = append(parts, engine.ExprPart{Expr: expr})
			i += end + 1
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				text = append(text, '}')
				i += 2
				continue
			}
			return nil, fmt.Errorf("unmatched '}' in template %q", s)
		default:
			text = append(text, s[i])
			i++
		}
	}
	if len(text) > 0 || len(parts) == 0 {
		parts = append(parts, engine.TextPart{Text: string(text)})
	}
	return &engine.StringLiteral{Parts: parts}, nil
}

func parseTemplateExpr(inner string) (engine.Expr, error) {
	if inner == "" {
		return nil, fmt.Errorf("empty expression")
	}
	if hash := strings.IndexByte(inner, '#'); hash >= 0 {
		name, path := inner[:hash], inner[hash+1:]
		if name == "" || path == "" {
			return nil, fmt.Errorf("malformed shorthand %q", inner)
		}
		return &engine.Call{
			Fn: engine.FnGetAttr,
			Args: []engine.Expr{
				&engine.Ref{Name: engine.Identifier(name)},
				engine.Text(path),
			},
		}, nil
	}
	return &engine.Ref{Name: engine.Identifier(inner)}, nil
}
