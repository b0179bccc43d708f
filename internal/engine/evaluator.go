package engine

import "fmt"

// Evaluator resolves a ruleset against input parameters. It owns one Scope
// whose lifetime spans one Evaluate call, so an Evaluator must not be shared
// between concurrent evaluations; the Ruleset and PartitionProvider it reads
// are immutable and may be shared freely.
type Evaluator struct {
	scope      *Scope
	partitions PartitionProvider
}

// New returns an Evaluator consulting p for the partition built-in.
// p may be nil, in which case partition always evaluates to None.
func New(p PartitionProvider) *Evaluator {
	return &Evaluator{scope: NewScope(), partitions: p}
}

// Evaluate walks the ruleset's rules in order against input and returns the
// outcome of the first rule that matches: an Endpoint value for an endpoint
// rule, or a *RuleError for an error rule. Defects (unbound references, type
// mismatches, an exhausted rule list) abort with their respective error
// kinds.
func (e *Evaluator) Evaluate(rs *Ruleset, input map[Identifier]Value) (Value, error) {
	return e.scope.Scoped(func() (Value, error) {
		// Defaults seed the frame only for parameters the caller did not
		// supply, so defaults and inputs never collide.
		for _, p := range rs.Parameters {
			if _, ok := input[p.Name]; ok {
				continue
			}
			if p.Default == nil {
				continue
			}
			if err := e.scope.Insert(p.Name, *p.Default); err != nil {
				return None(), err
			}
		}
		for name, v := range input {
			if err := e.scope.Insert(name, v); err != nil {
				return None(), err
			}
		}
		for _, rule := range rs.Rules {
			result, err := e.evalRule(rule)
			if err != nil {
				return None(), err
			}
			if !result.IsNone() {
				return result, nil
			}
		}
		return None(), &NoRuleMatchedError{}
	})
}

// evalRule evaluates one rule inside a fresh scope frame. A None result
// means "rule does not match" and the caller tries the next sibling; any
// error is terminal.
func (e *Evaluator) evalRule(rule Rule) (Value, error) {
	return e.scope.Scoped(func() (Value, error) {
		for _, cond := range rule.Conditions() {
			v, err := e.evalCondition(cond)
			if err != nil {
				return None(), err
			}
			if v.IsNone() || v.Equal(Bool(false)) {
				return None(), nil
			}
		}
		switch r := rule.(type) {
		case *TreeRule:
			for _, child := range r.Rules {
				result, err := e.evalRule(child)
				if err != nil {
					return None(), err
				}
				if !result.IsNone() {
					return result, nil
				}
			}
			return None(), &NoRuleMatchedError{InTree: true}
		case *ErrorRule:
			v, err := e.evalExpr(r.Error)
			if err != nil {
				return None(), err
			}
			return None(), &RuleError{Value: v}
		case *EndpointRule:
			return e.buildEndpoint(&r.Endpoint)
		default:
			return None(), fmt.Errorf("unknown rule kind %T", rule)
		}
	})
}

// evalCondition evaluates the condition's function and, when it produced a
// usable value and the condition declares a result name, binds that name in
// the current frame before the next condition runs.
func (e *Evaluator) evalCondition(cond Condition) (Value, error) {
	v, err := e.evalCall(&cond.Fn)
	if err != nil {
		return None(), err
	}
	if !v.IsNone() && cond.Result != "" {
		if err := e.scope.Insert(cond.Result, v); err != nil {
			return None(), err
		}
	}
	return v, nil
}

// evalExpr dispatches over the closed expression variants.
func (e *Evaluator) evalExpr(expr Expr) (Value, error) {
	switch n := expr.(type) {
	case *Ref:
		v, ok := e.scope.Lookup(n.Name)
		if !ok {
			return None(), &UnboundReferenceError{Name: n.Name}
		}
		return v, nil
	case *Call:
		return e.evalCall(n)
	case *BoolLiteral:
		return Bool(n.Value), nil
	case *IntLiteral:
		return None(), fmt.Errorf("integer literal %d is not a runtime value", n.Value)
	case *StringLiteral:
		return e.evalTemplate(n)
	case *ArrayLiteral:
		items := make([]Value, len(n.Items))
		for i, item := range n.Items {
			v, err := e.evalExpr(item)
			if err != nil {
				return None(), err
			}
			items[i] = v
		}
		return Array(items), nil
	case *RecordLiteral:
		fields := make(map[string]Value, len(n.Fields))
		for k, fe := range n.Fields {
			v, err := e.evalExpr(fe)
			if err != nil {
				return None(), err
			}
			fields[k] = v
		}
		return Record(fields), nil
	default:
		return None(), fmt.Errorf("unknown expression kind %T", expr)
	}
}

// evalTemplate resolves every embedded expression of a string template
// against the current scope and concatenates the segments. Each embedded
// expression must produce a string.
func (e *Evaluator) evalTemplate(lit *StringLiteral) (Value, error) {
	var out []byte
	for _, part := range lit.Parts {
		switch p := part.(type) {
		case TextPart:
			out = append(out, p.Text...)
		case ExprPart:
			v, err := e.evalExpr(p.Expr)
			if err != nil {
				return None(), err
			}
			s, err := v.ExpectString()
			if err != nil {
				return None(), err
			}
			out = append(out, s...)
		}
	}
	return String(string(out)), nil
}

// buildEndpoint synthesizes the endpoint value for a matched endpoint rule:
// URL first, then properties, then each header's values in declared order.
func (e *Evaluator) buildEndpoint(tpl *EndpointTemplate) (Value, error) {
	urlVal, err := e.evalExpr(tpl.URL)
	if err != nil {
		return None(), err
	}
	url, err := urlVal.ExpectString()
	if err != nil {
		return None(), err
	}

	ep := &Endpoint{URL: url}
	if len(tpl.Properties) > 0 {
		ep.Properties = make(map[string]Value, len(tpl.Properties))
		for name, expr := range tpl.Properties {
			v, err := e.evalExpr(expr)
			if err != nil {
				return None(), err
			}
			ep.Properties[name] = v
		}
	}
	if len(tpl.Headers) > 0 {
		ep.Headers = make(map[string][]string, len(tpl.Headers))
		for name, exprs := range tpl.Headers {
			values := make([]string, 0, len(exprs))
			for _, expr := range exprs {
				v, err := e.evalExpr(expr)
				if err != nil {
					return None(), err
				}
				s, err := v.ExpectString()
				if err != nil {
					return None(), err
				}
				values = append(values, s)
			}
			ep.Headers[name] = values
		}
	}
	return EndpointValue(ep), nil
}
