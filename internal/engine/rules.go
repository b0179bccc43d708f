package engine

// Condition guards a rule. Its function call is evaluated for truthiness:
// None or boolean false means the rule does not apply. Any other value
// passes, and when Result is set, that value is bound in the rule's scope
// frame for later conditions and the rule's outcome.
type Condition struct {
	Fn     Call
	Result Identifier // empty means no binding
}

// Rule is one decision node of the tree. The three kinds are TreeRule,
// ErrorRule, and EndpointRule. Rules are read-only and caller-owned; the
// evaluator never mutates them, so one Ruleset may be shared across
// concurrent evaluations.
type Rule interface {
	Conditions() []Condition
	ruleNode()
}

// TreeRule nests child rules behind its conditions. When its conditions
// match, exactly one child must match; exhausting the children is a defect.
type TreeRule struct {
	Conds []Condition
	Rules []Rule
}

// ErrorRule terminates evaluation with a modeled error when matched.
type ErrorRule struct {
	Conds []Condition
	Error Expr
}

// EndpointRule terminates evaluation with a synthesized endpoint when matched.
type EndpointRule struct {
	Conds    []Condition
	Endpoint EndpointTemplate
}

func (r *TreeRule) Conditions() []Condition     { return r.Conds }
func (r *ErrorRule) Conditions() []Condition    { return r.Conds }
func (r *EndpointRule) Conditions() []Condition { return r.Conds }

func (*TreeRule) ruleNode()     {}
func (*ErrorRule) ruleNode()    {}
func (*EndpointRule) ruleNode() {}

// EndpointTemplate describes an endpoint rule's outcome before evaluation:
// the URL expression, property expressions, and per-header ordered value
// expressions.
type EndpointTemplate struct {
	URL        Expr
	Properties map[string]Expr
	Headers    map[string][]Expr
}

// ParamType is the declared type of a ruleset parameter.
type ParamType string

const (
	ParamString ParamType = "String"
	ParamBool   ParamType = "Boolean"
)

// Parameter declares one ruleset input. Document-level metadata (builtIn,
// documentation) stays on the wire form; the compiled parameter carries only
// what binding and input checking consume.
type Parameter struct {
	Name     Identifier
	Type     ParamType
	Required bool
	Default  *Value
}

// Ruleset is the full declarative program: ordered parameter declarations
// plus the ordered top-level rule list. It is constructed once (by the
// ruleset compiler) and evaluated any number of times; evaluations are
// independent and share no state.
type Ruleset struct {
	Version    string
	Parameters []Parameter
	Rules      []Rule
}
