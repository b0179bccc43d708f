package engine

// Expr is an expression node: a reference, a function call, or one of the
// literal variants. The set of implementations is closed; every dispatch
// site type-switches exhaustively over it.
type Expr interface {
	exprNode()
}

// Ref is a reference to an identifier in scope.
type Ref struct {
	Name Identifier
}

// Call applies a built-in function to argument expressions. Arguments are
// handed to the function unevaluated so each built-in controls its own
// evaluation order.
type Call struct {
	Fn   FuncKind
	Args []Expr
}

// BoolLiteral is a constant boolean.
type BoolLiteral struct {
	Value bool
}

// IntLiteral is a constant integer. Integers are not part of the runtime
// value model; they appear only as structural arguments to built-ins such as
// substring, which read them without evaluation.
type IntLiteral struct {
	Value int
}

// StringLiteral is a string template: a concatenation of fixed text and
// embedded expressions, each of which must evaluate to a string.
type StringLiteral struct {
	Parts []TemplatePart
}

// ArrayLiteral is a constant array whose items are themselves expressions.
type ArrayLiteral struct {
	Items []Expr
}

// RecordLiteral is a constant record whose field values are expressions.
type RecordLiteral struct {
	Fields map[string]Expr
}

func (*Ref) exprNode()           {}
func (*Call) exprNode()          {}
func (*BoolLiteral) exprNode()   {}
func (*IntLiteral) exprNode()    {}
func (*StringLiteral) exprNode() {}
func (*ArrayLiteral) exprNode()  {}
func (*RecordLiteral) exprNode() {}

// TemplatePart is one segment of a StringLiteral: fixed text or an embedded
// expression.
type TemplatePart interface {
	templatePart()
}

// TextPart is a fixed text segment.
type TextPart struct {
	Text string
}

// ExprPart is an embedded expression segment.
type ExprPart struct {
	Expr Expr
}

func (TextPart) templatePart() {}
func (ExprPart) templatePart() {}

// Text returns a StringLiteral holding only fixed text.
func Text(s string) *StringLiteral {
	return &StringLiteral{Parts: []TemplatePart{TextPart{Text: s}}}
}
