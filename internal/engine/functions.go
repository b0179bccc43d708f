package engine

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// FuncKind identifies a built-in function. The set is closed; evalCall
// switches exhaustively over it.
type FuncKind string

const (
	FnBooleanEquals    FuncKind = "booleanEquals"
	FnStringEquals     FuncKind = "stringEquals"
	FnIsSet            FuncKind = "isSet"
	FnNot              FuncKind = "not"
	FnGetAttr          FuncKind = "getAttr"
	FnIsValidHostLabel FuncKind = "isValidHostLabel"
	FnParseURL         FuncKind = "parseURL"
	FnParseArn         FuncKind = "parseArn"
	FnPartition        FuncKind = "partition"
	FnSubstring        FuncKind = "substring"
	FnURIEncode        FuncKind = "uriEncode"
)

// Partition is the metadata the partition built-in exposes for a region.
type Partition struct {
	Name                 string
	DNSSuffix            string
	DualStackDNSSuffix   string
	SupportsFIPS         bool
	SupportsDualStack    bool
	ImplicitGlobalRegion string
}

// PartitionProvider is the read-only lookup table consumed by the partition
// built-in. Implementations must be safe for concurrent use.
type PartitionProvider interface {
	// PartitionFor resolves region to its partition, trying an exact region
	// match, then each partition's region pattern, then the default
	// partition. The second result is false only when nothing matched.
	PartitionFor(region string) (Partition, bool)
}

// evalCall dispatches a function call to its built-in. Arguments arrive
// unevaluated; each built-in evaluates what it needs, which is what lets
// isSet treat an unbound reference as an answer rather than a defect.
func (e *Evaluator) evalCall(call *Call) (Value, error) {
	switch call.Fn {
	case FnBooleanEquals:
		return e.fnBooleanEquals(call.Args)
	case FnStringEquals:
		return e.fnStringEquals(call.Args)
	case FnIsSet:
		return e.fnIsSet(call.Args)
	case FnNot:
		return e.fnNot(call.Args)
	case FnGetAttr:
		return e.fnGetAttr(call.Args)
	case FnIsValidHostLabel:
		return e.fnIsValidHostLabel(call.Args)
	case FnParseURL:
		return e.fnParseURL(call.Args)
	case FnParseArn:
		return e.fnParseArn(call.Args)
	case FnPartition:
		return e.fnPartition(call.Args)
	case FnSubstring:
		return e.fnSubstring(call.Args)
	case FnURIEncode:
		return e.fnURIEncode(call.Args)
	default:
		return None(), fmt.Errorf("unknown function %q", call.Fn)
	}
}

func arity(fn FuncKind, args []Expr, want int) error {
	if len(args) != want {
		return fmt.Errorf("%s: expects %d arguments, got %d", fn, want, len(args))
	}
	return nil
}

// fnBooleanEquals compares two boolean operands. Either operand holding a
// non-boolean is a type mismatch, not inequality.
func (e *Evaluator) fnBooleanEquals(args []Expr) (Value, error) {
	if err := arity(FnBooleanEquals, args, 2); err != nil {
		return None(), err
	}
	a, err := e.evalBool(args[0])
	if err != nil {
		return None(), err
	}
	b, err := e.evalBool(args[1])
	if err != nil {
		return None(), err
	}
	return Bool(a == b), nil
}

func (e *Evaluator) fnStringEquals(args []Expr) (Value, error) {
	if err := arity(FnStringEquals, args, 2); err != nil {
		return None(), err
	}
	a, err := e.evalString(args[0])
	if err != nil {
		return None(), err
	}
	b, err := e.evalString(args[1])
	if err != nil {
		return None(), err
	}
	return Bool(a == b), nil
}

// fnIsSet reports whether its operand holds a value. A reference to an
// identifier that is not in scope counts as unset: optional parameters
// without defaults are simply absent, and for isSet absence is the answer.
func (e *Evaluator) fnIsSet(args []Expr) (Value, error) {
	if err := arity(FnIsSet, args, 1); err != nil {
		return None(), err
	}
	if ref, ok := args[0].(*Ref); ok {
		v, bound := e.scope.Lookup(ref.Name)
		return Bool(bound && !v.IsNone()), nil
	}
	v, err := e.evalExpr(args[0])
	if err != nil {
		return None(), err
	}
	return Bool(!v.IsNone()), nil
}

func (e *Evaluator) fnNot(args []Expr) (Value, error) {
	if err := arity(FnNot, args, 1); err != nil {
		return None(), err
	}
	b, err := e.evalBool(args[0])
	if err != nil {
		return None(), err
	}
	return Bool(!b), nil
}

// fnGetAttr resolves a dotted/indexed path against a record or endpoint.
// The path is a structural argument: it must be a fixed string literal.
// Absent fields and out-of-range indexes yield None; indexing into a
// non-indexable value is a type mismatch.
func (e *Evaluator) fnGetAttr(args []Expr) (Value, error) {
	if err := arity(FnGetAttr, args, 2); err != nil {
		return None(), err
	}
	path, ok := fixedString(args[1])
	if !ok {
		return None(), fmt.Errorf("getAttr: path must be a fixed string literal")
	}
	segs, err := parsePath(path)
	if err != nil {
		return None(), err
	}
	v, err := e.evalExpr(args[0])
	if err != nil {
		return None(), err
	}
	for _, seg := range segs {
		if v.IsNone() {
			return None(), nil
		}
		if seg.isIndex {
			items, err := v.ExpectArray()
			if err != nil {
				return None(), err
			}
			if seg.index < 0 || seg.index >= len(items) {
				return None(), nil
			}
			v = items[seg.index]
			continue
		}
		fields, err := indexable(v)
		if err != nil {
			return None(), err
		}
		next, ok := fields[seg.field]
		if !ok {
			return None(), nil
		}
		v = next
	}
	return v, nil
}

// indexable views a record, or an endpoint's fields, as a field map.
func indexable(v Value) (map[string]Value, error) {
	switch v.Kind() {
	case KindRecord:
		return v.rec, nil
	case KindEndpoint:
		headers := make(map[string]Value, len(v.ep.Headers))
		for name, vals := range v.ep.Headers {
			items := make([]Value, len(vals))
			for i, hv := range vals {
				items[i] = String(hv)
			}
			headers[name] = Array(items)
		}
		return map[string]Value{
			"url":        String(v.ep.URL),
			"properties": Record(v.ep.Properties),
			"headers":    Record(headers),
		}, nil
	default:
		return nil, &TypeMismatchError{Expected: KindRecord, Actual: v.Kind()}
	}
}

type pathSeg struct {
	field   string
	index   int
	isIndex bool
}

// parsePath splits "a.b[2].c" into field and index segments.
func parsePath(path string) ([]pathSeg, error) {
	if path == "" {
		return nil, fmt.Errorf("getAttr: empty path")
	}
	var segs []pathSeg
	for _, part := range strings.Split(path, ".") {
		rest := part
		for rest != "" {
			open := strings.IndexByte(rest, '[')
			if open < 0 {
				segs = append(segs, pathSeg{field: rest})
				break
			}
			if open > 0 {
				segs = append(segs, pathSeg{field: rest[:open]})
			}
			closing := strings.IndexByte(rest, ']')
			if closing < open {
				return nil, fmt.Errorf("getAttr: malformed path %q", path)
			}
			idx, err := strconv.Atoi(rest[open+1 : closing])
			if err != nil {
				return nil, fmt.Errorf("getAttr: malformed index in path %q", path)
			}
			segs = append(segs, pathSeg{index: idx, isIndex: true})
			rest = rest[closing+1:]
		}
	}
	return segs, nil
}

// fnIsValidHostLabel validates a string against DNS host-label grammar:
// 1-63 characters, alphanumeric or hyphen, no leading or trailing hyphen.
// With allowSubdomains, each dot-separated label is checked independently.
// Malformed input means false, never an error.
func (e *Evaluator) fnIsValidHostLabel(args []Expr) (Value, error) {
	if err := arity(FnIsValidHostLabel, args, 2); err != nil {
		return None(), err
	}
	s, err := e.evalString(args[0])
	if err != nil {
		return None(), err
	}
	allowSubdomains, err := e.evalBool(args[1])
	if err != nil {
		return None(), err
	}
	if !allowSubdomains {
		return Bool(validHostLabel(s)), nil
	}
	labels := strings.Split(s, ".")
	for _, label := range labels {
		if !validHostLabel(label) {
			return Bool(false), nil
		}
	}
	return Bool(true), nil
}

func validHostLabel(label string) bool {
	if len(label) == 0 || len(label) > 63 {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-':
			if i == 0 || i == len(label)-1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// fnParseURL parses an absolute http(s) URL into a record with scheme,
// authority, path, normalizedPath, and isIp fields. Anything that is not a
// well-formed absolute URL, or that carries a query component, yields None
// rather than an error.
func (e *Evaluator) fnParseURL(args []Expr) (Value, error) {
	if err := arity(FnParseURL, args, 1); err != nil {
		return None(), err
	}
	s, err := e.evalString(args[0])
	if err != nil {
		return None(), err
	}
	u, err := url.Parse(s)
	if err != nil {
		return None(), nil
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Opaque != "" || u.Host == "" {
		return None(), nil
	}
	if u.RawQuery != "" || u.ForceQuery {
		return None(), nil
	}
	path := u.Path
	normalized := path
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if !strings.HasSuffix(normalized, "/") {
		normalized += "/"
	}
	host := u.Hostname()
	isIP := net.ParseIP(host) != nil
	return Record(map[string]Value{
		"scheme":         String(u.Scheme),
		"authority":      String(u.Host),
		"path":           String(path),
		"normalizedPath": String(normalized),
		"isIp":           Bool(isIP),
	}), nil
}

func (e *Evaluator) fnParseArn(args []Expr) (Value, error) {
	if err := arity(FnParseArn, args, 1); err != nil {
		return None(), err
	}
	s, err := e.evalString(args[0])
	if err != nil {
		return None(), err
	}
	arn, ok := parseArn(s)
	if !ok {
		return None(), nil
	}
	resource := make([]Value, len(arn.ResourceID))
	for i, part := range arn.ResourceID {
		resource[i] = String(part)
	}
	return Record(map[string]Value{
		"partition":  String(arn.Partition),
		"service":    String(arn.Service),
		"region":     String(arn.Region),
		"accountId":  String(arn.AccountID),
		"resourceId": Array(resource),
	}), nil
}

// fnPartition looks the region up in the partition table. No partition
// (including the default) matching yields None.
func (e *Evaluator) fnPartition(args []Expr) (Value, error) {
	if err := arity(FnPartition, args, 1); err != nil {
		return None(), err
	}
	region, err := e.evalString(args[0])
	if err != nil {
		return None(), err
	}
	if e.partitions == nil {
		return None(), nil
	}
	p, ok := e.partitions.PartitionFor(region)
	if !ok {
		return None(), nil
	}
	return Record(map[string]Value{
		"name":                 String(p.Name),
		"dnsSuffix":            String(p.DNSSuffix),
		"dualStackDnsSuffix":   String(p.DualStackDNSSuffix),
		"supportsFIPS":         Bool(p.SupportsFIPS),
		"supportsDualStack":    Bool(p.SupportsDualStack),
		"implicitGlobalRegion": String(p.ImplicitGlobalRegion),
	}), nil
}

// fnSubstring extracts s[start:stop], counting from the end when reverse is
// set. Start, stop, and reverse are structural arguments. Out-of-range
// bounds or any non-ASCII byte in the subject yield None: rejecting the
// slice beats mis-slicing multi-byte text.
func (e *Evaluator) fnSubstring(args []Expr) (Value, error) {
	if err := arity(FnSubstring, args, 4); err != nil {
		return None(), err
	}
	s, err := e.evalString(args[0])
	if err != nil {
		return None(), err
	}
	start, ok := fixedInt(args[1])
	if !ok {
		return None(), fmt.Errorf("substring: start must be an integer literal")
	}
	stop, ok := fixedInt(args[2])
	if !ok {
		return None(), fmt.Errorf("substring: stop must be an integer literal")
	}
	reverse, ok := fixedBool(args[3])
	if !ok {
		return None(), fmt.Errorf("substring: reverse must be a boolean literal")
	}
	if start < 0 || start >= stop || len(s) < stop {
		return None(), nil
	}
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return None(), nil
		}
	}
	if !reverse {
		return String(s[start:stop]), nil
	}
	return String(s[len(s)-stop : len(s)-start]), nil
}

// fnURIEncode percent-encodes everything outside the RFC 3986 unreserved
// set, with uppercase hex digits. It never fails.
func (e *Evaluator) fnURIEncode(args []Expr) (Value, error) {
	if err := arity(FnURIEncode, args, 1); err != nil {
		return None(), err
	}
	s, err := e.evalString(args[0])
	if err != nil {
		return None(), err
	}
	return String(uriEncode(s)), nil
}

const upperhex = "0123456789ABCDEF"

func uriEncode(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			out.WriteByte(c)
		default:
			out.WriteByte('%')
			out.WriteByte(upperhex[c>>4])
			out.WriteByte(upperhex[c&0x0f])
		}
	}
	return out.String()
}

// ---- evaluation helpers ----

func (e *Evaluator) evalString(expr Expr) (string, error) {
	v, err := e.evalExpr(expr)
	if err != nil {
		return "", err
	}
	return v.ExpectString()
}

func (e *Evaluator) evalBool(expr Expr) (bool, error) {
	v, err := e.evalExpr(expr)
	if err != nil {
		return false, err
	}
	return v.ExpectBool()
}

// fixedString extracts a template-free string literal.
func fixedString(expr Expr) (string, bool) {
	lit, ok := expr.(*StringLiteral)
	if !ok || len(lit.Parts) != 1 {
		return "", false
	}
	text, ok := lit.Parts[0].(TextPart)
	if !ok {
		return "", false
	}
	return text.Text, true
}

func fixedInt(expr Expr) (int, bool) {
	lit, ok := expr.(*IntLiteral)
	if !ok {
		return 0, false
	}
	return lit.Value, true
}

func fixedBool(expr Expr) (bool, bool) {
	lit, ok := expr.(*BoolLiteral)
	if !ok {
		return false, false
	}
	return lit.Value, true
}
