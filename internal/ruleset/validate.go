package ruleset

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

var (
	ErrInvalidVersion   = errors.New("invalid ruleset version")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidRule      = errors.New("invalid rule")
	ErrInvalidCondition = errors.New("invalid condition")
)

// supportedVersions bounds the document versions this compiler understands.
var supportedVersions = mustConstraint(">= 1.0, < 2.0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate checks a decoded document for structural problems before
// compilation: version range, parameter declarations, rule shapes and
// condition function names and arities. Reference resolution is not
// checked here; unbound references surface at evaluation time.
func Validate(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidRule)
	}
	v, err := semver.NewVersion(doc.Version)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, doc.Version)
	}
	if !supportedVersions.Check(v) {
		return fmt.Errorf("%w: %q is outside supported range %s", ErrInvalidVersion, doc.Version, supportedVersions)
	}

	for name, spec := range doc.Parameters {
		if err := validateParameter(name, &spec); err != nil {
			return err
		}
	}

	for i, rule := range doc.Rules {
		if err := validateRule(&rule); err != nil {
			return fmt.Errorf("rule[%d]: %w", i, err)
		}
	}
	return nil
}

func validateParameter(name string, spec *ParamSpec) error {
	if !validIdent(name) {
		return fmt.Errorf("%w: bad name %q", ErrInvalidParameter, name)
	}
	switch spec.Type {
	case "String":
		if spec.Default != nil {
			if _, ok := spec.Default.(string); !ok {
				return fmt.Errorf("%w: %s default must be a string", ErrInvalidParameter, name)
			}
		}
	case "Boolean":
		if spec.Default != nil {
			if _, ok := spec.Default.(bool); !ok {
				return fmt.Errorf("%w: %s default must be a boolean", ErrInvalidParameter, name)
			}
		}
	default:
		return fmt.Errorf("%w: %s has unknown type %q", ErrInvalidParameter, name, spec.Type)
	}
	return nil
}

func validateRule(spec *RuleSpec) error {
	for i, cond := range spec.Conditions {
		if err := validateCondition(&cond); err != nil {
			return fmt.Errorf("condition[%d]: %w", i, err)
		}
	}

	switch spec.Type {
	case RuleTree:
		if len(spec.Rules) == 0 {
			return fmt.Errorf("%w: tree rule has no child rules", ErrInvalidRule)
		}
		for i, child := range spec.Rules {
			if err := validateRule(&child); err != nil {
				return fmt.Errorf("rule[%d]: %w", i, err)
			}
		}
	case RuleError:
		if spec.Error == nil {
			return fmt.Errorf("%w: error rule has no error expression", ErrInvalidRule)
		}
	case RuleEndpoint:
		if spec.Endpoint == nil || spec.Endpoint.URL == nil {
			return fmt.Errorf("%w: endpoint rule has no url", ErrInvalidRule)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRule, spec.Type)
	}
	return nil
}

func validateCondition(spec *ConditionSpec) error {
	arity, ok := fnArity[spec.Fn]
	if !ok {
		return fmt.Errorf("%w: unknown function %q", ErrInvalidCondition, spec.Fn)
	}
	if len(spec.Argv) != arity {
		return fmt.Errorf("%w: %s takes %d arguments, got %d", ErrInvalidCondition, spec.Fn, arity, len(spec.Argv))
	}
	if spec.Assign != "" && !validIdent(spec.Assign) {
		return fmt.Errorf("%w: bad assign name %q", ErrInvalidCondition, spec.Assign)
	}
	return nil
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9', c == '_':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
