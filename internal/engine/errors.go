package engine

import (
	"errors"
	"fmt"
)

// ErrNoActiveFrame reports a binding attempted on a scope with no frame
// pushed. Bindings only happen inside Scoped.
var ErrNoActiveFrame = errors.New("no active scope frame")

// TypeMismatchError reports a Value narrowed to a variant it does not hold.
// It marks a defect in the ruleset or its inputs and aborts evaluation.
type TypeMismatchError struct {
	Expected Kind
	Actual   Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, found %s", e.Expected, e.Actual)
}

// UnboundReferenceError reports a reference to an identifier not bound in any
// active scope frame. Not-found is always a hard failure, never None.
type UnboundReferenceError struct {
	Name Identifier
}

func (e *UnboundReferenceError) Error() string {
	return fmt.Sprintf("invalid ruleset: %s was not in scope", e.Name)
}

// DuplicateBindingError reports an identifier inserted twice into the same
// scope frame. Shadowing an outer frame's binding is allowed; rebinding
// within one frame is an authoring defect.
type DuplicateBindingError struct {
	Name Identifier
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("invalid ruleset: %s already bound in this scope", e.Name)
}

// NoRuleMatchedError reports that every rule in a tree rule, or every
// top-level rule of the ruleset, failed to match. Rulesets are expected to be
// exhaustive over their inputs, so this is fatal rather than a soft miss.
type NoRuleMatchedError struct {
	// InTree distinguishes an exhausted tree rule from an exhausted ruleset.
	InTree bool
}

func (e *NoRuleMatchedError) Error() string {
	if e.InTree {
		return "no rules inside of tree rule matched"
	}
	return "no rules in ruleset matched"
}

// RuleError is the modeled outcome of a matched error rule: resolution
// intentionally failed for these inputs. It is a legitimate terminal result,
// distinct from the defect errors above.
type RuleError struct {
	Value Value
}

func (e *RuleError) Error() string {
	return "ruleset error: " + e.Message()
}

// Message renders the evaluated error payload for presentation.
func (e *RuleError) Message() string {
	if s, err := e.Value.ExpectString(); err == nil {
		return s
	}
	return e.Value.String()
}
