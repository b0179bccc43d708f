package engine

// Identifier names a parameter or condition-result binding. Equality is
// structural.
type Identifier string

type frame map[Identifier]Value

// Scope is a stack of binding frames. Lookup walks frames innermost-first;
// a binding made inside a Scoped call is discarded when that call returns,
// on every exit path.
//
// A Scope is single-use mutable state: it must not be shared between
// concurrent evaluations.
type Scope struct {
	frames []frame
}

// NewScope returns an empty scope with no frames. Bindings require at least
// one active frame, so callers evaluate inside Scoped.
func NewScope() *Scope {
	return &Scope{}
}

// Insert binds name in the innermost frame. Inserting with no active frame
// fails with ErrNoActiveFrame. Rebinding a name already present in that
// exact frame fails with a DuplicateBindingError; shadowing a binding from
// an outer frame is allowed.
func (s *Scope) Insert(name Identifier, v Value) error {
	if len(s.frames) == 0 {
		return ErrNoActiveFrame
	}
	top := s.frames[len(s.frames)-1]
	if _, exists := top[name]; exists {
		return &DuplicateBindingError{Name: name}
	}
	top[name] = v
	return nil
}

// Lookup searches frames innermost-to-outermost and returns the first match.
func (s *Scope) Lookup(name Identifier) (Value, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i][name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// Scoped pushes a fresh frame, runs body, and pops the frame before
// returning. The deferred pop guarantees child-frame bindings never leak to
// the caller, whether body returns normally or with an error.
func (s *Scope) Scoped(body func() (Value, error)) (Value, error) {
	s.frames = append(s.frames, frame{})
	defer func() {
		s.frames = s.frames[:len(s.frames)-1]
	}()
	return body()
}

// Depth reports the number of active frames.
func (s *Scope) Depth() int { return len(s.frames) }
