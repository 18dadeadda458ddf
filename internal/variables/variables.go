// Package variables implements the shell's hierarchical variable scopes.
//
// Every command invocation runs against a child of the scope it was started
// from. Reads fall through to ancestors, writes stay local, and a name marked
// immutable in a scope stays immutable in every descendant.
package variables

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidArgument is returned when a scope is constructed without a
// backing map or without a required parent.
var ErrInvalidArgument = errors.New("invalid argument")

// ImmutableVariableError is returned when setting or unsetting a name that is
// immutable in the scope or any of its ancestors.
type ImmutableVariableError struct {
	Name string
}

func (e *ImmutableVariableError) Error() string {
	return fmt.Sprintf("variable %q is immutable", e.Name)
}

// InvalidIdentifierError is returned by commands given a name that fails
// IsIdentifier.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier name: %q", e.Name)
}

// Scope is a name to value mapping with an optional parent. A scope holds a
// plain reference to its parent and never to its children; the parent must
// outlive them. All methods are safe for concurrent use.
type Scope struct {
	mu         sync.RWMutex
	values     map[string]any
	immutables map[string]struct{}
	parent     *Scope
}

// New returns a root scope backed by values. The map is used directly, not
// copied.
func New(values map[string]any) (*Scope, error) {
	if values == nil {
		return nil, fmt.Errorf("%w: values map is nil", ErrInvalidArgument)
	}
	return &Scope{values: values}, nil
}

// NewRoot returns an empty root scope.
func NewRoot() *Scope {
	return &Scope{values: make(map[string]any)}
}

// NewChild returns an empty scope whose lookups fall through to parent.
func NewChild(parent *Scope) (*Scope, error) {
	return NewChildWithValues(make(map[string]any), parent)
}

// NewChildWithValues returns a child of parent backed by values.
func NewChildWithValues(values map[string]any, parent *Scope) (*Scope, error) {
	if values == nil {
		return nil, fmt.Errorf("%w: values map is nil", ErrInvalidArgument)
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: parent scope is nil", ErrInvalidArgument)
	}
	return &Scope{values: values, parent: parent}, nil
}

// Parent returns the enclosing scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Set binds name locally. It fails if name is immutable here or above.
func (s *Scope) Set(name string, value any) error {
	return s.set(name, value, true)
}

// SetImmutable binds name locally and marks it immutable in this scope and,
// by inheritance, in every descendant.
func (s *Scope) SetImmutable(name string, value any) error {
	return s.set(name, value, false)
}

func (s *Scope) set(name string, value any, mutable bool) error {
	if s.parent != nil && !s.parent.IsMutable(name) {
		return &ImmutableVariableError{Name: name}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.immutables[name]; ok {
		return &ImmutableVariableError{Name: name}
	}
	s.values[name] = value
	if !mutable {
		if s.immutables == nil {
			s.immutables = make(map[string]struct{})
		}
		s.immutables[name] = struct{}{}
	}
	return nil
}

// Get returns the value bound to name in the nearest scope that defines it.
func (s *Scope) Get(name string) (any, bool) {
	s.mu.RLock()
	value, ok := s.values[name]
	s.mu.RUnlock()
	if ok {
		return value, true
	}
	if s.parent != nil {
		return s.parent.Get(name)
	}
	return nil, false
}

// GetOr returns the value of name, or def when it is not bound anywhere.
func (s *Scope) GetOr(name string, def any) any {
	if value, ok := s.Get(name); ok {
		return value
	}
	return def
}

// String returns the value of name formatted with fmt.Sprint, or def when
// it is not bound.
func (s *Scope) String(name, def string) string {
	value, ok := s.Get(name)
	if !ok {
		return def
	}
	if str, ok := value.(string); ok {
		return str
	}
	return fmt.Sprint(value)
}

// Unset removes the local binding of name. An ancestor's binding of the same
// name becomes visible again.
func (s *Scope) Unset(name string) error {
	if s.parent != nil && !s.parent.IsMutable(name) {
		return &ImmutableVariableError{Name: name}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.immutables[name]; ok {
		return &ImmutableVariableError{Name: name}
	}
	delete(s.values, name)
	return nil
}

// Contains reports whether name is bound in this scope, ignoring ancestors.
func (s *Scope) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[name]
	return ok
}

// IsMutable reports whether name may be set or unset in this scope.
func (s *Scope) IsMutable(name string) bool {
	if s.parent != nil && !s.parent.IsMutable(name) {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, immutable := s.immutables[name]
	return !immutable
}

// IsCloaked reports whether a local binding of name shadows a binding in
// some ancestor.
func (s *Scope) IsCloaked(name string) bool {
	count := 0
	for scope := s; scope != nil && count < 2; scope = scope.parent {
		if scope.Contains(name) {
			count++
		}
	}
	return count > 1
}

// Names returns every name visible from this scope, local and inherited,
// sorted and without duplicates.
func (s *Scope) Names() []string {
	seen := make(map[string]struct{})
	for scope := s; scope != nil; scope = scope.parent {
		scope.mu.RLock()
		for name := range scope.values {
			seen[name] = struct{}{}
		}
		scope.mu.RUnlock()
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsIdentifier reports whether name can be used as a variable name. Only the
// first character is checked: names such as "gshell.prompt" carry dots and
// must stay valid.
func IsIdentifier(name string) bool {
	if name == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name)
	return r == '_' || unicode.IsLetter(r)
}
