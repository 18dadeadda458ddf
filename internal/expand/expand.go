// Package expand substitutes variable references in parsed words.
//
// Plain and quoted words may reference variables as $name or ${name}, where
// a name is made of letters, digits, '_' and '.'. A bare $name never ends in
// '.', so "$x." is x followed by a dot. An escaped \$ stands for a literal
// dollar sign and \\ for a literal backslash. Opaque words are never
// touched. A reference to an unbound variable expands to the empty string.
package expand

import (
	"fmt"
	"strings"

	"github.com/marcelocantos/gsh/internal/parser"
	"github.com/marcelocantos/gsh/internal/variables"
)

// Error reports a malformed reference inside a word.
type Error struct {
	Word string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("expand %q: %s", e.Word, e.Msg)
}

// Interpolator expands words against a variable scope.
type Interpolator struct{}

// New returns an Interpolator.
func New() *Interpolator { return &Interpolator{} }

// Expand returns the argument vector for words as seen from scope.
func (in *Interpolator) Expand(scope *variables.Scope, words []parser.Word) ([]string, error) {
	args := make([]string, len(words))
	for i, w := range words {
		if w.Kind == parser.Opaque {
			args[i] = w.Value
			continue
		}
		s, err := in.String(scope, w.Value)
		if err != nil {
			return nil, err
		}
		args[i] = s
	}
	return args, nil
}

// String expands every reference in s.
func (in *Interpolator) String(scope *variables.Scope, s string) (string, error) {
	if !strings.ContainsAny(s, `$\`) {
		return s, nil
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && (s[i+1] == '$' || s[i+1] == '\\'):
			b.WriteByte(s[i+1])
			i++
		case c == '$' && i+1 < len(s) && s[i+1] == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				return "", &Error{Word: s, Msg: "unterminated ${"}
			}
			name := s[i+2 : i+2+end]
			if !variables.IsIdentifier(name) {
				return "", &Error{Word: s, Msg: fmt.Sprintf("bad variable name %q", name)}
			}
			b.WriteString(lookup(scope, name))
			i += 2 + end
		case c == '$':
			j := i + 1
			for j < len(s) && isNameByte(s[j]) {
				j++
			}
			for j > i+1 && s[j-1] == '.' {
				j--
			}
			if j == i+1 {
				b.WriteByte('$')
				continue
			}
			b.WriteString(lookup(scope, s[i+1:j]))
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func lookup(scope *variables.Scope, name string) string {
	return scope.String(name, "")
}

func isNameByte(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
