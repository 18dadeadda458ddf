package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcelocantos/gsh/internal/command"
	"github.com/marcelocantos/gsh/internal/variables"
)

// Set defines variables in the invoking shell scope. An invocation's own
// scope is discarded when it returns, so writes go to its parent.
type Set struct{}

var _ command.Command = (*Set)(nil)

func (s *Set) Name() string        { return "set" }
func (s *Set) Description() string { return "set or list shell variables" }

func (s *Set) Execute(_ context.Context, inv *command.Invocation) (any, error) {
	fs := newFlags(inv, "[-i] [name=value...]")
	immutable := fs.BoolP("immutable", "i", false, "make the variables read-only")
	if help, err := parseFlags(fs, inv.Args); help || err != nil {
		return nil, err
	}

	scope := inv.Variables.Parent()
	if fs.NArg() == 0 {
		return nil, listVariables(inv, scope)
	}

	for _, a := range parseAssignments(fs.Args()) {
		name, value := a.name, a.value
		if !a.hasValue {
			value = "true"
		}
		if !variables.IsIdentifier(name) {
			return nil, &variables.InvalidIdentifierError{Name: name}
		}
		inv.Logger.Debug("setting variable", "name", name, "immutable", *immutable)
		var err error
		if *immutable {
			err = scope.SetImmutable(name, value)
		} else {
			err = scope.Set(name, value)
		}
		if err != nil {
			return nil, err
		}
	}
	return nil, nil
}

type assignment struct {
	name     string
	value    string
	hasValue bool
}

// parseAssignments pairs name=value arguments. A quoted value is a word of
// its own, so "name=" followed by another argument takes that argument as
// its value.
func parseAssignments(args []string) []assignment {
	out := make([]assignment, 0, len(args))
	for i := 0; i < len(args); i++ {
		name, value, ok := strings.Cut(args[i], "=")
		if ok && value == "" && i+1 < len(args) {
			i++
			value = args[i]
		}
		out = append(out, assignment{name: name, value: value, hasValue: ok})
	}
	return out
}

func listVariables(inv *command.Invocation, scope *variables.Scope) error {
	for _, name := range scope.Names() {
		if strings.HasPrefix(name, command.AliasPrefix) {
			continue
		}
		value, _ := scope.Get(name)
		if _, err := fmt.Fprintf(inv.IO.Out, "%s=%v\n", name, value); err != nil {
			return err
		}
	}
	return nil
}

type Unset struct{}

var _ command.Command = (*Unset)(nil)

func (u *Unset) Name() string        { return "unset" }
func (u *Unset) Description() string { return "remove shell variables" }

func (u *Unset) Execute(_ context.Context, inv *command.Invocation) (any, error) {
	fs := newFlags(inv, "name...")
	if help, err := parseFlags(fs, inv.Args); help || err != nil {
		return nil, err
	}
	if fs.NArg() == 0 {
		return nil, fmt.Errorf("unset: missing variable name")
	}

	scope := inv.Variables.Parent()
	for _, name := range fs.Args() {
		if !variables.IsIdentifier(name) {
			return nil, &variables.InvalidIdentifierError{Name: name}
		}
		inv.Logger.Debug("unsetting variable", "name", name)
		if err := scope.Unset(name); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
