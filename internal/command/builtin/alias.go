package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcelocantos/gsh/internal/command"
	"github.com/marcelocantos/gsh/internal/variables"
)

type Alias struct{}

var _ command.Command = (*Alias)(nil)

func (a *Alias) Name() string        { return "alias" }
func (a *Alias) Description() string { return "define or list command aliases" }

func (a *Alias) Execute(_ context.Context, inv *command.Invocation) (any, error) {
	fs := newFlags(inv, "[name=target...]")
	if help, err := parseFlags(fs, inv.Args); help || err != nil {
		return nil, err
	}

	scope := inv.Variables.Parent()
	if fs.NArg() == 0 {
		for _, name := range Aliases(scope) {
			target, _ := scope.Get(command.AliasPrefix + name)
			if _, err := fmt.Fprintf(inv.IO.Out, "%s=%v\n", name, target); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	for _, a := range parseAssignments(fs.Args()) {
		name, target := a.name, a.value
		if !variables.IsIdentifier(name) {
			return nil, &variables.InvalidIdentifierError{Name: name}
		}
		if !a.hasValue {
			value, found := scope.Get(command.AliasPrefix + name)
			if !found {
				return nil, fmt.Errorf("alias: %s: not found", name)
			}
			fmt.Fprintf(inv.IO.Out, "%s=%v\n", name, value)
			continue
		}
		if strings.TrimSpace(target) == "" {
			return nil, fmt.Errorf("alias: %s: empty target", name)
		}
		inv.Logger.Debug("defining alias", "name", name, "target", target)
		if err := scope.Set(command.AliasPrefix+name, target); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

type Unalias struct{}

var _ command.Command = (*Unalias)(nil)

func (u *Unalias) Name() string        { return "unalias" }
func (u *Unalias) Description() string { return "remove command aliases" }

func (u *Unalias) Execute(_ context.Context, inv *command.Invocation) (any, error) {
	fs := newFlags(inv, "name...")
	if help, err := parseFlags(fs, inv.Args); help || err != nil {
		return nil, err
	}
	if fs.NArg() == 0 {
		return nil, fmt.Errorf("unalias: missing alias name")
	}

	scope := inv.Variables.Parent()
	for _, name := range fs.Args() {
		key := command.AliasPrefix + name
		if _, ok := scope.Get(key); !ok {
			return nil, fmt.Errorf("unalias: %s: not found", name)
		}
		inv.Logger.Debug("undefining alias", "name", name)
		if err := scope.Unset(key); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// Aliases returns the names of the aliases visible from scope, sorted.
func Aliases(scope *variables.Scope) []string {
	var names []string
	for _, name := range scope.Names() {
		if alias, ok := strings.CutPrefix(name, command.AliasPrefix); ok {
			names = append(names, alias)
		}
	}
	return names
}
