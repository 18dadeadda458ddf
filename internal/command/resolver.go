package command

import (
	"fmt"
	"path"
	"strings"

	"github.com/marcelocantos/gsh/internal/parser"
	"github.com/marcelocantos/gsh/internal/variables"
)

const (
	// AliasPrefix prefixes the variables that hold alias targets.
	AliasPrefix = "gshell.alias."

	// PathVariable holds the colon-separated command search path.
	PathVariable = "gshell.path"

	// DefaultPath is searched when PathVariable is unset.
	DefaultPath = "/"
)

// Ref is a resolved command together with any arguments contributed by
// alias expansion.
type Ref struct {
	// Name is the registered name of Command.
	Name    string
	Command Command

	// Args are prepended to the arguments typed by the user.
	Args []string
}

// Resolver maps typed names to registered commands, consulting the variable
// scope for aliases and the search path.
type Resolver struct {
	Registry *Registry
}

// NewResolver returns a resolver over reg.
func NewResolver(reg *Registry) *Resolver {
	return &Resolver{Registry: reg}
}

// Resolve returns the command that name refers to from scope.
//
// Aliases are expanded first; an alias that leads back to a name already
// expanded stops expanding and that name is looked up as a command. A name
// starting with '/' is looked up as an absolute path. Any other name is tried
// against each group of the search path in order.
func (r *Resolver) Resolve(scope *variables.Scope, name string) (*Ref, error) {
	if name == "" {
		return nil, &NotFoundError{Path: name}
	}

	var prefix []string
	seen := map[string]bool{}
	for !seen[name] {
		seen[name] = true
		target, ok := scope.Get(AliasPrefix + name)
		if !ok {
			break
		}
		words, err := splitAlias(fmt.Sprint(target))
		if err != nil {
			return nil, fmt.Errorf("alias %s: %w", name, err)
		}
		name = words[0]
		prefix = append(words[1:len(words):len(words)], prefix...)
	}

	c, err := r.lookup(scope, name)
	if err != nil {
		return nil, err
	}
	return &Ref{Name: c.Name(), Command: c, Args: prefix}, nil
}

func (r *Resolver) lookup(scope *variables.Scope, name string) (Command, error) {
	if strings.HasPrefix(name, "/") {
		c, err := r.Registry.Lookup(strings.TrimPrefix(path.Clean(name), "/"))
		if err != nil {
			return nil, &NotFoundError{Path: name}
		}
		return c, nil
	}

	for _, group := range searchPath(scope) {
		candidate := strings.TrimPrefix(path.Join("/", group, name), "/")
		if c, err := r.Registry.Lookup(candidate); err == nil {
			return c, nil
		}
	}
	return nil, &NotFoundError{Path: name}
}

// searchPath returns the groups listed in the search path variable.
func searchPath(scope *variables.Scope) []string {
	raw := scope.String(PathVariable, DefaultPath)
	var groups []string
	for _, g := range strings.Split(raw, ":") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	if len(groups) == 0 {
		groups = []string{DefaultPath}
	}
	return groups
}

func splitAlias(target string) ([]string, error) {
	line, err := parser.Parse(target)
	if err != nil {
		return nil, err
	}
	if len(line.Statements) != 1 || line.Statements[0].Piped {
		return nil, fmt.Errorf("target %q is not a single command", target)
	}
	return line.Statements[0].Values(), nil
}
