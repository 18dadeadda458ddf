package builtin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marcelocantos/gsh/internal/command"
)

type Help struct{}

var _ command.Command = (*Help)(nil)

func (h *Help) Name() string        { return "help" }
func (h *Help) Description() string { return "list available commands" }

func (h *Help) Execute(ctx context.Context, inv *command.Invocation) (any, error) {
	reg, ok := command.RegistryFromContext(ctx)
	if !ok {
		return nil, errors.New("help: no command registry available")
	}
	switch len(inv.Args) {
	case 0:
		return nil, h.list(inv, reg)
	case 1:
		return nil, h.describe(inv, reg, inv.Args[0])
	default:
		return nil, fmt.Errorf("help: unexpected arguments: %v", inv.Args[1:])
	}
}

func (h *Help) list(inv *command.Invocation, reg *command.Registry) error {
	cmds := reg.All()
	aliases := Aliases(inv.Variables)

	width := 0
	for _, c := range cmds {
		width = max(width, len(c.Name()))
	}
	for _, a := range aliases {
		width = max(width, len(a))
	}

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, c.Name(), c.Description())
	}
	if len(aliases) > 0 {
		b.WriteString("\nAliases:\n")
		for _, a := range aliases {
			target, _ := inv.Variables.Get(command.AliasPrefix + a)
			fmt.Fprintf(&b, "  %-*s  %v\n", width, a, target)
		}
	}
	b.WriteString("\n")
	_, err := fmt.Fprint(inv.IO.Out, b.String())
	return err
}

func (h *Help) describe(inv *command.Invocation, reg *command.Registry, name string) error {
	if c, err := reg.Lookup(strings.TrimPrefix(name, "/")); err == nil {
		_, err := fmt.Fprintf(inv.IO.Out, "%s  %s\n\n", c.Name(), c.Description())
		return err
	}
	if target, ok := inv.Variables.Get(command.AliasPrefix + name); ok {
		_, err := fmt.Fprintf(inv.IO.Out, "Command %s is an alias to: %v\n\n", name, target)
		return err
	}
	fmt.Fprintf(inv.IO.Err, "Try help for a list of available commands.\n")
	return &command.NotFoundError{Path: name}
}
