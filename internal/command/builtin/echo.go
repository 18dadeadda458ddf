package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcelocantos/gsh/internal/command"
)

type Echo struct{}

var _ command.Command = (*Echo)(nil)

func (e *Echo) Name() string        { return "echo" }
func (e *Echo) Description() string { return "print arguments to standard output" }

func (e *Echo) Execute(_ context.Context, inv *command.Invocation) (any, error) {
	fs := newFlags(inv, "[-n] [arg...]")
	noNewline := fs.BoolP("no-newline", "n", false, "do not print the trailing newline")
	if help, err := parseFlags(fs, inv.Args); help || err != nil {
		return nil, err
	}

	text := strings.Join(fs.Args(), " ")
	if !*noNewline {
		text += "\n"
	}
	_, err := fmt.Fprint(inv.IO.Out, text)
	return nil, err
}
