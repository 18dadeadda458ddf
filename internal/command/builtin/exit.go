package builtin

import (
	"context"
	"fmt"
	"strconv"

	"github.com/marcelocantos/gsh/internal/command"
	"github.com/marcelocantos/gsh/internal/result"
)

type Exit struct{}

var _ command.Command = (*Exit)(nil)

func (e *Exit) Name() string        { return "exit" }
func (e *Exit) Description() string { return "exit the shell" }

// Execute never returns normally: it raises an ExitNotification that the
// shell loop turns into its exit code.
func (e *Exit) Execute(_ context.Context, inv *command.Invocation) (any, error) {
	code := 0
	switch len(inv.Args) {
	case 0:
	case 1:
		n, err := strconv.Atoi(inv.Args[0])
		if err != nil {
			return nil, fmt.Errorf("exit: invalid code %q", inv.Args[0])
		}
		code = n
	default:
		return nil, fmt.Errorf("exit: unexpected arguments: %v", inv.Args[1:])
	}
	inv.Logger.Info("exiting", "code", code)
	return nil, &result.ExitNotification{Code: code}
}
