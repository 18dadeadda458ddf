// Package builtin provides the commands every shell starts with.
package builtin

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/marcelocantos/gsh/internal/command"
)

// newFlags returns a flag set for one invocation. Usage and parse errors go
// to the invocation's error stream. Flags must precede operands.
func newFlags(inv *command.Invocation, synopsis string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(inv.Name, pflag.ContinueOnError)
	fs.SetOutput(inv.IO.Err)
	fs.SetInterspersed(false)
	fs.Usage = func() {
		fmt.Fprintf(inv.IO.Err, "usage: %s %s\n", inv.Name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags parses args into fs. It reports help when -h or --help was
// given, in which case usage has already been printed.
func parseFlags(fs *pflag.FlagSet, args []string) (help bool, err error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, fmt.Errorf("%s: %w", fs.Name(), err)
	}
	return false, nil
}
