package builtin

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/marcelocantos/gsh/internal/command"
)

type Cat struct{}

var _ command.Command = (*Cat)(nil)

func (c *Cat) Name() string        { return "cat" }
func (c *Cat) Description() string { return "concatenate and display files" }

func (c *Cat) Execute(_ context.Context, inv *command.Invocation) (any, error) {
	fs := newFlags(inv, "[-n] [file...]")
	number := fs.BoolP("number", "n", false, "number output lines")
	if help, err := parseFlags(fs, inv.Args); help || err != nil {
		return nil, err
	}

	files := fs.Args()
	if len(files) == 0 {
		files = []string{"-"}
	}

	lineno := 1
	for _, name := range files {
		if err := c.copy(inv, name, *number, &lineno); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (c *Cat) copy(inv *command.Invocation, name string, number bool, lineno *int) error {
	var r io.Reader = inv.IO.In
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("cat: %w", err)
		}
		defer f.Close()
		r = f
	}
	inv.Logger.Debug("printing", "file", name)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var err error
		if number {
			_, err = fmt.Fprintf(inv.IO.Out, "%6d  %s\n", *lineno, scanner.Text())
			*lineno++
		} else {
			_, err = fmt.Fprintln(inv.IO.Out, scanner.Text())
		}
		if err != nil {
			return err
		}
	}
	return scanner.Err()
}
