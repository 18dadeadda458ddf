package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/marcelocantos/gsh/internal/result"
)

// RunInteractive reads lines from in until end of input or an exit
// notification. The prompt is written to out before each line when prompt
// is true. Failures are reported and the loop continues.
func (r *Runner) RunInteractive(ctx context.Context, in io.Reader, out io.Writer, prompt bool) int {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		if err := ctx.Err(); err != nil {
			return ExitFailure
		}
		if prompt {
			fmt.Fprint(out, r.Shell.Prompt())
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		code, res := r.Line(ctx, line)
		if _, ok := result.ExitCode(res); ok {
			return code
		}
	}
	if prompt {
		fmt.Fprintln(out)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(r.stderr(), "gsh: %v\n", err)
		return ExitFailure
	}
	return ExitOK
}
