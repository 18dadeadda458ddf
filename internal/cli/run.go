// Package cli implements the gsh launcher surfaces: one-shot execution,
// the interactive loop, the audit sub-command, flags and logging.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcelocantos/gsh/internal/audit"
	"github.com/marcelocantos/gsh/internal/command"
	"github.com/marcelocantos/gsh/internal/parser"
	"github.com/marcelocantos/gsh/internal/result"
	"github.com/marcelocantos/gsh/internal/shell"
)

// Exit codes for outcomes that carry no code of their own.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitSyntax  = 2
)

// ExitCoder is implemented by errors that carry a process exit code.
type ExitCoder interface {
	ExitCode() int
}

// Runner executes lines on a shell, reports failures and records each line
// in the audit log.
type Runner struct {
	Shell *shell.Shell

	// Stderr receives failure reports. Defaults to os.Stderr.
	Stderr io.Writer

	// Audit is optional.
	Audit  *audit.Logger
	Logger *slog.Logger

	// Source tags audit entries (command, args, interactive, mcp).
	Source string
}

// RunLine parses and executes line and returns its exit code.
func (r *Runner) RunLine(ctx context.Context, line string) int {
	code, _ := r.Line(ctx, line)
	return code
}

// Line executes line and returns both its exit code and its result.
func (r *Runner) Line(ctx context.Context, line string) (int, result.Result) {
	return r.LineIO(ctx, r.Shell.IO(), line)
}

// LineIO is Line with the stream triple given by the caller.
func (r *Runner) LineIO(ctx context.Context, rio *command.IO, line string) (int, result.Result) {
	return r.execute(ctx, line, func(ctx context.Context) ([]string, result.Result) {
		plan, err := r.Shell.Parse(line)
		if err != nil {
			return nil, result.Fail(err)
		}
		return plan.Names(), r.Shell.ExecutePlan(ctx, rio, plan)
	})
}

// RunArgs executes args as a single command with verbatim arguments.
func (r *Runner) RunArgs(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(r.stderr(), "gsh: missing command name")
		return ExitFailure
	}
	code, _ := r.execute(ctx, strings.Join(args, " "), func(ctx context.Context) ([]string, result.Result) {
		return args[:1], r.Shell.ExecuteArgs(ctx, r.Shell.IO(), args[0], args[1:]...)
	})
	return code
}

// PipelineIO executes the argument vectors as one pipeline against rio.
// Arguments are passed verbatim.
func (r *Runner) PipelineIO(ctx context.Context, rio *command.IO, argvs [][]string) (int, result.Result) {
	stages := make([]string, len(argvs))
	var names []string
	for i, argv := range argvs {
		stages[i] = strings.Join(argv, " ")
		if len(argv) > 0 {
			names = append(names, argv[0])
		}
	}
	return r.execute(ctx, strings.Join(stages, " | "), func(ctx context.Context) ([]string, result.Result) {
		return names, r.Shell.ExecutePipeline(ctx, rio, argvs...)
	})
}

func (r *Runner) execute(ctx context.Context, line string, run func(context.Context) ([]string, result.Result)) (int, result.Result) {
	id := uuid.NewString()
	ctx = shell.WithInvocationID(ctx, id)

	start := time.Now()
	names, res := run(ctx)
	duration := time.Since(start)

	code, errMsg := ResolveResult(res)
	if errMsg != "" {
		fmt.Fprintf(r.stderr(), "gsh: %s\n", errMsg)
	}
	r.logAudit(audit.Record{
		Invocation: id,
		Line:       line,
		Commands:   names,
		Outcome:    res.Kind().String(),
		ExitCode:   code,
		Err:        res.Err(),
		Duration:   duration,
		Source:     r.Source,
	})
	return code, res
}

// ResolveResult maps a result to a process exit code. For failures it also
// returns the message to report; notifications are never reported.
func ResolveResult(res result.Result) (exitCode int, errMsg string) {
	switch res.Kind() {
	case result.Success:
		return ExitOK, ""
	case result.Notified:
		if code, ok := result.ExitCode(res); ok {
			return code, ""
		}
		return ExitOK, ""
	}

	err := res.Err()
	var syntaxErr *parser.SyntaxError
	if errors.As(err, &syntaxErr) {
		return ExitSyntax, err.Error()
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode(), err.Error()
	}
	return ExitFailure, err.Error()
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}

func (r *Runner) logAudit(rec audit.Record) {
	if r.Audit == nil {
		return
	}
	rec.Cwd, _ = os.Getwd()
	// Best-effort audit logging: don't fail the command if audit fails.
	if err := r.Audit.Log(rec); err != nil && r.Logger != nil {
		r.Logger.Warn("audit log write failed", "error", err)
	}
}
