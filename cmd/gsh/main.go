package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/term"

	"github.com/marcelocantos/gsh/internal/audit"
	"github.com/marcelocantos/gsh/internal/cli"
	"github.com/marcelocantos/gsh/internal/command"
	"github.com/marcelocantos/gsh/internal/command/builtin"
	"github.com/marcelocantos/gsh/internal/config"
	"github.com/marcelocantos/gsh/internal/mcpserve"
	"github.com/marcelocantos/gsh/internal/result"
	"github.com/marcelocantos/gsh/internal/shell"
	"github.com/marcelocantos/gsh/internal/variables"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	flags, err := cli.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gsh: %v\n", err)
		return cli.ExitSyntax
	}
	if flags.Help {
		flags.PrintUsage(os.Stdout)
		return cli.ExitOK
	}
	if flags.Version {
		fmt.Printf("gsh %s\n", version)
		return cli.ExitOK
	}

	// Load config.
	var cfg *config.Config
	if flags.ConfigPath != "" {
		cfg, err = config.LoadFrom(flags.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "gsh: config: %v\n", err)
		return cli.ExitFailure
	}

	if len(flags.Args) > 0 && flags.Args[0] == "audit" {
		return cli.RunAudit(os.Stdout, cfg.Audit.Path, flags.Args[1:])
	}

	level, err := cli.ParseLevel(flags.LogLevel(cfg.Log.Level))
	if err != nil {
		fmt.Fprintf(os.Stderr, "gsh: %v\n", err)
		return cli.ExitFailure
	}
	logger := cli.NewLogger(os.Stderr, level, cfg.Log.Format)

	// Set up registry and root scope.
	reg := command.NewRegistry()
	builtin.RegisterAll(reg)

	// The shell seeds the immutable env before config and defines apply.
	root := variables.NewRoot()
	sh, err := shell.New(shell.Options{
		Registry:  reg,
		Variables: root,
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gsh: %v\n", err)
		return cli.ExitFailure
	}
	if err := cfg.Apply(root); err != nil {
		fmt.Fprintf(os.Stderr, "gsh: config: %v\n", err)
		return cli.ExitFailure
	}
	for _, def := range flags.Defines {
		name, value := cli.ParseDefine(def)
		if !variables.IsIdentifier(name) {
			fmt.Fprintf(os.Stderr, "gsh: --define: %v\n", &variables.InvalidIdentifierError{Name: name})
			return cli.ExitFailure
		}
		if err := root.Set(name, value); err != nil {
			fmt.Fprintf(os.Stderr, "gsh: --define: %v\n", err)
			return cli.ExitFailure
		}
	}

	runner := &cli.Runner{Shell: sh, Stderr: os.Stderr, Logger: logger}
	if cfg.Audit.Enabled {
		al, err := audit.NewLogger(cfg.Audit.Path)
		if err != nil {
			// Continue without audit logging.
			logger.Warn("audit log unavailable", "path", cfg.Audit.Path, "error", err)
		} else {
			runner.Audit = al
		}
	}

	// Set up context with cancellation on interrupt.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case flags.MCP:
		if err := mcpserve.New(runner, version).Serve(); err != nil {
			fmt.Fprintf(os.Stderr, "gsh: mcp: %v\n", err)
			return cli.ExitFailure
		}
		return cli.ExitOK
	case flags.Command != "":
		runner.Source = "command"
		code, res := runner.Line(ctx, flags.Command)
		if _, exited := result.ExitCode(res); exited || !flags.Interactive {
			return code
		}
	case len(flags.Args) > 0:
		runner.Source = "args"
		return runner.RunArgs(ctx, flags.Args)
	}

	runner.Source = "interactive"
	prompt := term.IsTerminal(int(os.Stdin.Fd()))
	return runner.RunInteractive(ctx, os.Stdin, os.Stdout, prompt)
}
