// Package shell ties the parser, the pipeline executor and the command
// registry into an engine that executes command lines against a
// process-lifetime root scope.
package shell

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcelocantos/gsh/internal/command"
	"github.com/marcelocantos/gsh/internal/expand"
	"github.com/marcelocantos/gsh/internal/parser"
	"github.com/marcelocantos/gsh/internal/pipeline"
	"github.com/marcelocantos/gsh/internal/result"
	"github.com/marcelocantos/gsh/internal/variables"
)

// Root scope variables seeded by New.
const (
	EnvVariable    = "env"
	PromptVariable = "gshell.prompt"
	DefaultPrompt  = "gsh> "
)

// ErrNoRegistry is returned by New without a command registry.
var ErrNoRegistry = errors.New("shell: no command registry")

// Options configures a Shell. Only Registry is required.
type Options struct {
	Registry *command.Registry

	// IO is the root stream triple. Defaults to the process streams.
	IO *command.IO

	// Variables is the root scope. Defaults to a fresh root.
	Variables *variables.Scope

	Logger *slog.Logger

	// Expander interpolates words before resolution. Defaults to
	// expand.New().
	Expander pipeline.Expander

	// Environ seeds the immutable env variable. Defaults to os.Environ().
	Environ []string
}

// Shell executes command lines. It is safe for concurrent use to the extent
// the registered commands are.
type Shell struct {
	reg      *command.Registry
	io       *command.IO
	root     *variables.Scope
	logger   *slog.Logger
	resolver *command.Resolver
	expander pipeline.Expander
}

// New creates a shell and seeds its root scope with env, gshell.prompt and
// gshell.path unless they are already bound.
func New(opts Options) (*Shell, error) {
	if opts.Registry == nil {
		return nil, ErrNoRegistry
	}
	s := &Shell{
		reg:      opts.Registry,
		io:       opts.IO,
		root:     opts.Variables,
		logger:   opts.Logger,
		resolver: command.NewResolver(opts.Registry),
		expander: opts.Expander,
	}
	if s.io == nil {
		s.io = command.StdIO()
	}
	if s.root == nil {
		s.root = variables.NewRoot()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.expander == nil {
		s.expander = expand.New()
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	if !s.root.Contains(EnvVariable) {
		if err := s.root.SetImmutable(EnvVariable, envMap(environ)); err != nil {
			return nil, err
		}
	}
	defaults := map[string]string{
		PromptVariable:       DefaultPrompt,
		command.PathVariable: command.DefaultPath,
	}
	for name, value := range defaults {
		if _, ok := s.root.Get(name); ok {
			continue
		}
		if err := s.root.Set(name, value); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func envMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Variables returns the root scope.
func (s *Shell) Variables() *variables.Scope { return s.root }

// Registry returns the command registry.
func (s *Shell) Registry() *command.Registry { return s.reg }

// IO returns the root stream triple.
func (s *Shell) IO() *command.IO { return s.io }

// Prompt returns the interactive prompt with variables expanded.
func (s *Shell) Prompt() string {
	raw := s.root.String(PromptVariable, DefaultPrompt)
	word := parser.Word{Kind: parser.Quoted, Value: raw, Token: raw, Pos: -1}
	args, err := s.expander.Expand(s.root, []parser.Word{word})
	if err != nil || len(args) != 1 {
		return raw
	}
	return args[0]
}

// Parse turns a line into an executable plan.
func (s *Shell) Parse(line string) (*pipeline.Plan, error) {
	parsed, err := parser.Parse(line)
	if err != nil {
		return nil, err
	}
	return pipeline.Build(parsed)
}

// Execute parses and runs line against the root IO.
func (s *Shell) Execute(ctx context.Context, line string) result.Result {
	return s.ExecuteIO(ctx, s.io, line)
}

// ExecuteIO parses and runs line against rio.
func (s *Shell) ExecuteIO(ctx context.Context, rio *command.IO, line string) result.Result {
	plan, err := s.Parse(line)
	if err != nil {
		return result.Fail(err)
	}
	return s.ExecutePlan(ctx, rio, plan)
}

// ExecuteArgs runs a single command given as an argument vector against
// rio. Arguments are passed verbatim.
func (s *Shell) ExecuteArgs(ctx context.Context, rio *command.IO, path string, args ...string) result.Result {
	return s.ExecutePlan(ctx, rio, pipeline.FromArgs(append([]string{path}, args...)...))
}

// ExecutePipeline runs the argument vectors as one pipeline against rio.
// Arguments are passed verbatim.
func (s *Shell) ExecutePipeline(ctx context.Context, rio *command.IO, argvs ...[]string) result.Result {
	if len(argvs) == 0 {
		return result.Fail(pipeline.ErrEmptyStage)
	}
	for _, argv := range argvs {
		if len(argv) == 0 {
			return result.Fail(pipeline.ErrEmptyStage)
		}
	}
	return s.ExecutePlan(ctx, rio, pipeline.FromPipeline(argvs...))
}

// ExecutePlan runs plan against rio. The registry is attached to the
// context for commands that need it.
func (s *Shell) ExecutePlan(ctx context.Context, rio *command.IO, plan *pipeline.Plan) result.Result {
	id, ok := InvocationID(ctx)
	if !ok {
		id = uuid.NewString()
		ctx = WithInvocationID(ctx, id)
	}
	log := s.logger.With("invocation", id)
	ctx = command.NewContext(ctx, s.reg)

	exec := &pipeline.Executor{
		Resolver: s.resolver,
		Expander: s.expander,
		Logger:   log,
	}
	start := time.Now()
	r := exec.Execute(ctx, plan, rio, s.root)
	log.Debug("line finished", "units", len(plan.Units), "outcome", r.Kind(), "duration", time.Since(start))
	if r.Kind() == result.Failure {
		log.Info("line failed", "error", r.Err())
	}
	return r
}

type invocationKey struct{}

// WithInvocationID attaches an invocation id used to correlate log lines
// and audit entries.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationKey{}, id)
}

// InvocationID returns the id attached by WithInvocationID.
func InvocationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(invocationKey{}).(string)
	return id, ok && id != ""
}
