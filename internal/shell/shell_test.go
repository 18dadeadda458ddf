package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/marcelocantos/gsh/internal/command"
	"github.com/marcelocantos/gsh/internal/command/builtin"
	"github.com/marcelocantos/gsh/internal/parser"
	"github.com/marcelocantos/gsh/internal/pipeline"
	"github.com/marcelocantos/gsh/internal/result"
	"github.com/marcelocantos/gsh/internal/variables"
)

func newShell(t *testing.T) (*Shell, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	reg := command.NewRegistry()
	builtin.RegisterAll(reg)
	var out, errOut bytes.Buffer
	s, err := New(Options{
		Registry: reg,
		IO:       &command.IO{In: strings.NewReader(""), Out: &out, Err: &errOut},
		Environ:  []string{"HOME=/home/test", "EMPTY=", "junk"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s, &out, &errOut
}

func TestNewRequiresRegistry(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrNoRegistry) {
		t.Errorf("expected ErrNoRegistry, got %v", err)
	}
}

func TestNewSeedsRootScope(t *testing.T) {
	s, _, _ := newShell(t)
	root := s.Variables()

	env, ok := root.Get(EnvVariable)
	if !ok {
		t.Fatal("expected env to be seeded")
	}
	m := env.(map[string]string)
	if m["HOME"] != "/home/test" || len(m) != 2 {
		t.Errorf("unexpected env %v", m)
	}
	if root.IsMutable(EnvVariable) {
		t.Error("env must be immutable")
	}
	if root.String(PromptVariable, "") != DefaultPrompt {
		t.Error("expected default prompt")
	}
	if root.String(command.PathVariable, "") != command.DefaultPath {
		t.Error("expected default path")
	}
}

func TestNewKeepsExistingVariables(t *testing.T) {
	root := variables.NewRoot()
	_ = root.Set(PromptVariable, "$ ")
	reg := command.NewRegistry()
	s, err := New(Options{Registry: reg, Variables: root, Environ: []string{}})
	if err != nil {
		t.Fatal(err)
	}
	if s.Prompt() != "$ " {
		t.Errorf("expected configured prompt, got %q", s.Prompt())
	}
}

func TestExecuteCompound(t *testing.T) {
	s, out, _ := newShell(t)
	r := s.Execute(context.Background(), "set who=world; echo hello $who # trailing comment")
	if r.Kind() != result.Success {
		t.Fatal(r)
	}
	if out.String() != "hello world\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestExecuteEnvVariable(t *testing.T) {
	s, out, _ := newShell(t)
	if r := s.Execute(context.Background(), `eval 'env["HOME"]'`); r.Kind() != result.Success {
		t.Fatal(r)
	}
	if out.String() != "/home/test\n" {
		t.Errorf("got %q", out.String())
	}

	r := s.Execute(context.Background(), "set env=x")
	var ie *variables.ImmutableVariableError
	if !errors.As(r.Err(), &ie) {
		t.Errorf("expected ImmutableVariableError, got %v", r)
	}
}

func TestExecuteExitNotification(t *testing.T) {
	s, out, _ := newShell(t)
	r := s.Execute(context.Background(), "echo hi; exit 3; echo never")
	code, ok := result.ExitCode(r)
	if !ok || code != 3 {
		t.Fatalf("expected exit 3, got %v", r)
	}
	if out.String() != "hi\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestExecuteExitInsidePipeline(t *testing.T) {
	s, _, _ := newShell(t)
	r := s.Execute(context.Background(), "echo a | exit 5 | cat")
	if code, ok := result.ExitCode(r); !ok || code != 5 {
		t.Errorf("expected exit 5 through the pipeline, got %v", r)
	}
}

func TestExecutePipe(t *testing.T) {
	s, out, _ := newShell(t)
	r := s.Execute(context.Background(), "echo hello | cat -n | cat")
	if r.Kind() != result.Success {
		t.Fatal(r)
	}
	if out.String() != "     1  hello\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestExecuteSyntaxError(t *testing.T) {
	s, _, _ := newShell(t)
	r := s.Execute(context.Background(), `echo "unterminated`)
	var se *parser.SyntaxError
	if r.Kind() != result.Failure || !errors.As(r.Err(), &se) {
		t.Errorf("expected SyntaxError, got %v", r)
	}
}

func TestExecuteNotFound(t *testing.T) {
	s, _, _ := newShell(t)
	r := s.Execute(context.Background(), "nope a b")
	var nf *command.NotFoundError
	if !errors.As(r.Err(), &nf) || nf.Path != "nope" {
		t.Errorf("expected NotFoundError, got %v", r)
	}
}

func TestExecuteAlias(t *testing.T) {
	s, out, _ := newShell(t)
	r := s.Execute(context.Background(), "alias 'greet=echo hello'; greet world")
	if r.Kind() != result.Success {
		t.Fatal(r)
	}
	if out.String() != "hello world\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestExecuteQuotedAssignments(t *testing.T) {
	s, out, _ := newShell(t)
	r := s.Execute(context.Background(), `set greeting="hello world"; alias say='echo -n'; say "$greeting"`)
	if r.Kind() != result.Success {
		t.Fatal(r)
	}
	if out.String() != "hello world" {
		t.Errorf("got %q", out.String())
	}
	if s.Variables().Contains("hello world") {
		t.Error("the quoted value must not become a variable")
	}
}

func TestExecuteBackslashBeforeReference(t *testing.T) {
	s, out, _ := newShell(t)
	r := s.Execute(context.Background(), `set x=V; echo "\\$x" a\\$x "\$x" $x.`)
	if r.Kind() != result.Success {
		t.Fatal(r)
	}
	if want := `\V a\V $x V.` + "\n"; out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}

type upperExpander struct{}

func (upperExpander) Expand(_ *variables.Scope, words []parser.Word) ([]string, error) {
	args := make([]string, len(words))
	for i, w := range words {
		args[i] = strings.ToUpper(w.Value)
	}
	return args, nil
}

func TestPromptUsesConfiguredExpander(t *testing.T) {
	root := variables.NewRoot()
	_ = root.Set(PromptVariable, "gsh$ ")
	s, err := New(Options{Registry: command.NewRegistry(), Variables: root, Expander: upperExpander{}, Environ: []string{}})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Prompt(); got != "GSH$ " {
		t.Errorf("got %q", got)
	}
}

func TestExecuteArgsIsVerbatim(t *testing.T) {
	s, out, _ := newShell(t)
	_ = s.Variables().Set("x", "expanded")
	if r := s.ExecuteArgs(context.Background(), s.IO(), "echo", "$x", "a;b"); r.Kind() != result.Success {
		t.Fatal(r)
	}
	if out.String() != "$x a;b\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestExecutePipelineArgs(t *testing.T) {
	s, out, _ := newShell(t)
	r := s.ExecutePipeline(context.Background(), s.IO(), []string{"echo", "x"}, []string{"cat", "-n"})
	if r.Kind() != result.Success {
		t.Fatal(r)
	}
	if out.String() != "     1  x\n" {
		t.Errorf("got %q", out.String())
	}
	r = s.ExecutePipeline(context.Background(), s.IO(), []string{"echo"}, nil)
	if !errors.Is(r.Err(), pipeline.ErrEmptyStage) {
		t.Errorf("expected ErrEmptyStage, got %v", r)
	}
	if r := s.ExecutePipeline(context.Background(), s.IO()); !errors.Is(r.Err(), pipeline.ErrEmptyStage) {
		t.Errorf("expected ErrEmptyStage without stages, got %v", r)
	}
}

func TestExecuteIO(t *testing.T) {
	s, shared, _ := newShell(t)
	var out bytes.Buffer
	rio := &command.IO{In: strings.NewReader("from stdin\n"), Out: &out, Err: &out}
	if r := s.ExecuteIO(context.Background(), rio, "cat"); r.Kind() != result.Success {
		t.Fatal(r)
	}
	if out.String() != "from stdin\n" {
		t.Errorf("got %q", out.String())
	}
	if shared.Len() != 0 {
		t.Error("root IO must be untouched")
	}
}

func TestExecuteHelpSeesRegistry(t *testing.T) {
	s, out, _ := newShell(t)
	if r := s.Execute(context.Background(), "help"); r.Kind() != result.Success {
		t.Fatal(r)
	}
	if !strings.Contains(out.String(), "Available commands:") {
		t.Errorf("got %q", out.String())
	}
}

func TestPromptExpands(t *testing.T) {
	s, _, _ := newShell(t)
	_ = s.Variables().Set("user", "ada")
	_ = s.Variables().Set(PromptVariable, "$user> ")
	if got := s.Prompt(); got != "ada> " {
		t.Errorf("expected ada> , got %q", got)
	}
}

func TestInvocationID(t *testing.T) {
	if _, ok := InvocationID(context.Background()); ok {
		t.Error("expected no id")
	}
	ctx := WithInvocationID(context.Background(), "abc")
	if id, ok := InvocationID(ctx); !ok || id != "abc" {
		t.Errorf("expected abc, got %q", id)
	}
}
