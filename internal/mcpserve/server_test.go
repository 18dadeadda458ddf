package mcpserve

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/marcelocantos/gsh/internal/cli"
	"github.com/marcelocantos/gsh/internal/command"
	"github.com/marcelocantos/gsh/internal/command/builtin"
	"github.com/marcelocantos/gsh/internal/shell"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	reg := command.NewRegistry()
	builtin.RegisterAll(reg)
	sh, err := shell.New(shell.Options{Registry: reg, Environ: []string{}})
	if err != nil {
		t.Fatal(err)
	}
	return New(&cli.Runner{Shell: sh}, "test")
}

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func call(t *testing.T, s *Server, args map[string]any) (string, bool) {
	t.Helper()
	return callTool(t, ExecuteTool, s.handleExecute, args)
}

func callTool(t *testing.T, name string, h handler, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text, res.IsError
}

func TestExecute(t *testing.T) {
	s := newServer(t)
	text, isErr := call(t, s, map[string]any{"line": "echo hi | cat"})
	if isErr || text != "hi\n" {
		t.Errorf("got %q (error %v)", text, isErr)
	}
}

func TestExecuteStdin(t *testing.T) {
	s := newServer(t)
	text, isErr := call(t, s, map[string]any{"line": "cat -n", "stdin": "abc\n"})
	if isErr || text != "     1  abc\n" {
		t.Errorf("got %q (error %v)", text, isErr)
	}
}

func TestExecuteFailure(t *testing.T) {
	s := newServer(t)
	text, isErr := call(t, s, map[string]any{"line": "nope"})
	if !isErr {
		t.Error("expected an error result")
	}
	if !strings.Contains(text, "command or path was not found: nope") || !strings.HasSuffix(text, "exit status 1") {
		t.Errorf("got %q", text)
	}
}

func TestExecuteExit(t *testing.T) {
	s := newServer(t)
	text, isErr := call(t, s, map[string]any{"line": "echo bye; exit 3"})
	if isErr || text != "bye\nexit status 3" {
		t.Errorf("got %q (error %v)", text, isErr)
	}
}

func TestVariablesPersist(t *testing.T) {
	s := newServer(t)
	if _, isErr := call(t, s, map[string]any{"line": "set greeting=hello"}); isErr {
		t.Fatal("set failed")
	}
	text, _ := call(t, s, map[string]any{"line": `echo "$greeting"`})
	if text != "hello\n" {
		t.Errorf("got %q", text)
	}
}

func TestMissingLine(t *testing.T) {
	s := newServer(t)
	if _, isErr := call(t, s, map[string]any{}); !isErr {
		t.Error("expected an error result without a line")
	}
}

func TestRunPipeline(t *testing.T) {
	s := newServer(t)
	stages := []any{[]any{"echo", "$x;"}, []any{"cat", "-n"}}
	text, isErr := callTool(t, RunTool, s.handleRun, map[string]any{"stages": stages})
	if isErr || text != "     1  $x;\n" {
		t.Errorf("got %q (error %v)", text, isErr)
	}
}

func TestRunStdin(t *testing.T) {
	s := newServer(t)
	text, isErr := callTool(t, RunTool, s.handleRun, map[string]any{
		"stages": []any{[]any{"cat"}},
		"stdin":  "abc",
	})
	if isErr || text != "abc\n" {
		t.Errorf("got %q (error %v)", text, isErr)
	}
}

func TestRunRejectsMalformedStages(t *testing.T) {
	s := newServer(t)
	for _, stages := range []any{nil, []any{}, []any{[]any{}}, []any{"echo"}, []any{[]any{"echo", 1}}} {
		if _, isErr := callTool(t, RunTool, s.handleRun, map[string]any{"stages": stages}); !isErr {
			t.Errorf("%v: expected an error result", stages)
		}
	}
}

func TestRunFailure(t *testing.T) {
	s := newServer(t)
	text, isErr := callTool(t, RunTool, s.handleRun, map[string]any{"stages": []any{[]any{"nope"}}})
	if !isErr || !strings.Contains(text, "command or path was not found: nope") {
		t.Errorf("got %q (error %v)", text, isErr)
	}
}
