// Package mcpserve exposes a shell as an MCP tool server over stdio so that
// agents can execute gsh command lines.
package mcpserve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marcelocantos/gsh/internal/cli"
	"github.com/marcelocantos/gsh/internal/command"
	"github.com/marcelocantos/gsh/internal/result"
)

// Tool names.
const (
	ExecuteTool = "execute"
	RunTool     = "run"
)

// Server wraps an MCP server whose tools run through runner.
type Server struct {
	runner *cli.Runner
	mcp    *server.MCPServer
}

// New creates a server. Each call runs on a copy of runner whose failure
// reports go to the call's own stderr buffer.
func New(runner *cli.Runner, version string) *Server {
	s := &Server{
		runner: runner,
		mcp: server.NewMCPServer("gsh", version,
			server.WithToolCapabilities(false),
		),
	}
	s.mcp.AddTool(mcp.NewTool(ExecuteTool,
		mcp.WithDescription("Execute a gsh command line. Statements are separated by ';' and piped with '|'. "+
			"Variables set with 'set' persist between calls."),
		mcp.WithString("line",
			mcp.Required(),
			mcp.Description("The command line to execute"),
		),
		mcp.WithString("stdin",
			mcp.Description("Text supplied as standard input to the first command"),
		),
	), s.handleExecute)
	s.mcp.AddTool(mcp.NewTool(RunTool,
		mcp.WithDescription("Run commands given as argument vectors, chained as a pipeline when more "+
			"than one is given. Arguments are passed verbatim, without parsing or interpolation."),
		mcp.WithArray("stages",
			mcp.Required(),
			mcp.Description("One argument vector per pipeline stage, command name first"),
			mcp.Items(map[string]any{"type": "array", "items": map[string]any{"type": "string"}}),
		),
		mcp.WithString("stdin",
			mcp.Description("Text supplied as standard input to the first command"),
		),
	), s.handleRun)
	return s
}

// Serve runs the server on the process stdin and stdout until the client
// disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleExecute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := req.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.call(req, func(r *cli.Runner, rio *command.IO) (int, result.Result) {
		return r.LineIO(ctx, rio, line)
	})
}

func (s *Server) handleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argvs, err := stages(req.GetArguments()["stages"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.call(req, func(r *cli.Runner, rio *command.IO) (int, result.Result) {
		return r.PipelineIO(ctx, rio, argvs)
	})
}

// call runs one tool invocation on its own streams and renders the output,
// failure report and exit status as the tool result.
func (s *Server) call(req mcp.CallToolRequest, run func(*cli.Runner, *command.IO) (int, result.Result)) (*mcp.CallToolResult, error) {
	var out, errOut lockedBuffer
	rio, err := command.NewIO(strings.NewReader(req.GetString("stdin", "")), &out, &errOut)
	if err != nil {
		return nil, err
	}
	r := *s.runner
	r.Stderr = &errOut
	r.Source = "mcp"

	code, res := run(&r, rio)
	text := out.String() + errOut.String()
	switch res.Kind() {
	case result.Failure:
		return mcp.NewToolResultError(fmt.Sprintf("%sexit status %d", text, code)), nil
	case result.Notified:
		if c, ok := result.ExitCode(res); ok {
			text += fmt.Sprintf("exit status %d", c)
		}
	}
	return mcp.NewToolResultText(text), nil
}

// stages decodes the stages argument: a non-empty array of non-empty
// string arrays.
func stages(v any) ([][]string, error) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, errors.New("stages must be a non-empty array of argument vectors")
	}
	argvs := make([][]string, len(list))
	for i, item := range list {
		words, ok := item.([]any)
		if !ok || len(words) == 0 {
			return nil, fmt.Errorf("stage %d must be a non-empty array of strings", i)
		}
		argv := make([]string, len(words))
		for j, w := range words {
			str, ok := w.(string)
			if !ok {
				return nil, fmt.Errorf("stage %d argument %d is not a string", i, j)
			}
			argv[j] = str
		}
		argvs[i] = argv
	}
	return argvs, nil
}

// lockedBuffer collects the output of concurrently running stages.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
