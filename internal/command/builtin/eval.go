package builtin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/marcelocantos/gsh/internal/command"
	"github.com/marcelocantos/gsh/internal/hijack"
	"github.com/marcelocantos/gsh/internal/variables"
)

// Eval evaluates a Starlark expression. Shell variables whose names are
// valid Starlark identifiers are visible as globals. The value is printed
// unless it is None, and becomes the command's result.
type Eval struct{}

var _ command.Command = (*Eval)(nil)

func (e *Eval) Name() string        { return "eval" }
func (e *Eval) Description() string { return "evaluate a Starlark expression" }

func (e *Eval) Execute(ctx context.Context, inv *command.Invocation) (any, error) {
	if len(inv.Args) == 0 {
		return nil, fmt.Errorf("eval: missing expression")
	}
	expr := strings.Join(inv.Args, " ")

	thread := &starlark.Thread{
		Name: "eval",
		Print: func(_ *starlark.Thread, msg string) {
			hijack.Printf(ctx, "%s\n", msg)
		},
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	v, err := starlark.EvalOptions(&syntax.FileOptions{}, thread, "<eval>", expr, globals(inv.Variables))
	if err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			hijack.Eprintf(ctx, "%s\n", evalErr.Backtrace())
		}
		return nil, fmt.Errorf("eval: %w", err)
	}
	if v != starlark.None {
		if _, err := fmt.Fprintln(inv.IO.Out, display(v)); err != nil {
			return nil, err
		}
	}
	return fromStarlark(v), nil
}

// display renders a result for the console. Strings print bare, everything
// else in Starlark notation.
func display(v starlark.Value) string {
	if s, ok := v.(starlark.String); ok {
		return string(s)
	}
	return v.String()
}

func globals(scope *variables.Scope) starlark.StringDict {
	env := starlark.StringDict{}
	for _, name := range scope.Names() {
		if !isStarlarkIdent(name) {
			continue
		}
		value, _ := scope.Get(name)
		env[name] = toStarlark(value)
	}
	return env
}

func isStarlarkIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func toStarlark(v any) starlark.Value {
	switch v := v.(type) {
	case nil:
		return starlark.None
	case starlark.Value:
		return v
	case string:
		return starlark.String(v)
	case bool:
		return starlark.Bool(v)
	case int:
		return starlark.MakeInt(v)
	case int64:
		return starlark.MakeInt64(v)
	case float64:
		return starlark.Float(v)
	case []string:
		elems := make([]starlark.Value, len(v))
		for i, s := range v {
			elems[i] = starlark.String(s)
		}
		return starlark.NewList(elems)
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := starlark.NewDict(len(v))
		for _, k := range keys {
			_ = d.SetKey(starlark.String(k), starlark.String(v[k]))
		}
		return d
	default:
		return starlark.String(fmt.Sprint(v))
	}
}

func fromStarlark(v starlark.Value) any {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(v)
	case starlark.String:
		return string(v)
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i
		}
		return v.String()
	case starlark.Float:
		return float64(v)
	case *starlark.List:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = fromStarlark(v.Index(i))
		}
		return out
	default:
		return v.String()
	}
}
