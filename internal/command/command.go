// Package command defines the contract between the execution engine and the
// commands it runs, the registry commands are looked up in, and the resolver
// that maps a typed name to a registered command.
package command

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/marcelocantos/gsh/internal/variables"
)

// ErrNilStream is returned by NewIO when any stream is missing.
var ErrNilStream = errors.New("nil stream")

// IO is the stream triple bound to one invocation.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// NewIO returns an IO over the given streams.
func NewIO(in io.Reader, out, err io.Writer) (*IO, error) {
	if in == nil || out == nil || err == nil {
		return nil, ErrNilStream
	}
	return &IO{In: in, Out: out, Err: err}, nil
}

// StdIO returns the process streams.
func StdIO() *IO {
	return &IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

type flusher interface {
	Flush() error
}

// Flush flushes Out and Err when they buffer. The first error wins.
func (s *IO) Flush() error {
	var first error
	for _, w := range []io.Writer{s.Out, s.Err} {
		if f, ok := w.(flusher); ok {
			if err := f.Flush(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Invocation is everything a command sees when it runs.
type Invocation struct {
	// Name is the registered name the command was resolved to.
	Name string
	Args []string
	IO   *IO

	// Variables is a fresh child of the scope the command was invoked
	// from. It always has a parent; commands that change shell state
	// write to Variables.Parent().
	Variables *variables.Scope
	Logger    *slog.Logger
}

// Command is the interface every shell command implements.
type Command interface {
	// Name returns the registry name, which may contain '/' to place the
	// command in a group.
	Name() string

	// Description returns a one-line summary for help output.
	Description() string

	// Execute runs the command. The returned value becomes the success
	// value of the invocation; an error is decoded into a failure or a
	// notification.
	Execute(ctx context.Context, inv *Invocation) (any, error)
}

// Func adapts a function to the Command interface.
type Func struct {
	name, description string
	fn                func(ctx context.Context, inv *Invocation) (any, error)
}

var _ Command = (*Func)(nil)

// NewFunc returns a Command that calls fn.
func NewFunc(name, description string, fn func(ctx context.Context, inv *Invocation) (any, error)) *Func {
	return &Func{name: name, description: description, fn: fn}
}

func (f *Func) Name() string        { return f.name }
func (f *Func) Description() string { return f.description }

func (f *Func) Execute(ctx context.Context, inv *Invocation) (any, error) {
	return f.fn(ctx, inv)
}
