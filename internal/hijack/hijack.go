// Package hijack captures ambient output for the duration of a command.
//
// Commands that print through Stdout or Stderr instead of their explicit IO
// still land in the streams of the invocation they run in. Registration is
// carried by the context, so concurrent pipeline stages each see their own
// streams.
package hijack

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

type frame struct {
	out, err io.Writer
	parent   *frame
	active   atomic.Bool
}

type contextKey struct{}

// Register installs out and err as the ambient streams for ctx. The returned
// restore function deregisters them; writers obtained earlier then fall back
// to the previously registered streams, and finally to the process streams.
// restore is idempotent.
func Register(ctx context.Context, out, err io.Writer) (context.Context, func()) {
	parent, _ := ctx.Value(contextKey{}).(*frame)
	f := &frame{out: out, err: err, parent: parent}
	f.active.Store(true)
	return context.WithValue(ctx, contextKey{}, f), func() { f.active.Store(false) }
}

// Stdout returns a writer for the ambient standard output of ctx.
func Stdout(ctx context.Context) io.Writer {
	f, _ := ctx.Value(contextKey{}).(*frame)
	return &writer{frame: f}
}

// Stderr returns a writer for the ambient standard error of ctx.
func Stderr(ctx context.Context) io.Writer {
	f, _ := ctx.Value(contextKey{}).(*frame)
	return &writer{frame: f, stderr: true}
}

// Printf formats to the ambient standard output of ctx.
func Printf(ctx context.Context, format string, args ...any) {
	fmt.Fprintf(Stdout(ctx), format, args...)
}

// Eprintf formats to the ambient standard error of ctx.
func Eprintf(ctx context.Context, format string, args ...any) {
	fmt.Fprintf(Stderr(ctx), format, args...)
}

type writer struct {
	frame  *frame
	stderr bool
}

// Write resolves the target stream on every call.
func (w *writer) Write(p []byte) (int, error) {
	return w.target().Write(p)
}

func (w *writer) target() io.Writer {
	for f := w.frame; f != nil; f = f.parent {
		if !f.active.Load() {
			continue
		}
		if w.stderr && f.err != nil {
			return f.err
		}
		if !w.stderr && f.out != nil {
			return f.out
		}
	}
	if w.stderr {
		return os.Stderr
	}
	return os.Stdout
}
