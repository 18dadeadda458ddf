package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/marcelocantos/gsh/internal/command"
	"github.com/marcelocantos/gsh/internal/hijack"
	"github.com/marcelocantos/gsh/internal/parser"
	"github.com/marcelocantos/gsh/internal/result"
	"github.com/marcelocantos/gsh/internal/variables"
)

// Resolver maps a command name to a command, given the invoking scope.
type Resolver interface {
	Resolve(scope *variables.Scope, name string) (*command.Ref, error)
}

// Expander turns the words of a stage into its argument vector.
type Expander interface {
	Expand(scope *variables.Scope, words []parser.Word) ([]string, error)
}

// ErrEmptyStage is returned for a stage whose words expand to nothing.
var ErrEmptyStage = errors.New("empty command")

// ExecutionFailedError wraps the ordinary failure that decided a pipeline's
// outcome.
type ExecutionFailedError struct {
	Stage int
	Cause error
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("pipeline stage %d: %v", e.Stage, e.Cause)
}

func (e *ExecutionFailedError) Unwrap() error { return e.Cause }

// Executor runs plans. Resolver is required; a nil Expander passes word
// values through unchanged and a nil Logger discards.
type Executor struct {
	Resolver Resolver
	Expander Expander
	Logger   *slog.Logger
}

// Execute runs the units of plan in order. The first unit that does not
// succeed ends the line and its result is returned; side effects of earlier
// units stay in place. Otherwise the last unit's result is returned.
func (e *Executor) Execute(ctx context.Context, plan *Plan, rootIO *command.IO, scope *variables.Scope) result.Result {
	last := result.OK(nil)
	for _, u := range plan.Units {
		last = e.ExecuteUnit(ctx, u, rootIO, scope)
		if last.Kind() != result.Success {
			return last
		}
	}
	return last
}

// ExecuteUnit runs one statement or pipeline against rootIO. A single stage
// runs on the calling goroutine. Pipeline stages each run on their own
// goroutine and ExecuteUnit returns once all of them have finished.
func (e *Executor) ExecuteUnit(ctx context.Context, u Unit, rootIO *command.IO, scope *variables.Scope) result.Result {
	switch len(u.Stages) {
	case 0:
		return result.OK(nil)
	case 1:
		return result.Decode(e.runStage(ctx, 0, u.Stages[0], rootIO, scope))
	default:
		return e.runPipeline(ctx, u, rootIO, scope)
	}
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (e *Executor) expand(scope *variables.Scope, words []parser.Word) ([]string, error) {
	if e.Expander == nil {
		return Stage{Words: words}.Argv(), nil
	}
	return e.Expander.Expand(scope, words)
}

// runStage expands, resolves and invokes one stage in a fresh child of scope.
func (e *Executor) runStage(ctx context.Context, idx int, st Stage, sio *command.IO, scope *variables.Scope) (any, error) {
	argv, err := e.expand(scope, st.Words)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrEmptyStage
	}

	ref, err := e.Resolver.Resolve(scope, argv[0])
	if err != nil {
		return nil, err
	}

	child, err := variables.NewChild(scope)
	if err != nil {
		return nil, err
	}

	args := make([]string, 0, len(ref.Args)+len(argv)-1)
	args = append(args, ref.Args...)
	args = append(args, argv[1:]...)

	log := e.logger().With("stage", idx, "command", ref.Name)
	inv := &command.Invocation{
		Name:      ref.Name,
		Args:      args,
		IO:        sio,
		Variables: child,
		Logger:    log,
	}

	start := time.Now()
	value, err := invoke(ctx, ref.Command, inv)
	log.Debug("command finished", "duration", time.Since(start), "error", err)
	return value, err
}

// invoke runs c with the ambient output registered to inv.IO, then restores
// the previous registration and flushes the streams whether or not c failed.
func invoke(ctx context.Context, c command.Command, inv *command.Invocation) (value any, err error) {
	hctx, restore := hijack.Register(ctx, inv.IO.Out, inv.IO.Err)
	defer func() {
		restore()
		if ferr := inv.IO.Flush(); ferr != nil && err == nil {
			err = ferr
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, fmt.Errorf("command %s panicked: %v", inv.Name, r)
		}
	}()
	return c.Execute(hctx, inv)
}

func (e *Executor) runPipeline(ctx context.Context, u Unit, rootIO *command.IO, scope *variables.Scope) result.Result {
	n := len(u.Stages)

	// Create N-1 pipes between N stages.
	type pipeEnd struct {
		r *io.PipeReader
		w *io.PipeWriter
	}
	pipes := make([]pipeEnd, n-1)
	for i := range pipes {
		pipes[i].r, pipes[i].w = io.Pipe()
	}

	stderr := &syncWriter{w: rootIO.Err}
	var (
		wg   sync.WaitGroup
		outc collector
	)

	for i, st := range u.Stages {
		wg.Add(1)
		go func(i int, st Stage) {
			defer wg.Done()

			sio := &command.IO{In: rootIO.In, Out: rootIO.Out, Err: stderr}
			if i > 0 {
				sio.In = pipes[i-1].r
			}
			if i < n-1 {
				sio.Out = pipes[i].w
			}

			value, err := e.runStage(ctx, i, st, sio, scope)

			// Close pipe writer so downstream sees EOF.
			if i < n-1 {
				pipes[i].w.Close()
			}
			// Close pipe reader so upstream writes fail instead of blocking.
			if i > 0 {
				pipes[i-1].r.Close()
			}

			outc.record(i, value, err, i == n-1)
		}(i, st)
	}

	wg.Wait()
	return outc.outcome()
}

type stageOutcome struct {
	stage int
	res   result.Result
}

// collector accumulates stage outcomes across goroutines.
type collector struct {
	mu       sync.Mutex
	failures []stageOutcome
	last     any
}

func (c *collector) record(stage int, value any, err error, last bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failures = append(c.failures, stageOutcome{stage: stage, res: result.Decode(nil, err)})
		return
	}
	if last {
		c.last = value
	}
}

// outcome decides the pipeline result once every stage has finished. A
// notification from any stage wins, then the failure of the lowest failed
// stage. A stage that failed only because it wrote into a pipe whose reader
// had already finished does not count as failed.
func (c *collector) outcome() result.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	var note, fault *stageOutcome
	for i := range c.failures {
		f := &c.failures[i]
		switch {
		case f.res.Kind() == result.Notified:
			if note == nil || f.stage < note.stage {
				note = f
			}
		case errors.Is(f.res.Err(), io.ErrClosedPipe):
			// Reader gone; whatever stopped it decides.
		default:
			if fault == nil || f.stage < fault.stage {
				fault = f
			}
		}
	}

	switch {
	case note != nil:
		return note.res
	case fault != nil:
		return result.Fail(&ExecutionFailedError{Stage: fault.stage, Cause: fault.res.Err()})
	default:
		return result.OK(c.last)
	}
}

// syncWriter serializes writes from concurrent stages onto one stream.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Flush flushes the underlying writer when it buffers.
func (s *syncWriter) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
