// Package result classifies the outcome of a command invocation.
//
// A Result is exactly one of Success, Failure or Notified. Notifications are
// control-flow signals (such as a request to exit the shell) that travel
// through the error channel but must never be reported as failures.
package result

import (
	"errors"
	"fmt"
)

// Kind tags the active variant of a Result.
type Kind int

const (
	Success Kind = iota
	Failure
	Notified
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Notified:
		return "notified"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Notification is an error that signals control flow rather than a fault.
// Types opt in by embedding Signal.
type Notification interface {
	error
	notification()
}

// Signal marks the embedding type as a Notification.
type Signal struct{}

func (Signal) notification() {}

// ExitNotification asks the enclosing shell loop to terminate with Code.
type ExitNotification struct {
	Signal
	Code int
}

func (e *ExitNotification) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// ExitCode returns Code.
func (e *ExitNotification) ExitCode() int { return e.Code }

// ErrorNotification carries another notification through an error boundary.
// Decode removes exactly one such layer.
type ErrorNotification struct {
	Signal
	Cause error
}

func (e *ErrorNotification) Error() string {
	if e.Cause == nil {
		return "error notification"
	}
	return e.Cause.Error()
}

func (e *ErrorNotification) Unwrap() error { return e.Cause }

// Result is the decoded outcome of an execution.
type Result struct {
	kind  Kind
	value any
	err   error
	note  Notification
}

// OK returns a Success carrying value.
func OK(value any) Result {
	return Result{kind: Success, value: value}
}

// Fail returns a Failure carrying err. A nil err yields Success.
func Fail(err error) Result {
	if err == nil {
		return OK(nil)
	}
	return Result{kind: Failure, err: err}
}

// Notify returns a Notified result carrying n.
func Notify(n Notification) Result {
	return Result{kind: Notified, note: n}
}

func (r Result) Kind() Kind { return r.kind }

// Value returns the success value, or nil for the other kinds.
func (r Result) Value() any { return r.value }

// Err returns the failure cause, or nil for the other kinds.
func (r Result) Err() error { return r.err }

// Notification returns the notification, or nil for the other kinds.
func (r Result) Notification() Notification { return r.note }

// AsError folds the result back into a single error: nil on success, the
// cause on failure, the notification itself when notified.
func (r Result) AsError() error {
	switch r.kind {
	case Failure:
		return r.err
	case Notified:
		return r.note
	default:
		return nil
	}
}

func (r Result) String() string {
	switch r.kind {
	case Failure:
		return fmt.Sprintf("failure: %v", r.err)
	case Notified:
		return fmt.Sprintf("notified: %v", r.note)
	default:
		return fmt.Sprintf("success: %v", r.value)
	}
}

// Decode classifies a raw (value, err) command outcome.
//
// An ErrorNotification anywhere in the chain is unwrapped one layer and its
// cause classified in its place. If the cause is itself a notification it is
// returned with its concrete type intact; otherwise the cause is a failure.
// Any other notification in the chain wins over the surrounding wrappers.
func Decode(value any, err error) Result {
	if err == nil {
		return OK(value)
	}

	var wrapper *ErrorNotification
	if errors.As(err, &wrapper) {
		if wrapper.Cause == nil {
			return Fail(err)
		}
		if n, ok := wrapper.Cause.(Notification); ok {
			return Notify(n)
		}
		return Fail(wrapper.Cause)
	}

	var n Notification
	if errors.As(err, &n) {
		return Notify(n)
	}
	return Fail(err)
}

// ExitCode reports the exit code requested by a notified result.
func ExitCode(r Result) (int, bool) {
	if r.kind != Notified {
		return 0, false
	}
	var exit *ExitNotification
	if errors.As(r.note, &exit) {
		return exit.Code, true
	}
	return 0, false
}
