package state

import (
	"errors"
	"fmt"
	"os"
)

// ExitCode is the process exit status used when a run aborts.
const ExitCode = 1

// ErrAborted is wrapped by every AbortError. Use errors.Is(err, ErrAborted) to
// tell an aborted run from other failures.
var ErrAborted = errors.New("pipeline aborted on critical error")

// AbortError carries the critical record that stopped the run.
type AbortError struct {
	Scope  Scope
	Record ErrorRecord
}

func (e *AbortError) Error() string {
	if e.Record.Stage != "" {
		return fmt.Sprintf("%v: %s (%s scope, stage %q)", ErrAborted, e.Record.Message, e.Scope, e.Record.Stage)
	}
	return fmt.Sprintf("%v: %s (%s scope)", ErrAborted, e.Record.Message, e.Scope)
}

func (e *AbortError) Unwrap() error { return ErrAborted }

// IsAborted reports whether err is, or wraps, an AbortError.
func IsAborted(err error) bool { return errors.Is(err, ErrAborted) }

// Verdict is the result of CheckErrors: either Continue or Abort with the first
// critical record found.
type Verdict struct {
	abort  bool
	scope  Scope
	reason ErrorRecord
}

// Continue is the verdict of a check that found no critical record.
func Continue() Verdict { return Verdict{} }

// Abort is the verdict of a check that found the critical record reason.
func Abort(scope Scope, reason ErrorRecord) Verdict {
	return Verdict{abort: true, scope: scope, reason: reason}
}

// Aborted reports whether the run must stop.
func (v Verdict) Aborted() bool { return v.abort }

// Reason returns the critical record behind an Abort verdict.
func (v Verdict) Reason() (ErrorRecord, bool) { return v.reason, v.abort }

// Err returns nil for Continue and an *AbortError for Abort.
func (v Verdict) Err() error {
	if !v.abort {
		return nil
	}
	return &AbortError{Scope: v.scope, Record: v.reason}
}

func (v Verdict) String() string {
	if !v.abort {
		return "continue"
	}
	return "abort: " + v.reason.Message
}

var osExit = os.Exit

// Exit terminates the process with ExitCode when v is an Abort verdict and
// returns otherwise. Call it from main, never from library code.
func Exit(v Verdict) {
	if v.Aborted() {
		osExit(ExitCode)
	}
}

// VerdictOf returns the Abort verdict carried by err, or Continue when err does
// not wrap an AbortError.
func VerdictOf(err error) Verdict {
	var abortErr *AbortError
	if errors.As(err, &abortErr) {
		return Abort(abortErr.Scope, abortErr.Record)
	}
	return Continue()
}
