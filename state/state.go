package state

import (
	"fmt"
	"slices"
)

// Report lines written by CheckErrors.
const (
	ReportHeader = "Encountered one or more errors:"
	AbortNotice  = "Critical error found. Aborting."
)

// State is the execution state threaded through every stage of one run.
type State struct {
	stageErrors    []ErrorRecord
	pipelineErrors []ErrorRecord

	current    StageRef
	hasCurrent bool

	input  []any
	output []any

	sink      Sink
	reportErr error
}

// Option configures a State.
type Option func(*State)

// WithSink sets the destination of CheckErrors report lines. The default is a
// buffered sink on os.Stdout.
func WithSink(s Sink) Option {
	return func(st *State) { st.sink = s }
}

// New returns a State with no errors, no current stage and seed as the input of
// the first stage. seed is copied.
func New(seed []any, opts ...Option) *State {
	st := &State{input: slices.Clone(seed)}
	for _, opt := range opts {
		opt(st)
	}
	if st.sink == nil {
		st.sink = defaultSink()
	}
	return st
}

// RecordError appends a record to the current stage's errors. It never aborts;
// a critical record takes effect when the stage scope is checked.
func (s *State) RecordError(message string, critical bool) {
	rec := ErrorRecord{Message: message, Critical: critical}
	if s.hasCurrent {
		rec.Stage = s.current.Name
	}
	s.stageErrors = append(s.stageErrors, rec)
}

// Advise records an advisory error.
func (s *State) Advise(format string, args ...any) {
	s.RecordError(fmt.Sprintf(format, args...), false)
}

// Fail records a critical error.
func (s *State) Fail(format string, args ...any) {
	s.RecordError(fmt.Sprintf(format, args...), true)
}

// SetCurrentStage replaces the current stage. It only affects attribution of
// records made after the call.
func (s *State) SetCurrentStage(ref StageRef) {
	s.current = ref
	s.hasCurrent = true
}

// CurrentStage returns the current stage, or false before the first stage.
func (s *State) CurrentStage() (StageRef, bool) {
	return s.current, s.hasCurrent
}

// Transition is called by the driver between stages. It appends the stage's
// errors to the pipeline errors in order, clears the stage errors, and makes
// the stage's output the next stage's input.
func (s *State) Transition() {
	s.pipelineErrors = append(s.pipelineErrors, s.stageErrors...)
	s.stageErrors = nil
	s.input = s.output
	s.output = nil
}

// CheckErrors reports the errors of the given scope to the sink, one line per
// record in insertion order. An empty list is a silent Continue. At the first
// critical record the abort notice is written, the sink is flushed and an Abort
// verdict is returned; later records are not reported.
func (s *State) CheckErrors(scope Scope) Verdict {
	errs := s.errorsFor(scope)
	if len(errs) == 0 {
		return Continue()
	}
	s.writeLine(ReportHeader)
	for _, rec := range errs {
		s.writeLine(rec.String())
		if rec.Critical {
			s.writeLine(AbortNotice)
			s.flush()
			return Abort(scope, rec)
		}
	}
	s.flush()
	return Continue()
}

func (s *State) errorsFor(scope Scope) []ErrorRecord {
	if scope == ScopeGlobal {
		return s.pipelineErrors
	}
	return s.stageErrors
}

func (s *State) writeLine(line string) {
	if err := s.sink.WriteLine(line); err != nil && s.reportErr == nil {
		s.reportErr = err
	}
}

func (s *State) flush() {
	if err := s.sink.Flush(); err != nil && s.reportErr == nil {
		s.reportErr = err
	}
}

// ReportErr returns the first error the sink returned, if any.
func (s *State) ReportErr() error { return s.reportErr }

// Input returns a copy of the items handed to the current stage.
func (s *State) Input() []any { return slices.Clone(s.input) }

// Output returns a copy of the items the current stage has produced so far.
func (s *State) Output() []any { return slices.Clone(s.output) }

// AddOutput appends items to the current stage's output.
func (s *State) AddOutput(items ...any) {
	s.output = append(s.output, items...)
}

// StageErrors returns a copy of the errors recorded since the last transition.
func (s *State) StageErrors() []ErrorRecord { return slices.Clone(s.stageErrors) }

// PipelineErrors returns a copy of the errors promoted so far.
func (s *State) PipelineErrors() []ErrorRecord { return slices.Clone(s.pipelineErrors) }
