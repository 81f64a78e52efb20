package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dcshock/runstate/state"
	"github.com/google/uuid"
)

// StageFunc is the body of a stage. It reads st.Input, appends to st.Output
// and records errors on st. A returned error is recorded for the stage by the
// driver.
type StageFunc func(ctx context.Context, st *state.State) error

// Stage is a single named step in a pipeline.
type Stage struct {
	Name string
	Run  StageFunc

	// Advisory records errors returned by Run as advisory instead of critical.
	Advisory bool
}

func (s Stage) critical(err error) bool {
	return !s.Advisory && !IsAdvisory(err)
}

// Advisory marks an error returned by a stage as non-fatal. The driver records
// it as an advisory error and the run continues.
type Advisory struct{ Err error }

func (e *Advisory) Error() string { return e.Err.Error() }
func (e *Advisory) Unwrap() error { return e.Err }
func AdvisoryErr(err error) error { return &Advisory{Err: err} }
func IsAdvisory(err error) bool   { return errors.As(err, new(*Advisory)) }

// Observer provides pre/post hooks for pipeline and stage execution so you can
// record run progress (e.g. to a DB). BeforePipeline is called before any
// stage runs. BeforeStage/AfterStage are called around each stage; AfterStage
// sees the stage's errors before they are checked. AfterPipeline is called when
// the run finishes, aborts or fails.
type Observer interface {
	BeforePipeline(ctx context.Context, runID, name string, seed []any) error
	AfterPipeline(ctx context.Context, runID string, result *Result, err error) error
	BeforeStage(ctx context.Context, runID string, stage state.StageRef, input []any) error
	AfterStage(ctx context.Context, runID string, stage state.StageRef, output []any, errs []state.ErrorRecord, duration time.Duration) error
}

// RunOptions is optional. RunID defaults to a new UUID. StageOffset is added to
// every stage index (StageRef.Index) reported to the state and the observer.
type RunOptions struct {
	Observer    Observer
	RunID       string
	StageOffset int
	Logger      *slog.Logger
}

func (o *RunOptions) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Result describes a finished run. Output is the input the next stage would
// have received; it is empty when the run aborted. Errors holds every error
// recorded during the run, in order.
type Result struct {
	RunID   string
	Output  []any
	Errors  []state.ErrorRecord
	Verdict state.Verdict
}

type runMetaKey struct{}

type runMeta struct {
	RunID, PipelineName string
	Stage               state.StageRef
}

func runMetaFromContext(ctx context.Context) (runMeta, bool) {
	m, ok := ctx.Value(runMetaKey{}).(runMeta)
	return m, ok
}

// RunIDFromContext returns the RunID of the run executing the stage.
func RunIDFromContext(ctx context.Context) (string, bool) {
	m, ok := runMetaFromContext(ctx)
	return m.RunID, ok
}

// StageFromContext returns the stage being executed.
func StageFromContext(ctx context.Context) (state.StageRef, bool) {
	m, ok := runMetaFromContext(ctx)
	return m.Stage, ok
}

// Pipeline runs a linear chain of stages over one state.State.
type Pipeline struct {
	Name   string
	Stages []Stage
}

// Run executes every stage in order over st. It returns the Result together
// with a *state.AbortError when a critical error stopped the run, or with a
// plain error when an observer hook failed. The Result is never nil.
func (p *Pipeline) Run(ctx context.Context, st *state.State, opts *RunOptions) (*Result, error) {
	var obs Observer
	runID := ""
	offset := 0
	if opts != nil {
		obs = opts.Observer
		runID = opts.RunID
		offset = opts.StageOffset
	}
	if runID == "" {
		runID = uuid.New().String()
	}
	log := opts.logger().With("run_id", runID, "pipeline", p.Name)

	res := &Result{RunID: runID}
	if obs != nil {
		if err := obs.BeforePipeline(ctx, runID, p.Name, st.Input()); err != nil {
			return res, fmt.Errorf("before pipeline: %w", err)
		}
	}
	err := p.runStages(ctx, st, res, obs, offset, log)
	if obs != nil {
		if postErr := obs.AfterPipeline(ctx, runID, res, err); postErr != nil {
			// Don't mask pipeline error
			if err == nil {
				err = fmt.Errorf("after pipeline: %w", postErr)
			}
		}
	}
	return res, err
}

func (p *Pipeline) runStages(ctx context.Context, st *state.State, res *Result, obs Observer, offset int, log *slog.Logger) error {
	for i, stage := range p.Stages {
		ref := state.StageRef{Index: i + offset, Name: stage.Name}
		st.SetCurrentStage(ref)
		if obs != nil {
			if err := obs.BeforeStage(ctx, res.RunID, ref, st.Input()); err != nil {
				return fmt.Errorf("before stage %d: %w", ref.Index, err)
			}
		}
		log.Debug("stage started", "stage", ref.Name, "index", ref.Index)
		start := time.Now()
		stageCtx := context.WithValue(ctx, runMetaKey{}, runMeta{RunID: res.RunID, PipelineName: p.Name, Stage: ref})
		if err := runStage(stageCtx, stage, st); err != nil {
			// Cancellation of the run is critical even on an advisory stage.
			st.RecordError(err.Error(), stage.critical(err) || ctx.Err() != nil)
		}
		duration := time.Since(start)
		errs := st.StageErrors()
		log.Debug("stage finished", "stage", ref.Name, "index", ref.Index, "errors", len(errs), "duration", duration)
		var obsErr error
		if obs != nil {
			if err := obs.AfterStage(ctx, res.RunID, ref, st.Output(), errs, duration); err != nil {
				obsErr = fmt.Errorf("after stage %d: %w", ref.Index, err)
			}
		}
		v := st.CheckErrors(state.ScopeStage)
		if v.Aborted() || obsErr != nil {
			res.Verdict = v
			res.Errors = append(st.PipelineErrors(), errs...)
			if v.Aborted() {
				log.Error("run aborted", "stage", ref.Name, "index", ref.Index, "reason", v.String())
			}
			// Keep both: the abort must stay visible when the observer also failed.
			return errors.Join(obsErr, v.Err())
		}
		st.Transition()
	}
	v := st.CheckErrors(state.ScopeGlobal)
	res.Verdict = v
	res.Output = st.Input()
	res.Errors = st.PipelineErrors()
	if v.Aborted() {
		log.Error("run aborted at final check", "reason", v.String())
		return v.Err()
	}
	log.Info("run completed", "stages", len(p.Stages), "errors", len(res.Errors))
	return nil
}

// runStage runs one stage body. A canceled context is reported as the stage's
// error without running the body.
func runStage(ctx context.Context, stage Stage, st *state.State) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", stage.Name, err)
	}
	if stage.Run == nil {
		return fmt.Errorf("%s: no run function", stage.Name)
	}
	return stage.Run(ctx, st)
}
