package observer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dcshock/runstate/observer/repository"
	"github.com/dcshock/runstate/pipeline"
	"github.com/dcshock/runstate/state"
)

// Run and stage statuses written by DBObserver.
const (
	StatusRunning  = "running"
	StatusSuccess  = "success"
	StatusAdvisory = "advisory" // stage finished with advisory errors only
	StatusAborted  = "aborted"
	StatusFailed   = "failed"
)

// DBObserver persists pipeline and stage execution to SQLite (pipeline_run,
// pipeline_run_stage, pipeline_run_error).
type DBObserver struct {
	queries *repository.Queries
	now     func() time.Time
}

// NewDBObserver returns an Observer that writes to the given Queries (e.g. from
// repository.New(db)).
func NewDBObserver(queries *repository.Queries) *DBObserver {
	return &DBObserver{queries: queries, now: time.Now}
}

// BeforePipeline implements pipeline.Observer. Inserts or updates a pipeline_run row with status 'running'.
// Reusing a run ID replaces the earlier report: its stage and error rows are deleted.
func (o *DBObserver) BeforePipeline(ctx context.Context, runID, name string, seed []any) error {
	if err := o.queries.DeletePipelineRunErrors(ctx, runID); err != nil {
		return fmt.Errorf("reset run errors: %w", err)
	}
	if err := o.queries.DeletePipelineRunStages(ctx, runID); err != nil {
		return fmt.Errorf("reset run stages: %w", err)
	}
	return o.queries.UpsertPipelineRun(ctx, repository.UpsertPipelineRunParams{
		RunID:     runID,
		Name:      name,
		Payload:   marshalItems(seed),
		StartedAt: o.now().UTC(),
	})
}

// AfterPipeline implements pipeline.Observer. Updates pipeline_run with status (success/advisory/aborted/failed), result, and error.
func (o *DBObserver) AfterPipeline(ctx context.Context, runID string, result *pipeline.Result, err error) error {
	status := StatusSuccess
	if err != nil {
		if state.IsAborted(err) {
			status = StatusAborted
		} else {
			status = StatusFailed
		}
	} else if result != nil && len(result.Errors) > 0 {
		status = StatusAdvisory
	}
	var resultJSON []byte
	if result != nil {
		resultJSON = marshalItems(result.Output)
	}
	errText := sql.NullString{}
	if err != nil {
		errText.String = err.Error()
		errText.Valid = true
	}
	return o.queries.UpdatePipelineRunComplete(ctx, repository.UpdatePipelineRunCompleteParams{
		RunID:      runID,
		Status:     status,
		Result:     resultJSON,
		Error:      errText,
		FinishedAt: o.now().UTC(),
	})
}

// BeforeStage implements pipeline.Observer. Inserts a pipeline_run_stage row with status 'running'.
func (o *DBObserver) BeforeStage(ctx context.Context, runID string, stage state.StageRef, input []any) error {
	return o.queries.InsertPipelineRunStage(ctx, repository.InsertPipelineRunStageParams{
		PipelineRunID: runID,
		StageIndex:    int64(stage.Index),
		StageName:     stage.Name,
		InputJson:     marshalItems(input),
		StartedAt:     o.now().UTC(),
	})
}

// AfterStage implements pipeline.Observer. Updates pipeline_run_stage with output, status and duration,
// and appends the stage's error records to pipeline_run_error in order.
func (o *DBObserver) AfterStage(ctx context.Context, runID string, stage state.StageRef, output []any, errs []state.ErrorRecord, duration time.Duration) error {
	status := StatusSuccess
	for _, rec := range errs {
		if rec.Critical {
			status = StatusAborted
			break
		}
		status = StatusAdvisory
	}
	for _, rec := range errs {
		if err := o.queries.InsertPipelineRunError(ctx, repository.InsertPipelineRunErrorParams{
			PipelineRunID: runID,
			StageIndex:    int64(stage.Index),
			StageName:     stage.Name,
			Message:       rec.Message,
			Critical:      rec.Critical,
		}); err != nil {
			return fmt.Errorf("insert error record: %w", err)
		}
	}
	durationMs := sql.NullInt64{Int64: duration.Milliseconds(), Valid: true}
	return o.queries.UpdatePipelineRunStage(ctx, repository.UpdatePipelineRunStageParams{
		PipelineRunID: runID,
		StageIndex:    int64(stage.Index),
		OutputJson:    marshalItems(output),
		Status:        status,
		ErrorCount:    int64(len(errs)),
		DurationMs:    durationMs,
	})
}

// marshalItems encodes items as a JSON array. An item that cannot be encoded
// (a channel, NaN) is stored as a "<type>" placeholder so that the payload of a
// run never fails the run.
func marshalItems(items []any) []byte {
	if items == nil {
		return nil
	}
	if b, err := json.Marshal(items); err == nil {
		return b
	}
	safe := make([]any, len(items))
	for i, item := range items {
		if _, err := json.Marshal(item); err != nil {
			safe[i] = fmt.Sprintf("<%T>", item)
			continue
		}
		safe[i] = item
	}
	b, err := json.Marshal(safe)
	if err != nil {
		return nil
	}
	return b
}

// Ensure DBObserver implements pipeline.Observer.
var _ pipeline.Observer = (*DBObserver)(nil)
