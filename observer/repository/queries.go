package repository

import (
	"context"
	"database/sql"
	"time"
)

const upsertPipelineRun = `
INSERT INTO pipeline_run (run_id, name, status, payload, started_at)
VALUES (?, ?, 'running', ?, ?)
ON CONFLICT (run_id) DO UPDATE SET
    name = excluded.name,
    status = 'running',
    payload = excluded.payload,
    result = NULL,
    error = NULL,
    started_at = excluded.started_at,
    finished_at = NULL`

type UpsertPipelineRunParams struct {
	RunID     string
	Name      string
	Payload   []byte
	StartedAt time.Time
}

func (q *Queries) UpsertPipelineRun(ctx context.Context, arg UpsertPipelineRunParams) error {
	_, err := q.db.ExecContext(ctx, upsertPipelineRun, arg.RunID, arg.Name, arg.Payload, arg.StartedAt)
	return err
}

const deletePipelineRunStages = `
DELETE FROM pipeline_run_stage WHERE pipeline_run_id = ?`

func (q *Queries) DeletePipelineRunStages(ctx context.Context, runID string) error {
	_, err := q.db.ExecContext(ctx, deletePipelineRunStages, runID)
	return err
}

const deletePipelineRunErrors = `
DELETE FROM pipeline_run_error WHERE pipeline_run_id = ?`

func (q *Queries) DeletePipelineRunErrors(ctx context.Context, runID string) error {
	_, err := q.db.ExecContext(ctx, deletePipelineRunErrors, runID)
	return err
}

const updatePipelineRunComplete = `
UPDATE pipeline_run
SET status = ?, result = ?, error = ?, finished_at = ?
WHERE run_id = ?`

type UpdatePipelineRunCompleteParams struct {
	RunID      string
	Status     string
	Result     []byte
	Error      sql.NullString
	FinishedAt time.Time
}

func (q *Queries) UpdatePipelineRunComplete(ctx context.Context, arg UpdatePipelineRunCompleteParams) error {
	_, err := q.db.ExecContext(ctx, updatePipelineRunComplete, arg.Status, arg.Result, arg.Error, arg.FinishedAt, arg.RunID)
	return err
}

const getPipelineRun = `
SELECT run_id, name, status, payload, result, error, started_at, finished_at
FROM pipeline_run
WHERE run_id = ?`

func (q *Queries) GetPipelineRun(ctx context.Context, runID string) (PipelineRun, error) {
	row := q.db.QueryRowContext(ctx, getPipelineRun, runID)
	var i PipelineRun
	err := row.Scan(&i.RunID, &i.Name, &i.Status, &i.Payload, &i.Result, &i.Error, &i.StartedAt, &i.FinishedAt)
	return i, err
}

const listPipelineRuns = `
SELECT run_id, name, status, payload, result, error, started_at, finished_at
FROM pipeline_run
ORDER BY started_at DESC
LIMIT ?`

func (q *Queries) ListPipelineRuns(ctx context.Context, limit int64) ([]PipelineRun, error) {
	rows, err := q.db.QueryContext(ctx, listPipelineRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PipelineRun
	for rows.Next() {
		var i PipelineRun
		if err := rows.Scan(&i.RunID, &i.Name, &i.Status, &i.Payload, &i.Result, &i.Error, &i.StartedAt, &i.FinishedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const insertPipelineRunStage = `
INSERT INTO pipeline_run_stage (pipeline_run_id, stage_index, stage_name, status, input_json, started_at)
VALUES (?, ?, ?, 'running', ?, ?)
ON CONFLICT (pipeline_run_id, stage_index) DO UPDATE SET
    stage_name = excluded.stage_name,
    status = 'running',
    input_json = excluded.input_json,
    output_json = NULL,
    error_count = 0,
    duration_ms = NULL,
    started_at = excluded.started_at`

type InsertPipelineRunStageParams struct {
	PipelineRunID string
	StageIndex    int64
	StageName     string
	InputJson     []byte
	StartedAt     time.Time
}

func (q *Queries) InsertPipelineRunStage(ctx context.Context, arg InsertPipelineRunStageParams) error {
	_, err := q.db.ExecContext(ctx, insertPipelineRunStage, arg.PipelineRunID, arg.StageIndex, arg.StageName, arg.InputJson, arg.StartedAt)
	return err
}

const updatePipelineRunStage = `
UPDATE pipeline_run_stage
SET output_json = ?, status = ?, error_count = ?, duration_ms = ?
WHERE pipeline_run_id = ? AND stage_index = ?`

type UpdatePipelineRunStageParams struct {
	PipelineRunID string
	StageIndex    int64
	OutputJson    []byte
	Status        string
	ErrorCount    int64
	DurationMs    sql.NullInt64
}

func (q *Queries) UpdatePipelineRunStage(ctx context.Context, arg UpdatePipelineRunStageParams) error {
	_, err := q.db.ExecContext(ctx, updatePipelineRunStage, arg.OutputJson, arg.Status, arg.ErrorCount, arg.DurationMs, arg.PipelineRunID, arg.StageIndex)
	return err
}

const listPipelineRunStages = `
SELECT pipeline_run_id, stage_index, stage_name, status, input_json, output_json, error_count, duration_ms, started_at
FROM pipeline_run_stage
WHERE pipeline_run_id = ?
ORDER BY stage_index`

func (q *Queries) ListPipelineRunStages(ctx context.Context, runID string) ([]PipelineRunStage, error) {
	rows, err := q.db.QueryContext(ctx, listPipelineRunStages, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PipelineRunStage
	for rows.Next() {
		var i PipelineRunStage
		if err := rows.Scan(&i.PipelineRunID, &i.StageIndex, &i.StageName, &i.Status, &i.InputJson, &i.OutputJson, &i.ErrorCount, &i.DurationMs, &i.StartedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const insertPipelineRunError = `
INSERT INTO pipeline_run_error (pipeline_run_id, seq, stage_index, stage_name, message, critical)
VALUES (?, (SELECT COALESCE(MAX(seq), -1) + 1 FROM pipeline_run_error WHERE pipeline_run_id = ?), ?, ?, ?, ?)`

type InsertPipelineRunErrorParams struct {
	PipelineRunID string
	StageIndex    int64
	StageName     string
	Message       string
	Critical      bool
}

func (q *Queries) InsertPipelineRunError(ctx context.Context, arg InsertPipelineRunErrorParams) error {
	_, err := q.db.ExecContext(ctx, insertPipelineRunError, arg.PipelineRunID, arg.PipelineRunID, arg.StageIndex, arg.StageName, arg.Message, arg.Critical)
	return err
}

const listPipelineRunErrors = `
SELECT pipeline_run_id, seq, stage_index, stage_name, message, critical
FROM pipeline_run_error
WHERE pipeline_run_id = ?
ORDER BY seq`

func (q *Queries) ListPipelineRunErrors(ctx context.Context, runID string) ([]PipelineRunError, error) {
	rows, err := q.db.QueryContext(ctx, listPipelineRunErrors, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PipelineRunError
	for rows.Next() {
		var i PipelineRunError
		if err := rows.Scan(&i.PipelineRunID, &i.Seq, &i.StageIndex, &i.StageName, &i.Message, &i.Critical); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
