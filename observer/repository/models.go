package repository

import (
	"database/sql"
	"time"
)

type PipelineRun struct {
	RunID      string
	Name       string
	Status     string
	Payload    []byte
	Result     []byte
	Error      sql.NullString
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

type PipelineRunStage struct {
	PipelineRunID string
	StageIndex    int64
	StageName     string
	Status        string
	InputJson     []byte
	OutputJson    []byte
	ErrorCount    int64
	DurationMs    sql.NullInt64
	StartedAt     time.Time
}

type PipelineRunError struct {
	PipelineRunID string
	Seq           int64
	StageIndex    int64
	StageName     string
	Message       string
	Critical      bool
}
