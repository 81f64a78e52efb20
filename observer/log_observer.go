package observer

import (
	"context"
	"log/slog"
	"time"

	"github.com/dcshock/runstate/pipeline"
	"github.com/dcshock/runstate/state"
)

// LogObserver logs run and stage boundaries. Hooks never fail.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver returns an Observer that logs through logger.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) BeforePipeline(ctx context.Context, runID, name string, seed []any) error {
	o.logger.InfoContext(ctx, "pipeline started", "run_id", runID, "pipeline", name, "seed_items", len(seed))
	return nil
}

func (o *LogObserver) AfterPipeline(ctx context.Context, runID string, result *pipeline.Result, err error) error {
	errCount := 0
	if result != nil {
		errCount = len(result.Errors)
	}
	switch {
	case err == nil:
		o.logger.InfoContext(ctx, "pipeline completed", "run_id", runID, "errors", errCount)
	case state.IsAborted(err):
		o.logger.ErrorContext(ctx, "pipeline aborted", "run_id", runID, "errors", errCount, "err", err)
	default:
		o.logger.ErrorContext(ctx, "pipeline failed", "run_id", runID, "err", err)
	}
	return nil
}

func (o *LogObserver) BeforeStage(ctx context.Context, runID string, stage state.StageRef, input []any) error {
	o.logger.DebugContext(ctx, "stage started", "run_id", runID, "stage", stage.Name, "index", stage.Index, "input_items", len(input))
	return nil
}

func (o *LogObserver) AfterStage(ctx context.Context, runID string, stage state.StageRef, output []any, errs []state.ErrorRecord, duration time.Duration) error {
	level := slog.LevelInfo
	for _, rec := range errs {
		if rec.Critical {
			level = slog.LevelError
			break
		}
		level = slog.LevelWarn
	}
	o.logger.Log(ctx, level, "stage finished",
		"run_id", runID,
		"stage", stage.Name,
		"index", stage.Index,
		"output_items", len(output),
		"errors", len(errs),
		"duration", duration,
	)
	return nil
}

var _ pipeline.Observer = (*LogObserver)(nil)
