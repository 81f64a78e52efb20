// Package observer provides pipeline.Observer implementations that report the
// progress of a run.
//
//   - DBObserver: persists each pipeline run, its stages and every error record
//     to SQLite (pipeline_run, pipeline_run_stage, pipeline_run_error) for
//     monitoring and post-mortem reporting. Open the database with
//     repository.Open.
//   - LogObserver: writes structured log lines for run and stage start/end.
//
// The stored rows are a report of what happened; they are not read back to
// resume a run.

package observer
