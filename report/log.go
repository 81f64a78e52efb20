package report

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dcshock/runstate/state"
)

// LogSink forwards report lines to a slog.Logger: critical lines and the abort
// notice at Error, advisory lines at Warn, the header at Info.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink that logs through logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// WriteLine implements state.Sink.
func (s *LogSink) WriteLine(line string) error {
	ctx := context.Background()
	switch {
	case strings.HasPrefix(line, state.CriticalPrefix):
		s.logger.Log(ctx, slog.LevelError, "critical error", "message", strings.TrimPrefix(line, state.CriticalPrefix))
	case line == state.AbortNotice:
		s.logger.Log(ctx, slog.LevelError, line)
	case line == state.ReportHeader:
		s.logger.Log(ctx, slog.LevelInfo, line)
	default:
		s.logger.Log(ctx, slog.LevelWarn, "advisory error", "message", strings.TrimPrefix(line, state.AdvisoryPrefix))
	}
	return nil
}

// Flush implements state.Sink. slog handlers write synchronously.
func (s *LogSink) Flush() error { return nil }

// Tee returns a sink that writes every line to each of sinks in order. All
// sinks are written and flushed even if one fails; the errors are joined.
func Tee(sinks ...state.Sink) state.Sink {
	return tee(sinks)
}

type tee []state.Sink

func (t tee) WriteLine(line string) error {
	var errs []error
	for _, s := range t {
		errs = append(errs, s.WriteLine(line))
	}
	return errors.Join(errs...)
}

func (t tee) Flush() error {
	var errs []error
	for _, s := range t {
		errs = append(errs, s.Flush())
	}
	return errors.Join(errs...)
}
