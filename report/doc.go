// Package report provides state.Sink implementations for the error report
// written by state.State.CheckErrors: a console sink that can highlight critical
// lines, a sink that forwards lines to a slog.Logger, and Tee to combine them.
package report
