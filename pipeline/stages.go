// Package pipeline: standard stages for common pipeline patterns.

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dcshock/runstate/state"
)

// ConvertFunc converts one item of type A to type B. Used by MapItems.
type ConvertFunc[A, B any] func(ctx context.Context, a A) (B, error)

// Identity returns a stage that hands its input to the next stage unchanged.
// Useful as a no-op or as a placeholder.
func Identity() StageFunc {
	return func(ctx context.Context, st *state.State) error {
		st.AddOutput(st.Input()...)
		return nil
	}
}

// Tap returns a stage that calls fn(ctx, input) then passes the input through.
// Use for logging, metrics, or side effects without changing the items.
func Tap(fn func(context.Context, []any)) StageFunc {
	return func(ctx context.Context, st *state.State) error {
		in := st.Input()
		fn(ctx, in)
		st.AddOutput(in...)
		return nil
	}
}

// Constant returns a stage that ignores its input and outputs items.
// Useful to inject fixed data (e.g. as the first stage of a test pipeline).
func Constant(items ...any) StageFunc {
	return func(ctx context.Context, st *state.State) error {
		st.AddOutput(items...)
		return nil
	}
}

// Validate returns a stage that passes through the items for which predicate is
// true. Every other item is dropped and recorded as an advisory error (errMsg,
// or "validation failed"). An item that is not a T fails the stage.
func Validate[T any](predicate func(T) bool, errMsg string) StageFunc {
	if errMsg == "" {
		errMsg = "validation failed"
	}
	return func(ctx context.Context, st *state.State) error {
		for i, item := range st.Input() {
			v, ok := item.(T)
			if !ok {
				var zero T
				return fmt.Errorf("validate: item %d: expected %T, got %T", i, zero, item)
			}
			if !predicate(v) {
				st.Advise("%s: item %d (%v)", errMsg, i, item)
				continue
			}
			st.AddOutput(item)
		}
		return nil
	}
}

// MapItems returns a stage that converts every input item with convert.
// Items must be of type T. If convert returns an error marked with AdvisoryErr
// the item is skipped and the error recorded as advisory; any other error fails
// the stage.
func MapItems[T, U any](convert ConvertFunc[T, U]) StageFunc {
	return func(ctx context.Context, st *state.State) error {
		in := st.Input()
		out := make([]any, 0, len(in))
		for i, item := range in {
			v, ok := item.(T)
			if !ok {
				var zero T
				return fmt.Errorf("mapitems: item %d: expected %T, got %T", i, zero, item)
			}
			u, err := convert(ctx, v)
			if err != nil {
				if IsAdvisory(err) {
					st.Advise("mapitems[%d]: %v", i, err)
					continue
				}
				return fmt.Errorf("mapitems[%d]: %w", i, err)
			}
			out = append(out, u)
		}
		st.AddOutput(out...)
		return nil
	}
}

// FilterItems returns a stage that keeps only the items of type T for which
// keep is true. An item that is not a T fails the stage.
func FilterItems[T any](keep func(T) bool) StageFunc {
	return func(ctx context.Context, st *state.State) error {
		in := st.Input()
		out := make([]any, 0, len(in))
		for i, item := range in {
			v, ok := item.(T)
			if !ok {
				var zero T
				return fmt.Errorf("filteritems: item %d: expected %T, got %T", i, zero, item)
			}
			if keep(v) {
				out = append(out, item)
			}
		}
		st.AddOutput(out...)
		return nil
	}
}

// WithTimeout wraps inner so it runs with a context deadline of now+timeout.
// inner runs on the caller's goroutine and must honour ctx; when it returns
// after the deadline, context.DeadlineExceeded is returned.
func WithTimeout(inner StageFunc, timeout time.Duration) StageFunc {
	return func(ctx context.Context, st *state.State) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := inner(ctx, st); err != nil {
			return err
		}
		return ctx.Err()
	}
}
