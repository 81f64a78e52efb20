package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/dcshock/runstate/state"
)

// MultiObserver returns an Observer that calls each non-nil observer in order.
// Every observer sees every hook; their errors are joined.
func MultiObserver(observers ...Observer) Observer {
	list := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return multiObserver(list)
}

type multiObserver []Observer

func (m multiObserver) BeforePipeline(ctx context.Context, runID, name string, seed []any) error {
	var errs []error
	for _, o := range m {
		errs = append(errs, o.BeforePipeline(ctx, runID, name, seed))
	}
	return errors.Join(errs...)
}

func (m multiObserver) AfterPipeline(ctx context.Context, runID string, result *Result, err error) error {
	var errs []error
	for _, o := range m {
		errs = append(errs, o.AfterPipeline(ctx, runID, result, err))
	}
	return errors.Join(errs...)
}

func (m multiObserver) BeforeStage(ctx context.Context, runID string, stage state.StageRef, input []any) error {
	var errs []error
	for _, o := range m {
		errs = append(errs, o.BeforeStage(ctx, runID, stage, input))
	}
	return errors.Join(errs...)
}

func (m multiObserver) AfterStage(ctx context.Context, runID string, stage state.StageRef, output []any, stageErrs []state.ErrorRecord, duration time.Duration) error {
	var errs []error
	for _, o := range m {
		errs = append(errs, o.AfterStage(ctx, runID, stage, output, stageErrs, duration))
	}
	return errors.Join(errs...)
}
