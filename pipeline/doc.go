// Package pipeline drives a linear chain of stages over a shared state.State.
// A Pipeline runs its stages in order; each stage reads the items handed over
// by the previous stage (State.Input), appends its own items (State.AddOutput)
// and records problems with State.RecordError.
//
// Between stages the driver checks the stage's errors and then transitions the
// state:
//
//	SetCurrentStage -> BeforeStage -> stage -> AfterStage -> CheckErrors(stage) -> Transition
//
// A critical record stops the run at that check: no later stage executes, Run
// returns a *state.AbortError (errors.Is(err, state.ErrAborted)) and the
// result's Verdict is the Abort verdict. Run never exits the process; callers
// that want the classic behaviour pass the verdict to state.Exit from main.
// When every stage has transitioned, CheckErrors(global) reports all advisory
// errors of the run.
//
// An error returned by a stage function is recorded for that stage as a
// critical record. Wrap it with AdvisoryErr, or mark the Stage Advisory, to
// record it as advisory instead. Cancellation of the run context is always
// critical, even on an Advisory stage:
//
//	p := &pipeline.Pipeline{
//	    Name: "ingest",
//	    Stages: []pipeline.Stage{
//	        {Name: "fetch", Run: fetch},
//	        {Name: "enrich", Run: enrich, Advisory: true},
//	        {Name: "upper", Run: pipeline.MapItems(func(ctx context.Context, s string) (string, error) {
//	            return strings.ToUpper(s), nil
//	        })},
//	    },
//	}
//	res, err := p.Run(ctx, state.New(seed), &pipeline.RunOptions{Observer: obs})
//
// # Observers
//
// Optional pre/post hooks (Observer) let you record run progress, e.g. in a
// database for monitoring (see package observer): BeforePipeline, BeforeStage
// and AfterStage around each stage (input, output, the stage's errors and its
// duration), AfterPipeline with the result. Combine several with MultiObserver.
// Every run gets a RunID (a new UUID unless RunOptions.RunID is set); stages can
// read it with RunIDFromContext and their own StageRef with StageFromContext.
// A failing AfterStage hook stops the run, but the stage's errors are still
// checked and reported first; an abort at that check is joined with the hook
// error.
package pipeline
