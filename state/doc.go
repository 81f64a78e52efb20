// Package state holds the execution state shared by the stages of a linear
// pipeline: the data handed from one stage to the next and the errors each
// stage records.
//
// A State is created once per run with the seed input. The driver runs one
// stage at a time; the stage reads Input, appends to Output and calls
// RecordError. Between stages the driver calls CheckErrors(ScopeStage) and then
// Transition, which promotes the stage's errors to the pipeline-wide list and
// rotates Output into Input for the next stage. At the end of the run the
// driver calls CheckErrors(ScopeGlobal) to report every advisory error.
//
//	st := state.New([]any{"a", "b"})
//	st.SetCurrentStage(state.StageRef{Index: 0, Name: "fetch"})
//	// ... stage runs ...
//	if v := st.CheckErrors(state.ScopeStage); v.Aborted() {
//	    state.Exit(v)
//	}
//	st.Transition()
//
// CheckErrors never exits the process. A critical record yields an Abort
// verdict; the top level decides to exit (see Exit and ExitCode). No further
// stage may run once an Abort verdict has been returned.
//
// State is not safe for concurrent use. Exactly one stage is current at a time.
package state
