package main

import (
	"fmt"
	"os"

	"github.com/dcshock/runstate/internal/cli"
	"github.com/dcshock/runstate/state"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	cli.SetVersionInfo(version, commit)
	if err := cli.Execute(); err != nil {
		// An aborted run has already flushed its report; exit without repeating it.
		state.Exit(state.VerdictOf(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
