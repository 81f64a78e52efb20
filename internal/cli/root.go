// Package cli implements the runstate command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
)

// SetVersionInfo sets the version and commit for display.
func SetVersionInfo(version, commit string) {
	appVersion = version
	appCommit = commit
}

type rootOptions struct {
	envFile string
	verbose bool
}

// NewRootCmd returns the runstate root command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "runstate",
		Short:         "Run linear stage pipelines with scoped error reporting",
		Long:          "runstate runs a pipeline of registered stages over a shared state, reporting advisory errors at the end of the run and aborting on the first critical error.",
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(opts.envFile); err != nil && cmd.Flags().Changed("env-file") {
				return fmt.Errorf("load env file: %w", err)
			}
			return nil
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("runstate %s (commit: %s)\n", appVersion, appCommit))
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with RUNSTATE_* defaults")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newValidateCmd())
	root.AddCommand(newStagesCmd())
	return root
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// envDefault returns the flag value unless the flag was left unset and the
// environment variable is non-empty.
func envDefault(cmd *cobra.Command, flag, env, value string) string {
	if cmd.Flags().Changed(flag) {
		return value
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return value
}
