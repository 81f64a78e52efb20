package cli

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/dcshock/runstate/config"
	"github.com/dcshock/runstate/observer"
	"github.com/dcshock/runstate/observer/repository"
	"github.com/dcshock/runstate/pipeline"
	"github.com/dcshock/runstate/report"
	"github.com/dcshock/runstate/state"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type runOptions struct {
	*rootOptions
	file     string
	pipeline string
	seeds    []string
	dbPath   string
	runID    string
	noColor  bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a pipeline from a config file",
		Long: "Run builds the named pipeline from the built-in stages and runs it over the seed items. " +
			"Errors are reported after each stage and again at the end of the run; a critical error aborts the run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.file = envDefault(cmd, "file", "RUNSTATE_CONFIG", opts.file)
			opts.dbPath = envDefault(cmd, "db", "RUNSTATE_DB", opts.dbPath)
			return runPipeline(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "pipeline.yaml", "pipeline config file (env RUNSTATE_CONFIG)")
	cmd.Flags().StringVarP(&opts.pipeline, "pipeline", "p", "", "pipeline to run (required when the file defines several)")
	cmd.Flags().StringArrayVar(&opts.seeds, "seed", nil, "seed item for the first stage (repeatable)")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite file to record the run in (env RUNSTATE_DB)")
	cmd.Flags().StringVar(&opts.runID, "run-id", "", "run ID (default: a new UUID)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored error report")
	return cmd
}

func runPipeline(cmd *cobra.Command, opts *runOptions) error {
	ctx := cmd.Context()
	logger := newLogger(cmd.ErrOrStderr(), opts.verbose)

	multi, err := config.LoadFile(opts.file)
	if err != nil {
		return err
	}
	cfg, err := selectPipeline(multi, opts.pipeline)
	if err != nil {
		return err
	}

	observers := config.NewObserverRegistry()
	observers.Register("log", observer.NewLogObserver(logger))
	var dbObserver pipeline.Observer
	if opts.dbPath != "" {
		db, err := repository.Open(ctx, opts.dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		dbObserver = observer.NewDBObserver(repository.New(db))
		observers.Register("db", dbObserver)
	}
	buildOpts := &config.BuildOptions{ObserverRegistry: observers}

	p, err := config.BuildPipeline(builtinStages(), cfg, buildOpts)
	if err != nil {
		return fmt.Errorf("build pipeline %q: %w", cfg.Name, err)
	}
	obs, err := config.BuildObserver(cfg, buildOpts)
	if err != nil {
		return fmt.Errorf("build observers for %q: %w", cfg.Name, err)
	}
	if dbObserver != nil && !slices.Contains(cfg.Observers, "db") {
		obs = pipeline.MultiObserver(obs, dbObserver)
	}

	out := cmd.OutOrStdout()
	var sink state.Sink = report.NewConsole(out, !opts.noColor && isTerminal(out))
	if opts.verbose {
		sink = report.Tee(sink, report.NewLogSink(logger))
	}
	st := state.New(seedItems(opts.seeds), state.WithSink(sink))
	res, err := p.Run(ctx, st, &pipeline.RunOptions{Observer: obs, RunID: opts.runID, Logger: logger})
	if err != nil {
		return err
	}
	for _, item := range res.Output {
		fmt.Fprintln(out, item)
	}
	logger.Debug("run finished", "run_id", res.RunID, "items", len(res.Output), "errors", len(res.Errors))
	return nil
}

func selectPipeline(multi *config.MultiPipelineConfig, name string) (*config.PipelineConfig, error) {
	if name == "" {
		names := multi.Names()
		if len(names) != 1 {
			return nil, fmt.Errorf("config defines %d pipelines %v; choose one with --pipeline", len(names), names)
		}
		name = names[0]
	}
	cfg, ok := multi.Pipelines[name]
	if !ok {
		return nil, fmt.Errorf("pipeline %q not defined (have %v)", name, multi.Names())
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	return &cfg, nil
}

func seedItems(seeds []string) []any {
	items := make([]any, 0, len(seeds))
	for _, s := range seeds {
		items = append(items, s)
	}
	return items
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
