package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dcshock/runstate/config"
	"github.com/dcshock/runstate/pipeline"
	"github.com/dcshock/runstate/state"
	"github.com/spf13/cobra"
)

var builtinHelp = map[string]string{
	"identity":      "pass items through unchanged",
	"dedupe":        "drop repeated items, keeping the first; advisory error per run with duplicates",
	"sort":          "sort string items",
	"upper":         "upper-case string items",
	"nonempty":      "drop empty strings with an advisory error",
	"require-input": "critical error when the stage receives no items",
}

func builtinStages() *config.Registry {
	reg := config.NewRegistry()
	reg.Register("identity", pipeline.Identity())
	reg.Register("dedupe", dedupe)
	reg.Register("sort", sortStrings)
	reg.Register("upper", pipeline.MapItems(func(ctx context.Context, s string) (string, error) {
		return strings.ToUpper(s), nil
	}))
	reg.Register("nonempty", pipeline.Validate(func(s string) bool { return s != "" }, "empty item"))
	reg.Register("require-input", requireInput)
	return reg
}

func dedupe(ctx context.Context, st *state.State) error {
	seen := make(map[string]struct{})
	dropped := 0
	for _, item := range st.Input() {
		key := fmt.Sprintf("%T:%v", item, item)
		if _, ok := seen[key]; ok {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		st.AddOutput(item)
	}
	if dropped > 0 {
		st.Advise("%s: dropped %d duplicate item(s)", stageName(ctx, "dedupe"), dropped)
	}
	return nil
}

func sortStrings(ctx context.Context, st *state.State) error {
	in := st.Input()
	items := make([]string, 0, len(in))
	for i, item := range in {
		s, ok := item.(string)
		if !ok {
			return fmt.Errorf("%s: item %d: expected string, got %T", stageName(ctx, "sort"), i, item)
		}
		items = append(items, s)
	}
	slices.Sort(items)
	for _, s := range items {
		st.AddOutput(s)
	}
	return nil
}

func requireInput(ctx context.Context, st *state.State) error {
	in := st.Input()
	if len(in) == 0 {
		st.Fail("%s: no items to process", stageName(ctx, "require-input"))
		return nil
	}
	st.AddOutput(in...)
	return nil
}

// stageName is the configured name of the running stage, so messages match the
// pipeline file.
func stageName(ctx context.Context, fallback string) string {
	if ref, ok := pipeline.StageFromContext(ctx); ok && ref.Name != "" {
		return ref.Name
	}
	return fallback
}

func newStagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List the built-in stages",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range builtinStages().Names() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", name, builtinHelp[name])
			}
		},
	}
}
