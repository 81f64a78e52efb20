package cli

import (
	"fmt"
	"os"

	"github.com/dcshock/runstate/config"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a pipeline config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "pipeline.yaml"
			if v := os.Getenv("RUNSTATE_CONFIG"); v != "" {
				path = v
			}
			if len(args) == 1 {
				path = args[0]
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}
			violations, err := config.Validate(data)
			if err != nil {
				return err
			}
			for _, v := range violations {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, v)
			}
			if len(violations) > 0 {
				return fmt.Errorf("%s: %d schema violation(s)", path, len(violations))
			}
			multi, err := config.Load(data)
			if err != nil {
				return err
			}
			reg := builtinStages()
			for _, name := range multi.Names() {
				cfg := multi.Pipelines[name]
				if _, err := config.BuildPipeline(reg, &cfg, nil); err != nil {
					return fmt.Errorf("%s: pipeline %q: %w", path, name, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d pipeline(s))\n", path, len(multi.Pipelines))
			return nil
		},
	}
}
