package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"multicam/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check output, state and driver readiness without opening cameras",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cfg, output)
			results = append(results, preflight.CheckDriver(cfg.Driver.Kind))

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				if !r.Passed {
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			renderTable(cmd.OutOrStdout(), []column{
				{title: "Check"},
				{title: "Status", status: true},
				{title: "Detail"},
			}, rows)
			for _, r := range results {
				if !r.Passed {
					return fmt.Errorf("preflight failed: %s", r.Name)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "Output directory to check (defaults to paths.output_dir)")
	return cmd
}
