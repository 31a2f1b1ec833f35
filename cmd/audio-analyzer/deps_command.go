package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"audio-analyzer/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external binaries the analyzer depends on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.Check(cmd.Context(), cfg)

			headers := []string{"Dependency", "Required", "Available", "Path", "Detail"}
			rows := make([][]string, 0, len(statuses))
			missingRequired := false
			for _, status := range statuses {
				if !status.Optional && !status.Available {
					missingRequired = true
				}
				rows = append(rows, []string{
					status.Name,
					yesNo(!status.Optional),
					yesNo(status.Available),
					status.Path,
					status.Detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows))

			if missingRequired {
				return fmt.Errorf("required dependencies are missing")
			}
			return nil
		},
	}
}
