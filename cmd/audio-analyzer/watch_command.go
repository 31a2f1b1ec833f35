package main

import (
	"time"

	"github.com/spf13/cobra"

	"audio-analyzer/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var settleSeconds int
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory and analyze audio files as they arrive",
		Long: `Watch keeps the dataset for a directory current: whenever an audio file
is created or modified and its size has settled, it is analyzed and merged
into the dataset. Watching is not recursive; subdirectories created after
the session starts are not picked up. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return watch.Run(cmd.Context(), cfg, logger, args[0], watch.Options{
				SettleDelay:    time.Duration(settleSeconds) * time.Second,
				DisableHistory: noHistory,
			})
		},
	}

	cmd.Flags().IntVar(&settleSeconds, "settle", 0, "Seconds a file must keep its size before analysis (0 = default)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording analyses in the history database")

	return cmd
}
