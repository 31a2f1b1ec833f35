package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var verboseFlag bool
	var quietFlag bool

	ctx := newCommandContext(&configFlag, &verboseFlag, &quietFlag)

	rootCmd := &cobra.Command{
		Use:           "audio-analyzer",
		Short:         "Loudness and spectral analysis for audio file collections",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress progress output and summary tables")

	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newDepsCommand(ctx))

	return rootCmd
}
