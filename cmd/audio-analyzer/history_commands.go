package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"audio-analyzer/internal/config"
	"audio-analyzer/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past analysis runs",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent analysis runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistoryStore(ctx, func(cfg *config.Config, store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No recorded runs")
					return nil
				}

				headers := []string{"Run", "Started", "Root", "Found", "Analyzed", "Failed", "Duration"}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortRunID(run.ID),
						run.StartedAt.Local().Format("2006-01-02 15:04:05"),
						run.RootPath,
						strconv.Itoa(run.FilesFound),
						strconv.Itoa(run.FilesAnalyzed),
						strconv.Itoa(run.FilesFailed),
						formatDuration(run.Duration()),
					})
				}
				fmt.Fprintln(out, renderTable(headers, rows, 3, 4, 5, 6))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its per-file metrics",
		Long:  "Show accepts a full run ID or any unique prefix of one.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistoryStore(ctx, func(cfg *config.Config, store *history.Store) error {
				run, records, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:      %s\n", run.ID)
				fmt.Fprintf(out, "Root:     %s\n", run.RootPath)
				fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(time.RFC1123))
				fmt.Fprintf(out, "Duration: %s\n", formatDuration(run.Duration()))
				fmt.Fprintf(out, "Files:    %d found, %d analyzed, %d failed\n", run.FilesFound, run.FilesAnalyzed, run.FilesFailed)
				if run.DatasetPath != "" {
					fmt.Fprintf(out, "Dataset:  %s\n", run.DatasetPath)
				}
				if run.ReportPath != "" {
					fmt.Fprintf(out, "Report:   %s\n", run.ReportPath)
				}
				if len(records) == 0 {
					return nil
				}

				headers := []string{"File", "LRA", "Peak", "RMS", "16k", "18k", "20k", "Complete"}
				rows := make([][]string, 0, len(records))
				for i := range records {
					record := &records[i]
					rows = append(rows, []string{
						filepath.Base(record.Path),
						formatMetric(record.LRA, "LU"),
						formatMetric(record.PeakDb, "dB"),
						formatMetric(record.RMSDb, "dB"),
						formatMetric(record.RMS16kDb, "dB"),
						formatMetric(record.RMS18kDb, "dB"),
						formatMetric(record.RMS20kDb, "dB"),
						yesNo(record.IsComplete()),
					})
				}
				fmt.Fprintln(out, renderTable(headers, rows, 1, 2, 3, 4, 5, 6))
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return errors.New("--keep must be zero or positive")
			}
			return withHistoryStore(ctx, func(cfg *config.Config, store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d runs, kept %d\n", removed, keep)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&keep, "keep", "k", 10, "Number of most recent runs to keep")
	return cmd
}

func withHistoryStore(ctx *commandContext, fn func(*config.Config, *history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// shortRunID trims UUIDs to their first block for table display; any
// unique prefix is accepted by `history show`.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
