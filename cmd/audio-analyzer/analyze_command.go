package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"audio-analyzer/internal/config"
	"audio-analyzer/internal/pipeline"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var workers int
	var formats string
	var jsonName string
	var csvName string
	var timeoutSeconds int
	var noReport bool
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "analyze <path>",
		Short: "Analyze a directory tree or a single audio file",
		Long: `Analyze scans the given directory for audio files (or accepts a single
file), measures loudness range, peak, overall RMS, and high-pass band RMS
levels for each one in parallel, and writes the results as a JSON dataset.
When a report generator is configured the dataset is handed to it afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyAnalyzeFlags(cmd, cfg, outputDir, workers, formats, jsonName, csvName, timeoutSeconds); err != nil {
				return err
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			result, err := pipeline.Run(cmd.Context(), cfg, logger, args[0], pipeline.Options{
				DisableHistory: noHistory,
				DisableReport:  noReport,
			})
			if err != nil {
				return err
			}

			if ctx.quiet() {
				return nil
			}
			out := cmd.OutOrStdout()
			if result.Found == 0 {
				fmt.Fprintf(out, "No matching audio files under %s\n", result.RootPath)
				return nil
			}
			fmt.Fprintln(out, renderRunSummary(cfg, result))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the dataset and report files")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "Number of parallel analysis workers (0 = CPU count)")
	cmd.Flags().StringVar(&formats, "formats", "", "Comma-separated audio extensions to analyze (overrides config)")
	cmd.Flags().StringVar(&jsonName, "json-name", "", "Filename for the JSON dataset")
	cmd.Flags().StringVar(&csvName, "csv-name", "", "Filename for the generated report")
	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 0, "Per-probe ffmpeg timeout in seconds")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "Skip the report generation stage")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording the run in the history database")

	return cmd
}

// applyAnalyzeFlags folds explicitly set flags over the loaded
// configuration. Unset flags leave config values untouched.
func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config, outputDir string, workers int, formats, jsonName, csvName string, timeoutSeconds int) error {
	flags := cmd.Flags()

	if flags.Changed("output-dir") {
		expanded, err := config.ExpandPath(strings.TrimSpace(outputDir))
		if err != nil {
			return fmt.Errorf("resolve output directory: %w", err)
		}
		cfg.Output.Directory = expanded
	}
	if flags.Changed("workers") && workers >= 0 {
		cfg.Analyzer.Workers = workers
	}
	if flags.Changed("formats") {
		exts := splitFormats(formats)
		if len(exts) == 0 {
			return fmt.Errorf("--formats needs at least one extension")
		}
		cfg.Analyzer.Extensions = exts
	}
	if flags.Changed("json-name") && strings.TrimSpace(jsonName) != "" {
		cfg.Output.JSONFilename = strings.TrimSpace(jsonName)
	}
	if flags.Changed("csv-name") && strings.TrimSpace(csvName) != "" {
		cfg.Output.CSVFilename = strings.TrimSpace(csvName)
	}
	if flags.Changed("timeout") {
		if timeoutSeconds <= 0 {
			return fmt.Errorf("--timeout must be positive")
		}
		cfg.FFmpeg.TimeoutSeconds = timeoutSeconds
	}
	return nil
}

func splitFormats(value string) []string {
	parts := strings.Split(value, ",")
	exts := make([]string, 0, len(parts))
	for _, part := range parts {
		ext := strings.ToLower(strings.TrimSpace(part))
		ext = strings.TrimPrefix(ext, ".")
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}
