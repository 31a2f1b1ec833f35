package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"audio-analyzer/internal/analyzer"
	"audio-analyzer/internal/config"
	"audio-analyzer/internal/dataset"
	"audio-analyzer/internal/deps"
	"audio-analyzer/internal/ffmpeg"
	"audio-analyzer/internal/history"
	"audio-analyzer/internal/logging"
	"audio-analyzer/internal/metrics"
	"audio-analyzer/internal/report"
	"audio-analyzer/internal/scan"
)

// ErrActiveRun reports that the output directory is locked by another
// analysis run.
var ErrActiveRun = errors.New("another analysis run is active for this output directory")

// lockFilename sits in the output directory so two runs cannot write the
// same dataset concurrently.
const lockFilename = ".audio-analyzer.lock"

// Options adjusts optional collaborators and stage toggles for a run.
type Options struct {
	// Prober overrides the ffmpeg-backed prober. When set, the ffmpeg
	// binary preflight is skipped.
	Prober ffmpeg.Prober
	// ReportExecutor overrides process execution for the report stage.
	ReportExecutor report.Executor
	// ProgressWriter receives the progress bar. Defaults to stderr.
	ProgressWriter io.Writer
	// DisableHistory skips run recording even when the config enables it.
	DisableHistory bool
	// DisableReport skips the report stage even when a command is configured.
	DisableReport bool
}

// Result summarizes one finished analysis run for the CLI to render.
type Result struct {
	RunID       string
	RootPath    string
	Found       int
	Analyzed    int
	Failed      int
	Duration    time.Duration
	DatasetPath string
	ReportPath  string
	Metrics     []metrics.FileMetrics
}

// Run executes the full analysis pipeline against input, which may be a
// directory to scan or a single eligible audio file. Files that fail
// analysis are dropped from the dataset; a scan failure, an unwritable
// dataset, or a failing report generator abort the run.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, input string, opts Options) (*Result, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	started := time.Now()
	runID := uuid.NewString()
	log := logging.NewComponentLogger(logger, "pipeline").With(logging.String("run_id", runID))

	if opts.Prober == nil {
		if err := CheckRequired(cfg); err != nil {
			return nil, err
		}
	}

	root, files, err := resolveInput(cfg, logger, input)
	if err != nil {
		return nil, err
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	runLock, err := LockOutputDir(cfg.OutputDir(root))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := runLock.Unlock(); err != nil {
			log.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	if len(files) == 0 {
		log.Info("no matching audio files found", logging.String("root", root))
		return &Result{
			RunID:    runID,
			RootPath: root,
			Duration: time.Since(started),
		}, nil
	}

	workers := cfg.EffectiveWorkers()
	log.Info("analysis run started",
		logging.String("root", root),
		logging.Int("files", len(files)),
		logging.Int("workers", workers))

	worker, err := buildAnalyzer(cfg, logger, opts)
	if err != nil {
		return nil, err
	}

	records, err := worker.AnalyzeBatch(ctx, files, workers, buildProgress(cfg, log, opts, len(files)))
	if err != nil {
		return nil, err
	}

	datasetPath := cfg.DatasetPath(root)
	if err := dataset.Write(datasetPath, records); err != nil {
		return nil, err
	}
	log.Info("dataset written",
		logging.String("path", datasetPath),
		logging.Int("records", len(records)))

	reportEnabled := !opts.DisableReport && strings.TrimSpace(cfg.Report.Command) != ""
	reportPath := ""
	if reportEnabled {
		reportPath = cfg.ReportPath(root)
	}

	if cfg.History.Enabled && !opts.DisableHistory {
		run := history.Run{
			ID:            runID,
			RootPath:      root,
			StartedAt:     started,
			FinishedAt:    time.Now(),
			FilesFound:    len(files),
			FilesAnalyzed: len(records),
			FilesFailed:   len(files) - len(records),
			DatasetPath:   datasetPath,
			ReportPath:    reportPath,
		}
		if err := recordHistory(ctx, cfg, run, records); err != nil {
			log.Warn("failed to record run history", logging.Error(err))
		}
	}

	switch {
	case opts.DisableReport:
		log.Info("report stage disabled")
	case !reportEnabled:
		log.Info("report generator not configured, skipping report stage")
	default:
		if err := generateReport(ctx, cfg, opts, datasetPath, reportPath); err != nil {
			return nil, err
		}
		log.Info("report generated", logging.String("path", reportPath))
	}

	result := &Result{
		RunID:       runID,
		RootPath:    root,
		Found:       len(files),
		Analyzed:    len(records),
		Failed:      len(files) - len(records),
		Duration:    time.Since(started),
		DatasetPath: datasetPath,
		ReportPath:  reportPath,
		Metrics:     records,
	}
	log.Info("analysis run finished",
		logging.Int("analyzed", result.Analyzed),
		logging.Int("failed", result.Failed),
		logging.Duration("duration", result.Duration))
	return result, nil
}

// LockOutputDir claims the run lock inside outputDir so only one writer
// touches its artifacts at a time. The caller must Unlock the returned
// lock when finished.
func LockOutputDir(outputDir string) (*flock.Flock, error) {
	lockPath := filepath.Join(outputDir, lockFilename)
	runLock := flock.New(lockPath)
	locked, err := runLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock %s)", ErrActiveRun, lockPath)
	}
	return runLock, nil
}

// CheckRequired fails fast when a non-optional external binary is missing.
func CheckRequired(cfg *config.Config) error {
	for _, status := range deps.CheckBinaries(deps.ForConfig(cfg)) {
		if status.Optional || status.Available {
			continue
		}
		return fmt.Errorf("dependency %s unavailable: %s", status.Name, status.Detail)
	}
	return nil
}

// resolveInput expands the input path and yields the scan root plus the
// eligible files. A directory is scanned; a single file must carry an
// allow-listed extension.
func resolveInput(cfg *config.Config, logger *slog.Logger, input string) (string, []string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", nil, errors.New("input path is required")
	}

	resolved, err := config.ExpandPath(trimmed)
	if err != nil {
		return "", nil, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", nil, fmt.Errorf("input %q: %w", resolved, err)
	}

	exts := scan.NewExtensions(cfg.Analyzer.Extensions)
	if info.IsDir() {
		files, err := scan.Scan(resolved, exts, logging.NewComponentLogger(logger, "scan"))
		if err != nil {
			return "", nil, err
		}
		return resolved, files, nil
	}

	if !exts.Match(resolved) {
		return "", nil, fmt.Errorf("file %q does not match the configured audio extensions", resolved)
	}
	return filepath.Dir(resolved), []string{resolved}, nil
}

func buildAnalyzer(cfg *config.Config, logger *slog.Logger, opts Options) (*analyzer.Analyzer, error) {
	prober := opts.Prober
	if prober == nil {
		client, err := ffmpeg.New(cfg.FFmpeg.Binary, cfg.FFmpeg.LogLevel, cfg.FFmpeg.HideBanner, cfg.ProbeTimeout())
		if err != nil {
			return nil, err
		}
		prober = client
	}
	return analyzer.New(prober, logging.NewComponentLogger(logger, "analyzer")), nil
}

// buildProgress prefers an interactive bar and falls back to coarse log
// lines when the writer is not a terminal.
func buildProgress(cfg *config.Config, log *slog.Logger, opts Options, total int) analyzer.ProgressFunc {
	if !cfg.Analyzer.ShowProgress {
		return nil
	}
	writer := opts.ProgressWriter
	if writer == nil {
		writer = os.Stderr
	}
	if bar := analyzer.NewProgressBar(writer, total); bar != nil {
		return bar
	}
	return logProgress(log, total)
}

// logProgress reports batch completion roughly every tenth of the way.
func logProgress(log *slog.Logger, total int) analyzer.ProgressFunc {
	step := total / 10
	if step < 1 {
		step = 1
	}
	return func(done, total int) {
		if done%step != 0 && done != total {
			return
		}
		log.Info("analysis progress",
			logging.Int("done", done),
			logging.Int("total", total))
	}
}

func recordHistory(ctx context.Context, cfg *config.Config, run history.Run, records []metrics.FileMetrics) error {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.RecordRun(ctx, run, records)
}

func generateReport(ctx context.Context, cfg *config.Config, opts Options, datasetPath, reportPath string) error {
	var genOpts []report.Option
	if opts.ReportExecutor != nil {
		genOpts = append(genOpts, report.WithExecutor(opts.ReportExecutor))
	}
	gen, err := report.New(cfg.Report.Command, genOpts...)
	if err != nil {
		return err
	}
	return gen.Generate(ctx, datasetPath, reportPath)
}
