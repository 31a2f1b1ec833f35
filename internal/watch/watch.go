package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"audio-analyzer/internal/analyzer"
	"audio-analyzer/internal/config"
	"audio-analyzer/internal/dataset"
	"audio-analyzer/internal/ffmpeg"
	"audio-analyzer/internal/history"
	"audio-analyzer/internal/logging"
	"audio-analyzer/internal/metrics"
	"audio-analyzer/internal/pipeline"
	"audio-analyzer/internal/scan"
)

const (
	defaultSettleDelay  = 2 * time.Second
	defaultPollInterval = 500 * time.Millisecond
)

// Options adjusts optional collaborators and timing for a watch session.
type Options struct {
	// Prober overrides the ffmpeg-backed prober. When set, the ffmpeg
	// binary preflight is skipped.
	Prober ffmpeg.Prober
	// SettleDelay is how long a file must keep its size before it is
	// analyzed. Zero means 2s.
	SettleDelay time.Duration
	// PollInterval is the cadence of settle checks. Zero means 500ms.
	PollInterval time.Duration
	// DisableHistory skips run recording even when the config enables it.
	DisableHistory bool
}

// pendingFile tracks a path waiting to settle. The size is refreshed and
// the clock restarted whenever the file is still growing.
type pendingFile struct {
	since time.Time
	size  int64
}

// fileStamp fingerprints a processed file so duplicate events for an
// unchanged file are ignored.
type fileStamp struct {
	size    int64
	modTime time.Time
}

// Run watches dir and keeps its dataset current as audio files arrive or
// change. Each settled file is analyzed on its own and merged into the
// dataset, which is rewritten ordered by path. Watching is not recursive;
// directories created after the session starts are not picked up. Run
// returns nil when ctx is cancelled, which is the normal way to stop.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, dir string, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	log := logging.NewComponentLogger(logger, "watch")

	if opts.Prober == nil {
		if err := pipeline.CheckRequired(cfg); err != nil {
			return err
		}
	}

	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return errors.New("watch directory is required")
	}
	root, err := config.ExpandPath(trimmed)
	if err != nil {
		return err
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch root %q: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root %q: %w", root, scan.ErrNotDirectory)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	runLock, err := pipeline.LockOutputDir(cfg.OutputDir(root))
	if err != nil {
		return err
	}
	defer func() {
		if err := runLock.Unlock(); err != nil {
			log.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	datasetPath := cfg.DatasetPath(root)
	records := map[string]metrics.FileMetrics{}
	if existing, err := dataset.Read(datasetPath); err == nil {
		for _, record := range existing {
			records[record.Path] = record
		}
		log.Info("resuming existing dataset",
			logging.String("path", datasetPath),
			logging.Int("records", len(records)))
	}

	var store *history.Store
	if cfg.History.Enabled && !opts.DisableHistory {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	prober := opts.Prober
	if prober == nil {
		client, err := ffmpeg.New(cfg.FFmpeg.Binary, cfg.FFmpeg.LogLevel, cfg.FFmpeg.HideBanner, cfg.ProbeTimeout())
		if err != nil {
			return err
		}
		prober = client
	}
	worker := analyzer.New(prober, logging.NewComponentLogger(logger, "analyzer"))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	settle := opts.SettleDelay
	if settle <= 0 {
		settle = defaultSettleDelay
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	exts := scan.NewExtensions(cfg.Analyzer.Extensions)
	pending := map[string]pendingFile{}
	done := map[string]fileStamp{}

	log.Info("watching for audio files",
		logging.String("root", root),
		logging.Duration("settle", settle))

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !exts.Match(event.Name) {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			pending[event.Name] = pendingFile{since: time.Now(), size: info.Size()}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", logging.Error(err))

		case now := <-ticker.C:
			for path, entry := range pending {
				info, err := os.Stat(path)
				if err != nil {
					delete(pending, path)
					continue
				}
				if info.Size() != entry.size {
					// Still growing; restart the settle clock.
					pending[path] = pendingFile{since: now, size: info.Size()}
					continue
				}
				if now.Sub(entry.since) < settle {
					continue
				}
				delete(pending, path)

				stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}
				if done[path] == stamp {
					continue
				}

				started := time.Now()
				record, err := worker.AnalyzeFile(ctx, path)
				if err != nil {
					if ctx.Err() != nil {
						log.Info("watch stopped")
						return nil
					}
					log.Warn("file skipped",
						logging.String("file", path),
						logging.Error(err))
					continue
				}

				records[path] = record
				if err := dataset.Write(datasetPath, sortedRecords(records)); err != nil {
					return err
				}
				done[path] = stamp
				log.Info("file analyzed",
					logging.String("file", path),
					logging.Uint64("duration_ms", record.ProcessingMs),
					logging.Bool("complete", record.IsComplete()))

				if store != nil {
					run := history.Run{
						ID:            uuid.NewString(),
						RootPath:      root,
						StartedAt:     started,
						FinishedAt:    time.Now(),
						FilesFound:    1,
						FilesAnalyzed: 1,
						DatasetPath:   datasetPath,
					}
					if err := store.RecordRun(ctx, run, []metrics.FileMetrics{record}); err != nil {
						log.Warn("failed to record watch history", logging.Error(err))
					}
				}
			}
		}
	}
}

// sortedRecords flattens the session records into a path-ordered slice so
// dataset rewrites stay deterministic.
func sortedRecords(byPath map[string]metrics.FileMetrics) []metrics.FileMetrics {
	out := make([]metrics.FileMetrics, 0, len(byPath))
	for _, record := range byPath {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
