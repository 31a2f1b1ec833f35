package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"audio-analyzer/internal/extract"
	"audio-analyzer/internal/ffmpeg"
	"audio-analyzer/internal/logging"
	"audio-analyzer/internal/metrics"
)

// Cutoff frequencies for the banded RMS probes, in Hz.
var highpassCutoffs = [3]int{16000, 18000, 20000}

// MetadataError reports a file whose size could not be read. The batch
// coordinator drops such files from its results.
type MetadataError struct {
	Path string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("read metadata for %s: %v", e.Path, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// Analyzer extracts loudness and spectral metrics from audio files by
// fanning out ffmpeg probes.
type Analyzer struct {
	prober ffmpeg.Prober
	logger *slog.Logger
}

// New constructs an analyzer around the given prober.
func New(prober ffmpeg.Prober, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{prober: prober, logger: logger}
}

// AnalyzeFile measures one file. The loudness-range, peak/RMS, and
// three high-pass band probes run concurrently and are all joined
// before the record is built. A failed probe leaves its fields absent;
// only unreadable file metadata fails the file as a whole.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (metrics.FileMetrics, error) {
	info, err := os.Stat(path)
	if err != nil {
		return metrics.FileMetrics{}, &MetadataError{Path: path, Err: err}
	}

	record := metrics.New(path, uint64(info.Size()))
	started := time.Now()

	var (
		lra   *float64
		peak  *float64
		rms   *float64
		bands [3]*float64
	)

	var wg sync.WaitGroup
	wg.Add(2 + len(highpassCutoffs))

	go func() {
		defer wg.Done()
		text, err := a.prober.Loudness(ctx, path)
		if err != nil {
			a.probeFailed(path, extract.KindLRA, err)
			return
		}
		value, err := extract.LRA(text)
		if err != nil {
			a.probeFailed(path, extract.KindLRA, err)
			return
		}
		lra = &value
	}()

	go func() {
		defer wg.Done()
		text, err := a.prober.AudioStats(ctx, path)
		if err != nil {
			a.probeFailed(path, extract.KindPeakRMS, err)
			return
		}
		p, r, err := extract.PeakRMS(text)
		if err != nil {
			a.probeFailed(path, extract.KindPeakRMS, err)
			return
		}
		peak, rms = p, r
	}()

	for i, freq := range highpassCutoffs {
		go func(slot, frequency int) {
			defer wg.Done()
			text, err := a.prober.HighpassStats(ctx, path, frequency)
			if err != nil {
				a.probeFailed(path, fmt.Sprintf("highpass-%d", frequency), err)
				return
			}
			value := extract.HighpassRMS(text)
			bands[slot] = &value
		}(i, freq)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return metrics.FileMetrics{}, err
	}

	record.LRA = lra
	record.PeakDb = peak
	record.RMSDb = rms
	record.RMS16kDb = bands[0]
	record.RMS18kDb = bands[1]
	record.RMS20kDb = bands[2]
	record.ProcessingMs = uint64(time.Since(started).Milliseconds())
	return record, nil
}

func (a *Analyzer) probeFailed(path, kind string, err error) {
	a.logger.Warn("probe failed",
		logging.String("file", path),
		logging.String("probe", kind),
		logging.Error(err))
}
