package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"audio-analyzer/internal/config"
	"audio-analyzer/internal/metrics"
	"audio-analyzer/internal/pipeline"
)

// renderRunSummary builds the post-run console view: one row per analyzed
// file plus a footer with counts and artifact paths.
func renderRunSummary(cfg *config.Config, result *pipeline.Result) string {
	headers := []string{"File", "Size", "LRA", "Peak", "RMS", "16k", "18k", "20k", "Time", "Assessment"}

	rows := make([][]string, 0, len(result.Metrics))
	for i := range result.Metrics {
		record := &result.Metrics[i]
		rows = append(rows, []string{
			filepath.Base(record.Path),
			formatSize(record.SizeBytes),
			formatMetric(record.LRA, "LU"),
			formatMetric(record.PeakDb, "dB"),
			formatMetric(record.RMSDb, "dB"),
			formatMetric(record.RMS16kDb, "dB"),
			formatMetric(record.RMS18kDb, "dB"),
			formatMetric(record.RMS20kDb, "dB"),
			formatMillis(record.ProcessingMs),
			assessRecord(cfg.Quality, record),
		})
	}

	var sb strings.Builder
	sb.WriteString(renderTable(headers, rows, 1, 2, 3, 4, 5, 6, 7, 8))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Analyzed %d of %d files in %s\n", result.Analyzed, result.Found, formatDuration(result.Duration))
	if result.Failed > 0 {
		fmt.Fprintf(&sb, "Failed: %d (see log for details)\n", result.Failed)
	}
	fmt.Fprintf(&sb, "Dataset: %s", result.DatasetPath)
	if result.ReportPath != "" {
		fmt.Fprintf(&sb, "\nReport:  %s", result.ReportPath)
	}
	return sb.String()
}

// assessRecord derives an advisory quality label from the configured
// thresholds. It is presentation only; the dataset never carries it, and
// the report generator applies its own classification.
func assessRecord(q config.Quality, record *metrics.FileMetrics) string {
	if !record.IsComplete() {
		return "incomplete"
	}
	if *record.PeakDb >= q.PeakClippingDb {
		return "clipping"
	}

	switch lra := *record.LRA; {
	case lra <= q.LRAPoorMax:
		return "over-compressed"
	case lra <= q.LRALowMax:
		return "compressed"
	case lra >= q.LRATooHighMin:
		return "very dynamic"
	}

	switch band := *record.RMS18kDb; {
	case band >= q.SpectralExcellentDb:
		return "excellent"
	case band >= q.SpectralGoodDb:
		return "good"
	case band >= q.SpectralMediumDb:
		return "medium"
	default:
		return "rolled off"
	}
}

func formatMetric(value *float64, unit string) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f %s", *value, unit)
}

func formatSize(sizeBytes uint64) string {
	const (
		kib = 1 << 10
		mib = 1 << 20
		gib = 1 << 30
	)
	switch {
	case sizeBytes >= gib:
		return fmt.Sprintf("%.2f GiB", float64(sizeBytes)/gib)
	case sizeBytes >= mib:
		return fmt.Sprintf("%.1f MiB", float64(sizeBytes)/mib)
	case sizeBytes >= kib:
		return fmt.Sprintf("%.1f KiB", float64(sizeBytes)/kib)
	default:
		return fmt.Sprintf("%d B", sizeBytes)
	}
}

func formatMillis(ms uint64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%dms", ms)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
