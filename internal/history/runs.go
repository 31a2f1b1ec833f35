package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"audio-analyzer/internal/metrics"
)

// Run summarizes one completed analysis pipeline execution.
type Run struct {
	ID            string
	RootPath      string
	StartedAt     time.Time
	FinishedAt    time.Time
	FilesFound    int
	FilesAnalyzed int
	FilesFailed   int
	DatasetPath   string
	ReportPath    string
}

// Duration returns the wall-clock span of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RecordRun stores a run summary together with its per-file metrics in
// one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run, records []metrics.FileMetrics) error {
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id required")
	}
	ctx = ensureContext(ctx)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin run tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		_, err = tx.ExecContext(ctx,
			`INSERT INTO runs (
                id, root_path, started_at, finished_at,
                files_found, files_analyzed, files_failed,
                dataset_path, report_path
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.RootPath,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.FinishedAt.UTC().Format(time.RFC3339Nano),
			run.FilesFound,
			run.FilesAnalyzed,
			run.FilesFailed,
			nullableString(run.DatasetPath),
			nullableString(run.ReportPath),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, record := range records {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO file_metrics (
                    run_id, file_path, file_size_bytes,
                    lra, peak_amplitude_db, overall_rms_db,
                    rms_db_above_16k, rms_db_above_18k, rms_db_above_20k,
                    processing_time_ms
                ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				run.ID,
				record.Path,
				record.SizeBytes,
				nullableFloat(record.LRA),
				nullableFloat(record.PeakDb),
				nullableFloat(record.RMSDb),
				nullableFloat(record.RMS16kDb),
				nullableFloat(record.RMS18kDb),
				nullableFloat(record.RMS20kDb),
				record.ProcessingMs,
			)
			if err != nil {
				return fmt.Errorf("insert file metrics for %s: %w", record.Path, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit run: %w", err)
		}
		return nil
	})
}

const runColumns = `id, root_path, started_at, finished_at,
    files_found, files_analyzed, files_failed, dataset_path, report_path`

// ListRuns returns stored runs, newest first. A limit of zero or less
// returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun resolves a run by full ID or unique prefix and returns it with
// its per-file metrics.
func (s *Store) GetRun(ctx context.Context, id string) (Run, []metrics.FileMetrics, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Run{}, nil, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	ctx = ensureContext(ctx)

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id LIKE ? || '%' ORDER BY started_at DESC", id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("find run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, fmt.Errorf("iterate runs: %w", err)
	}

	var run Run
	switch len(matches) {
	case 0:
		return Run{}, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		run = matches[0]
	default:
		exact := -1
		for i := range matches {
			if matches[i].ID == id {
				exact = i
				break
			}
		}
		if exact < 0 {
			return Run{}, nil, fmt.Errorf("%w: %s matches %d runs", ErrAmbiguousRunID, id, len(matches))
		}
		run = matches[exact]
	}

	records, err := s.runRecords(ctx, run.ID)
	if err != nil {
		return Run{}, nil, err
	}
	return run, records, nil
}

// Prune deletes all but the newest keep runs, returning the number of
// runs removed. File metrics rows go with their run.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	ctx = ensureContext(ctx)

	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM runs WHERE id NOT IN (
                SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
            )`, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return int(removed), nil
}

func (s *Store) runRecords(ctx context.Context, runID string) ([]metrics.FileMetrics, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_path, file_size_bytes,
            lra, peak_amplitude_db, overall_rms_db,
            rms_db_above_16k, rms_db_above_18k, rms_db_above_20k,
            processing_time_ms
        FROM file_metrics WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("load file metrics: %w", err)
	}
	defer rows.Close()

	var records []metrics.FileMetrics
	for rows.Next() {
		var (
			record                    metrics.FileMetrics
			lra, peak, rms            sql.NullFloat64
			band16k, band18k, band20k sql.NullFloat64
		)
		if err := rows.Scan(
			&record.Path, &record.SizeBytes,
			&lra, &peak, &rms,
			&band16k, &band18k, &band20k,
			&record.ProcessingMs,
		); err != nil {
			return nil, fmt.Errorf("scan file metrics: %w", err)
		}
		record.LRA = floatPtr(lra)
		record.PeakDb = floatPtr(peak)
		record.RMSDb = floatPtr(rms)
		record.RMS16kDb = floatPtr(band16k)
		record.RMS18kDb = floatPtr(band18k)
		record.RMS20kDb = floatPtr(band20k)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file metrics: %w", err)
	}
	return records, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run               Run
		started, finished string
		dataset, report   sql.NullString
	)
	if err := rows.Scan(
		&run.ID, &run.RootPath, &started, &finished,
		&run.FilesFound, &run.FilesAnalyzed, &run.FilesFailed,
		&dataset, &report,
	); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	var err error
	if run.StartedAt, err = parseTimestamp(started); err != nil {
		return Run{}, err
	}
	if run.FinishedAt, err = parseTimestamp(finished); err != nil {
		return Run{}, err
	}
	run.DatasetPath = dataset.String
	run.ReportPath = report.String
	return run, nil
}

func parseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return parsed, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func floatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	parsed := value.Float64
	return &parsed
}
