package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"audio-analyzer/internal/history"
	"audio-analyzer/internal/metrics"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(id string, started time.Time) history.Run {
	return history.Run{
		ID:            id,
		RootPath:      "/music",
		StartedAt:     started,
		FinishedAt:    started.Add(90 * time.Second),
		FilesFound:    3,
		FilesAnalyzed: 2,
		FilesFailed:   1,
		DatasetPath:   "/music/analysis_data.json",
		ReportPath:    "/music/audio_quality_report.csv",
	}
}

func TestOpenInitializesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()
	if reopened.Path() != path {
		t.Fatalf("unexpected path: %q", reopened.Path())
	}
}

func TestRecordAndGetRunRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 8, 24, 10, 0, 0, 123456789, time.UTC)
	run := sampleRun("run-2026-001", started)
	records := []metrics.FileMetrics{
		{
			Path:         "/music/a.flac",
			SizeBytes:    4096,
			LRA:          metrics.Float(9.4),
			PeakDb:       metrics.Float(-0.6),
			RMSDb:        metrics.Float(-16.0),
			RMS16kDb:     metrics.Float(-61.3),
			RMS18kDb:     metrics.Float(-76.8),
			RMS20kDb:     metrics.Float(-144.0),
			ProcessingMs: 850,
		},
		{
			Path:      "/music/b.mp3",
			SizeBytes: 2048,
			RMSDb:     metrics.Float(-13.1),
		},
	}

	if err := store.RecordRun(ctx, run, records); err != nil {
		t.Fatalf("RecordRun returned error: %v", err)
	}

	got, gotRecords, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun returned error: %v", err)
	}
	if got.ID != run.ID || got.RootPath != run.RootPath {
		t.Fatalf("unexpected run: %+v", got)
	}
	if !got.StartedAt.Equal(run.StartedAt) || !got.FinishedAt.Equal(run.FinishedAt) {
		t.Fatalf("timestamps drifted: %+v", got)
	}
	if got.Duration() != 90*time.Second {
		t.Fatalf("unexpected duration: %s", got.Duration())
	}
	if got.FilesFound != 3 || got.FilesAnalyzed != 2 || got.FilesFailed != 1 {
		t.Fatalf("unexpected counters: %+v", got)
	}
	if got.DatasetPath != run.DatasetPath || got.ReportPath != run.ReportPath {
		t.Fatalf("unexpected artifact paths: %+v", got)
	}

	if len(gotRecords) != 2 {
		t.Fatalf("expected 2 records, got %d", len(gotRecords))
	}
	first := gotRecords[0]
	if first.Path != "/music/a.flac" || first.SizeBytes != 4096 || first.ProcessingMs != 850 {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if first.LRA == nil || *first.LRA != 9.4 {
		t.Fatalf("unexpected lra: %v", first.LRA)
	}
	second := gotRecords[1]
	if second.LRA != nil || second.PeakDb != nil || second.RMS18kDb != nil {
		t.Fatalf("expected absent fields preserved, got %+v", second)
	}
	if second.RMSDb == nil || *second.RMSDb != -13.1 {
		t.Fatalf("unexpected rms: %v", second.RMSDb)
	}
	if second.IsComplete() {
		t.Fatal("partial record must stay incomplete after reload")
	}
}

func TestGetRunResolvesUniquePrefix(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	if err := store.RecordRun(ctx, sampleRun("4f9d2c81-aaaa", started), nil); err != nil {
		t.Fatalf("RecordRun returned error: %v", err)
	}

	got, _, err := store.GetRun(ctx, "4f9d")
	if err != nil {
		t.Fatalf("GetRun returned error: %v", err)
	}
	if got.ID != "4f9d2c81-aaaa" {
		t.Fatalf("unexpected match: %q", got.ID)
	}

	if _, _, err := store.GetRun(ctx, "zzzz"); !errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestGetRunAmbiguousPrefix(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	if err := store.RecordRun(ctx, sampleRun("aaa-1", started), nil); err != nil {
		t.Fatalf("RecordRun returned error: %v", err)
	}
	if err := store.RecordRun(ctx, sampleRun("aaa-2", started.Add(time.Minute)), nil); err != nil {
		t.Fatalf("RecordRun returned error: %v", err)
	}

	if _, _, err := store.GetRun(ctx, "aaa"); !errors.Is(err, history.ErrAmbiguousRunID) {
		t.Fatalf("expected ErrAmbiguousRunID, got %v", err)
	}

	got, _, err := store.GetRun(ctx, "aaa-1")
	if err != nil {
		t.Fatalf("exact id must win over prefix matches: %v", err)
	}
	if got.ID != "aaa-1" {
		t.Fatalf("unexpected match: %q", got.ID)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		if err := store.RecordRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Hour)), nil); err != nil {
			t.Fatalf("RecordRun returned error: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns returned error: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	wantOrder := []string{"run-c", "run-b", "run-a"}
	for i, want := range wantOrder {
		if runs[i].ID != want {
			t.Fatalf("run %d: got %q want %q", i, runs[i].ID, want)
		}
	}

	limited, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns returned error: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "run-c" {
		t.Fatalf("unexpected limited listing: %+v", limited)
	}
}

func TestPruneKeepsNewestRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	ids := []string{"p-1", "p-2", "p-3", "p-4", "p-5"}
	for i, id := range ids {
		records := []metrics.FileMetrics{{Path: "/music/x.wav", SizeBytes: 1}}
		if err := store.RecordRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Minute)), records); err != nil {
			t.Fatalf("RecordRun returned error: %v", err)
		}
	}

	removed, err := store.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns returned error: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "p-5" || runs[1].ID != "p-4" {
		t.Fatalf("unexpected survivors: %+v", runs)
	}

	if _, _, err := store.GetRun(ctx, "p-1"); !errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("expected pruned run gone, got %v", err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("raw open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("tamper version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
