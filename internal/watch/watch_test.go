package watch_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"audio-analyzer/internal/config"
	"audio-analyzer/internal/dataset"
	"audio-analyzer/internal/logging"
	"audio-analyzer/internal/metrics"
	"audio-analyzer/internal/testsupport"
	"audio-analyzer/internal/watch"
)

type fakeProber struct{}

func (fakeProber) Loudness(ctx context.Context, path string) (string, error) {
	return "LRA: 11.5 LU\n", nil
}

func (fakeProber) AudioStats(ctx context.Context, path string) (string, error) {
	return "Peak level dB: -1.2\nRMS level dB: -15.3\n", nil
}

func (fakeProber) HighpassStats(ctx context.Context, path string, frequency int) (string, error) {
	return "RMS level dB: -77.7\n", nil
}

// startWatch runs a fast-settling watch session in the background and
// stops it when the test finishes.
func startWatch(t *testing.T, cfg *config.Config, root string) (context.CancelFunc, chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watch.Run(ctx, cfg, logging.NewNop(), root, watch.Options{
			Prober:       fakeProber{},
			SettleDelay:  50 * time.Millisecond,
			PollInterval: 10 * time.Millisecond,
		})
		// Closing lets the cleanup below return even when the test body
		// already drained the result.
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("watch did not stop after cancellation")
		}
	})
	// Give the session time to register the directory before events fire.
	time.Sleep(150 * time.Millisecond)
	return cancel, done
}

func appendBytes(t *testing.T, path string, n int) {
	t.Helper()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.Write(bytes.Repeat([]byte{0x41}, n)); err != nil {
		t.Fatalf("append %s: %v", path, err)
	}
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestWatchAnalyzesNewFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := t.TempDir()
	cancel, done := startWatch(t, cfg, root)

	path := filepath.Join(root, "track.wav")
	testsupport.WriteFile(t, path, 64)
	appendBytes(t, path, 32)

	datasetPath := cfg.DatasetPath(root)
	waitFor(t, 5*time.Second, "dataset record", func() bool {
		records, err := dataset.Read(datasetPath)
		return err == nil && len(records) == 1 && records[0].SizeBytes == 96
	})

	records, err := dataset.Read(datasetPath)
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	if records[0].Path != path {
		t.Fatalf("unexpected record path: %q", records[0].Path)
	}
	if !records[0].IsComplete() {
		t.Fatal("expected complete record")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch returned error on clean stop: %v", err)
	}
}

func TestWatchIgnoresOtherExtensions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := t.TempDir()
	startWatch(t, cfg, root)

	testsupport.WriteFile(t, filepath.Join(root, "notes.txt"), 32)
	wav := filepath.Join(root, "track.wav")
	testsupport.WriteFile(t, wav, 64)

	datasetPath := cfg.DatasetPath(root)
	waitFor(t, 5*time.Second, "dataset record", func() bool {
		records, err := dataset.Read(datasetPath)
		return err == nil && len(records) >= 1
	})

	records, err := dataset.Read(datasetPath)
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	if len(records) != 1 || records[0].Path != wav {
		t.Fatalf("expected only the wav record, got %+v", records)
	}
}

func TestWatchReanalyzesChangedFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := t.TempDir()
	startWatch(t, cfg, root)

	path := filepath.Join(root, "track.flac")
	testsupport.WriteFile(t, path, 64)

	datasetPath := cfg.DatasetPath(root)
	waitFor(t, 5*time.Second, "initial record", func() bool {
		records, err := dataset.Read(datasetPath)
		return err == nil && len(records) == 1 && records[0].SizeBytes == 64
	})

	appendBytes(t, path, 64)
	waitFor(t, 5*time.Second, "updated record", func() bool {
		records, err := dataset.Read(datasetPath)
		return err == nil && len(records) == 1 && records[0].SizeBytes == 128
	})
}

func TestWatchRecordsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistory())
	root := t.TempDir()
	cancel, done := startWatch(t, cfg, root)

	testsupport.WriteFile(t, filepath.Join(root, "track.wav"), 64)

	datasetPath := cfg.DatasetPath(root)
	waitFor(t, 5*time.Second, "dataset record", func() bool {
		records, err := dataset.Read(datasetPath)
		return err == nil && len(records) == 1
	})

	cancel()
	<-done

	store := testsupport.MustOpenStore(t, cfg)
	runs, err := store.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) == 0 {
		t.Fatal("expected at least one recorded run")
	}
	if runs[0].FilesAnalyzed != 1 || runs[0].RootPath != root {
		t.Fatalf("unexpected run: %+v", runs[0])
	}
}

func TestWatchSeedsFromExistingDataset(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := t.TempDir()
	datasetPath := cfg.DatasetPath(root)
	if err := os.MkdirAll(filepath.Dir(datasetPath), 0o755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}
	earlier := filepath.Join(root, "a-earlier.wav")
	if err := dataset.Write(datasetPath, []metrics.FileMetrics{metrics.New(earlier, 10)}); err != nil {
		t.Fatalf("seed dataset: %v", err)
	}

	startWatch(t, cfg, root)
	testsupport.WriteFile(t, filepath.Join(root, "b-later.wav"), 64)

	waitFor(t, 5*time.Second, "merged dataset", func() bool {
		records, err := dataset.Read(datasetPath)
		return err == nil && len(records) == 2
	})

	records, err := dataset.Read(datasetPath)
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	if records[0].Path != earlier {
		t.Fatalf("expected seeded record first, got %q", records[0].Path)
	}
}

func TestWatchRejectsFileRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(t.TempDir(), "track.wav")
	testsupport.WriteFile(t, path, 16)

	err := watch.Run(context.Background(), cfg, logging.NewNop(), path, watch.Options{Prober: fakeProber{}})
	if err == nil {
		t.Fatal("expected error for non-directory root")
	}
}
