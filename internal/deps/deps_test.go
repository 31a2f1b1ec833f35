package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"audio-analyzer/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unconfigured", Command: "", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Path == "" {
		t.Fatalf("expected resolved path for available dependency")
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[2].Available {
		t.Fatalf("expected unconfigured command to be unavailable")
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unconfigured command: %s", results[2].Detail)
	}
}

func TestForConfig(t *testing.T) {
	cfg := config.Default()
	cfg.FFmpeg.Binary = "/opt/ffmpeg/bin/ffmpeg"

	reqs := ForConfig(&cfg)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	if reqs[0].Name != "ffmpeg" || reqs[0].Optional {
		t.Fatalf("expected required ffmpeg first, got %#v", reqs[0])
	}
	if reqs[0].Command != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("unexpected ffmpeg command: %s", reqs[0].Command)
	}
	if reqs[1].Name != "report generator" || !reqs[1].Optional {
		t.Fatalf("expected optional report generator second, got %#v", reqs[1])
	}
}

func TestFFmpegVersion(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "ffmpeg")
	script := []byte("#!/bin/sh\necho 'ffmpeg version 7.1-test'\necho 'built with gcc 14'\n")
	if err := os.WriteFile(stub, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	version := FFmpegVersion(context.Background(), stub)
	if version != "ffmpeg version 7.1-test" {
		t.Fatalf("unexpected version line: %q", version)
	}
}

func TestFFmpegVersionUnavailable(t *testing.T) {
	if version := FFmpegVersion(context.Background(), "clearly-not-present-binary"); version != "" {
		t.Fatalf("expected empty version for missing binary, got %q", version)
	}
	if version := FFmpegVersion(context.Background(), "  "); version != "" {
		t.Fatalf("expected empty version for blank command, got %q", version)
	}
}

func TestCheckRecordsFFmpegVersion(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "ffmpeg")
	script := []byte("#!/bin/sh\necho 'ffmpeg version 7.1-test'\n")
	if err := os.WriteFile(stub, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	cfg := config.Default()
	cfg.FFmpeg.Binary = stub

	statuses := Check(context.Background(), &cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if !statuses[0].Available {
		t.Fatalf("expected ffmpeg stub to be available, got %#v", statuses[0])
	}
	if statuses[0].Detail != "ffmpeg version 7.1-test" {
		t.Fatalf("expected version banner in detail, got %q", statuses[0].Detail)
	}
	if statuses[1].Available {
		t.Fatalf("expected unconfigured report generator to be unavailable")
	}
}
