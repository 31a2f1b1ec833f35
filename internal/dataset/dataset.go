package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"audio-analyzer/internal/metrics"
)

// Write serializes records as indented JSON at path. The file is
// written to a temp path first and renamed into place.
func Write(path string, records []metrics.FileMetrics) error {
	if records == nil {
		records = []metrics.FileMetrics{}
	}
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	payload = append(payload, '\n')

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure dataset dir: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, payload, 0o644); err != nil {
		return fmt.Errorf("write dataset temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename dataset: %w", err)
	}
	return nil
}

// Read loads a dataset previously produced by Write.
func Read(path string) ([]metrics.FileMetrics, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var records []metrics.FileMetrics
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return records, nil
}
