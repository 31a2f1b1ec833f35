package metrics

// FileMetrics is the measurement record for one audio file. Optional fields
// are nil when the corresponding probe failed; they serialize as JSON null so
// downstream consumers can tell "not measured" from any real level.
type FileMetrics struct {
	Path         string   `json:"filePath"`
	SizeBytes    uint64   `json:"fileSizeBytes"`
	LRA          *float64 `json:"lra"`
	PeakDb       *float64 `json:"peakAmplitudeDb"`
	RMSDb        *float64 `json:"overallRmsDb"`
	RMS16kDb     *float64 `json:"rmsDbAbove16k"`
	RMS18kDb     *float64 `json:"rmsDbAbove18k"`
	RMS20kDb     *float64 `json:"rmsDbAbove20k"`
	ProcessingMs uint64   `json:"processingTimeMs"`
}

// New returns a record with path and size set and every metric absent.
func New(path string, sizeBytes uint64) FileMetrics {
	return FileMetrics{Path: path, SizeBytes: sizeBytes}
}

// IsComplete reports whether the metrics needed for downstream quality
// assessment are all present: loudness range, peak amplitude, and the
// 18 kHz band RMS. The remaining fields may be absent without making the
// record incomplete.
func (m *FileMetrics) IsComplete() bool {
	return m.LRA != nil && m.PeakDb != nil && m.RMS18kDb != nil
}

// Float returns a pointer to value, for populating optional fields.
func Float(value float64) *float64 {
	return &value
}
