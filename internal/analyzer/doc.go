// Package analyzer orchestrates metric extraction across audio files.
//
// One file produces one record from five concurrent ffmpeg probes:
// loudness range, the peak/RMS pair, and high-pass RMS at 16, 18, and
// 20 kHz. Probe failures degrade to absent fields rather than failing
// the file. The batch coordinator maps the per-file analysis over a
// bounded worker pool and tolerates individual file failures.
package analyzer
