// Package logging assembles structured slog loggers and formatting helpers
// used across the analyzer.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes typed attribute helpers so pipeline code can tag log
// lines with file paths, probe kinds, and run IDs in a consistent shape. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape and routing guarantees.
package logging
