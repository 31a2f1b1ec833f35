// Package metrics defines the per-file measurement record produced by the
// extraction pipeline and consumed by the dataset writer, history store, and
// report generator.
package metrics
