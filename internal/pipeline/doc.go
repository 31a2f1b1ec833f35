// Package pipeline runs one analysis end to end: scan, batch probe, dataset
// write, history record, report generation. A lock file in the output
// directory keeps concurrent runs from clobbering each other's artifacts.
package pipeline
