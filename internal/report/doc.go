// Package report drives the external report generator that turns the
// JSON dataset into the final quality report.
package report
