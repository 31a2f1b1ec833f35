// Package dataset persists analysis results as the JSON interchange
// file consumed by the downstream report generator.
package dataset
