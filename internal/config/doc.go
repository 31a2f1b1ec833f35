// Package config loads, normalizes, and validates analyzer configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// AUDIO_ANALYZER_THREADS and AUDIO_ANALYZER_VERBOSE (optionally via a .env
// file in the working directory). The Config type centralizes every knob the
// CLI and pipeline need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical extension lists, and clear validation errors.
package config
