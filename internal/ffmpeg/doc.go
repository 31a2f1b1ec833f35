// Package ffmpeg drives the external ffmpeg binary for audio probes.
//
// ffmpeg reports filter analysis on its standard error stream rather
// than standard output. Every probe runs with stdin closed and stdout
// discarded, captures stderr in full, and returns the text for the
// extract package to parse. Exit status is recorded but never treated
// as a probe failure on its own.
package ffmpeg
