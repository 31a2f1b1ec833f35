// Command audio-analyzer measures loudness and spectral metrics for audio
// files by driving ffmpeg probes in parallel, writes the results as a JSON
// dataset, and optionally hands that dataset to an external report generator.
package main
