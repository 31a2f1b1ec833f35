package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SilenceFloorDb is returned for a high-pass band whose output contains no
// RMS reading at all: the band is effectively silent, which is a
// measurement, not a failure.
const SilenceFloorDb = -144.0

// previewLimit bounds the unparsed-text preview carried by ParseError.
const previewLimit = 500

// Metric family names carried by ParseError.
const (
	KindLRA     = "ebur128"
	KindPeakRMS = "astats"
)

// Patterns are compiled once and shared read-only across all workers.
var (
	summaryLRAPattern  = regexp.MustCompile(`(?m)^LRA:\s*([0-9.-]+)\s*LU\s*$`)
	repeatedLRAPattern = regexp.MustCompile(`LRA:\s*([0-9.-]+)\s*LU`)

	overallStatsPattern = regexp.MustCompile(
		`(?m)^\[Parsed_astats_0 @ [^\]]+\] Overall\s*\n(?:[^\n]*\n)*?[^\n]*Peak level dB:\s*([-\d.]+)\s*\n(?:[^\n]*\n)*?[^\n]*RMS level dB:\s*([-\d.]+)`)
	highpassStatsPattern = regexp.MustCompile(
		`(?m)^\[Parsed_astats_1 @ [^\]]+\] Overall\s*\n(?:[^\n]*\n)*?[^\n]*RMS level dB:\s*([-\d.]+)`)

	simplePeakPattern = regexp.MustCompile(`Peak level dB:\s*([-\d.]+)`)
	simpleRMSPattern  = regexp.MustCompile(`RMS level dB:\s*([-\d.]+)`)
)

// ParseError indicates probe output contained no recognizable metric value.
// Preview carries the head of the unparsed text for diagnostics.
type ParseError struct {
	Kind    string
	Preview string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s output: no metric values found (preview: %q)", e.Kind, e.Preview)
}

// LRA extracts the loudness range from ebur128 output. The canonical
// summary line wins when present; otherwise the last parsable running value
// wins, since later values in the stream supersede earlier ones.
func LRA(text string) (float64, error) {
	if match := summaryLRAPattern.FindStringSubmatch(text); match != nil {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			return value, nil
		}
	}

	if value := lastParsable(repeatedLRAPattern, text); value != nil {
		return *value, nil
	}

	return 0, &ParseError{Kind: KindLRA, Preview: truncatePreview(text)}
}

// PeakRMS extracts the peak and overall RMS levels from astats output.
// Either return value may be nil when only one could be recovered; the call
// fails only when neither is.
func PeakRMS(text string) (peak, rms *float64, err error) {
	if match := overallStatsPattern.FindStringSubmatch(text); match != nil {
		peak = parseOptional(match[1])
		rms = parseOptional(match[2])
		if peak != nil || rms != nil {
			return peak, rms, nil
		}
	}

	peak = lastParsable(simplePeakPattern, text)
	rms = lastParsable(simpleRMSPattern, text)
	if peak != nil || rms != nil {
		return peak, rms, nil
	}

	return nil, nil, &ParseError{Kind: KindPeakRMS, Preview: truncatePreview(text)}
}

// HighpassRMS extracts the filtered-band RMS level from the second astats
// instance in a highpass chain. Output with no RMS reading at all yields
// SilenceFloorDb rather than an error.
func HighpassRMS(text string) float64 {
	if match := highpassStatsPattern.FindStringSubmatch(text); match != nil {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			return value
		}
	}

	if value := lastParsable(simpleRMSPattern, text); value != nil {
		return *value
	}

	return SilenceFloorDb
}

// lastParsable returns the last submatch of pattern that parses as a float,
// or nil when none does.
func lastParsable(pattern *regexp.Regexp, text string) *float64 {
	var result *float64
	for _, match := range pattern.FindAllStringSubmatch(text, -1) {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			v := value
			result = &v
		}
	}
	return result
}

func parseOptional(capture string) *float64 {
	value, err := strconv.ParseFloat(capture, 64)
	if err != nil {
		return nil
	}
	return &value
}

func truncatePreview(text string) string {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) <= previewLimit {
		return trimmed
	}
	return string(runes[:previewLimit]) + "..."
}
