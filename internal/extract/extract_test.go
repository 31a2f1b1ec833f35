package extract_test

import (
	"errors"
	"strings"
	"testing"

	"audio-analyzer/internal/extract"
)

const ebur128Running = `[Parsed_ebur128_0 @ 0x55d0a0f4c9c0] t: 0.1    TARGET:-23 LUFS    M:-120.7 S:-120.7     I: -70.0 LUFS       LRA: 5.0 LU
[Parsed_ebur128_0 @ 0x55d0a0f4c9c0] t: 0.2    TARGET:-23 LUFS    M: -46.3 S:-120.7     I: -46.3 LUFS       LRA: 7.2 LU
[Parsed_ebur128_0 @ 0x55d0a0f4c9c0] t: 0.3    TARGET:-23 LUFS    M: -44.1 S: -45.0     I: -45.2 LUFS       LRA: 9.9 LU
size=N/A time=00:03:24.38 bitrate=N/A speed= 487x
`

const astatsOutput = `[Parsed_astats_0 @ 0x5601cf5f0c80] Channel: 1
[Parsed_astats_0 @ 0x5601cf5f0c80] Peak level dB: -1.123456
[Parsed_astats_0 @ 0x5601cf5f0c80] RMS level dB: -18.234567
[Parsed_astats_0 @ 0x5601cf5f0c80] Channel: 2
[Parsed_astats_0 @ 0x5601cf5f0c80] Peak level dB: -1.654321
[Parsed_astats_0 @ 0x5601cf5f0c80] RMS level dB: -18.765432
[Parsed_astats_0 @ 0x5601cf5f0c80] Overall
[Parsed_astats_0 @ 0x5601cf5f0c80] DC offset: 0.000001
[Parsed_astats_0 @ 0x5601cf5f0c80] Min level: -0.881414
[Parsed_astats_0 @ 0x5601cf5f0c80] Max level: 0.935913
[Parsed_astats_0 @ 0x5601cf5f0c80] Peak level dB: -0.575250
[Parsed_astats_0 @ 0x5601cf5f0c80] Peak count: 2
[Parsed_astats_0 @ 0x5601cf5f0c80] RMS level dB: -17.729051
[Parsed_astats_0 @ 0x5601cf5f0c80] RMS peak dB: -14.578988
size=N/A time=00:03:24.38 bitrate=N/A speed= 512x
`

const highpassOutput = `[Parsed_highpass_0 @ 0x5601cf5f0b00] cutting frequencies below 18000 Hz
[Parsed_astats_1 @ 0x5601cf5f0c80] Channel: 1
[Parsed_astats_1 @ 0x5601cf5f0c80] RMS level dB: -80.123456
[Parsed_astats_1 @ 0x5601cf5f0c80] Overall
[Parsed_astats_1 @ 0x5601cf5f0c80] Peak level dB: -60.204512
[Parsed_astats_1 @ 0x5601cf5f0c80] RMS level dB: -82.517890
size=N/A time=00:03:24.38 bitrate=N/A speed= 498x
`

func TestLRAPrefersSummaryLine(t *testing.T) {
	text := ebur128Running + "LRA: 12.3 LU\n"

	value, err := extract.LRA(text)
	if err != nil {
		t.Fatalf("LRA returned error: %v", err)
	}
	if value != 12.3 {
		t.Fatalf("expected summary value 12.3, got %v", value)
	}
}

func TestLRALastRunningValueWins(t *testing.T) {
	value, err := extract.LRA(ebur128Running)
	if err != nil {
		t.Fatalf("LRA returned error: %v", err)
	}
	if value != 9.9 {
		t.Fatalf("expected last running value 9.9, got %v", value)
	}
}

func TestLRAUnparsableSummaryFallsThrough(t *testing.T) {
	text := "LRA: .-. LU\n" + ebur128Running

	value, err := extract.LRA(text)
	if err != nil {
		t.Fatalf("LRA returned error: %v", err)
	}
	if value != 9.9 {
		t.Fatalf("expected fall-through to running values, got %v", value)
	}
}

func TestLRANoMatchReturnsParseError(t *testing.T) {
	_, err := extract.LRA("stream mapping:\n  Stream #0:0 -> #0:0 (copy)\n")
	if err == nil {
		t.Fatal("expected error for output without LRA values")
	}
	var parseErr *extract.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if parseErr.Kind != extract.KindLRA {
		t.Fatalf("unexpected kind: %q", parseErr.Kind)
	}
	if parseErr.Preview == "" {
		t.Fatal("expected preview of unparsed text")
	}
}

func TestParseErrorPreviewIsTruncated(t *testing.T) {
	_, err := extract.LRA(strings.Repeat("x", 2000))
	var parseErr *extract.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if got := len([]rune(parseErr.Preview)); got > 503 {
		t.Fatalf("expected preview capped near 500 runes, got %d", got)
	}
	if !strings.HasSuffix(parseErr.Preview, "...") {
		t.Fatalf("expected ellipsis on truncated preview, got %q", parseErr.Preview[:20])
	}
}

func TestPeakRMSUsesOverallBlock(t *testing.T) {
	peak, rms, err := extract.PeakRMS(astatsOutput)
	if err != nil {
		t.Fatalf("PeakRMS returned error: %v", err)
	}
	if peak == nil || *peak != -0.575250 {
		t.Fatalf("expected overall peak -0.575250, got %v", peak)
	}
	if rms == nil || *rms != -17.729051 {
		t.Fatalf("expected overall rms -17.729051, got %v", rms)
	}
}

func TestPeakRMSFallsBackToBarePatterns(t *testing.T) {
	text := `Peak level dB: -4.2
RMS level dB: -20.5
Peak level dB: -3.1
RMS level dB: -19.8
`
	peak, rms, err := extract.PeakRMS(text)
	if err != nil {
		t.Fatalf("PeakRMS returned error: %v", err)
	}
	if peak == nil || *peak != -3.1 {
		t.Fatalf("expected last bare peak -3.1, got %v", peak)
	}
	if rms == nil || *rms != -19.8 {
		t.Fatalf("expected last bare rms -19.8, got %v", rms)
	}
}

func TestPeakRMSSingleValueIsNotAnError(t *testing.T) {
	peak, rms, err := extract.PeakRMS("RMS level dB: -21.4\n")
	if err != nil {
		t.Fatalf("PeakRMS returned error: %v", err)
	}
	if peak != nil {
		t.Fatalf("expected absent peak, got %v", *peak)
	}
	if rms == nil || *rms != -21.4 {
		t.Fatalf("expected rms -21.4, got %v", rms)
	}
}

func TestPeakRMSUnparsableOverallFallsThrough(t *testing.T) {
	text := `[Parsed_astats_0 @ 0x1] Overall
[Parsed_astats_0 @ 0x1] Peak level dB: .-.
[Parsed_astats_0 @ 0x1] RMS level dB: ..
Peak level dB: -3.5
`
	peak, rms, err := extract.PeakRMS(text)
	if err != nil {
		t.Fatalf("PeakRMS returned error: %v", err)
	}
	if peak == nil || *peak != -3.5 {
		t.Fatalf("expected bare fallback peak -3.5, got %v", peak)
	}
	if rms != nil {
		t.Fatalf("expected absent rms, got %v", *rms)
	}
}

func TestPeakRMSNoValuesReturnsParseError(t *testing.T) {
	_, _, err := extract.PeakRMS("Output #0, null, to 'pipe:':\n")
	var parseErr *extract.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if parseErr.Kind != extract.KindPeakRMS {
		t.Fatalf("unexpected kind: %q", parseErr.Kind)
	}
}

func TestHighpassRMSUsesSecondInstanceBlock(t *testing.T) {
	if value := extract.HighpassRMS(highpassOutput); value != -82.517890 {
		t.Fatalf("expected overall band rms -82.517890, got %v", value)
	}
}

func TestHighpassRMSFallsBackToLastBareValue(t *testing.T) {
	text := "RMS level dB: -70.1\nRMS level dB: -75.2\n"
	if value := extract.HighpassRMS(text); value != -75.2 {
		t.Fatalf("expected last bare rms -75.2, got %v", value)
	}
}

func TestHighpassRMSSilentBandYieldsSentinel(t *testing.T) {
	text := "stream mapping:\n  Stream #0:0 -> #0:0 (pcm_s16le -> pcm_s16le)\n"
	if value := extract.HighpassRMS(text); value != extract.SilenceFloorDb {
		t.Fatalf("expected sentinel %v, got %v", extract.SilenceFloorDb, value)
	}
	if extract.SilenceFloorDb != -144.0 {
		t.Fatalf("sentinel constant drifted: %v", extract.SilenceFloorDb)
	}
}
