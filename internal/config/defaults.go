package config

import "runtime"

const (
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFmpegLogLevel       = "info"
	defaultFFmpegTimeoutSeconds = 300
	defaultJSONFilename         = "analysis_data.json"
	defaultCSVFilename          = "audio_quality_report.csv"
	defaultHistoryPath          = "~/.local/share/audio-analyzer/history.db"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"

	defaultSpectralExcellentDb = -85.0
	defaultSpectralGoodDb      = -80.0
	defaultSpectralMediumDb    = -70.0
	defaultLRAPoorMax          = 3.0
	defaultLRALowMax           = 6.0
	defaultLRAExcellentMin     = 8.0
	defaultLRAExcellentMax     = 12.0
	defaultLRAAcceptableMax    = 15.0
	defaultLRATooHighMin       = 20.0
	defaultPeakClippingDb      = -0.1
	defaultPeakGoodDb          = -6.0
	defaultPeakMediumDb        = -3.0
)

func defaultExtensions() []string {
	return []string{"wav", "mp3", "m4a", "flac", "aac", "ogg", "opus", "wma", "aiff", "alac"}
}

func availableWorkers() int {
	return runtime.NumCPU()
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Analyzer: Analyzer{
			Extensions:   defaultExtensions(),
			Workers:      0,
			ShowProgress: true,
		},
		FFmpeg: FFmpeg{
			Binary:         defaultFFmpegBinary,
			LogLevel:       defaultFFmpegLogLevel,
			HideBanner:     true,
			TimeoutSeconds: defaultFFmpegTimeoutSeconds,
		},
		Output: Output{
			JSONFilename: defaultJSONFilename,
			CSVFilename:  defaultCSVFilename,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Quality: Quality{
			SpectralExcellentDb: defaultSpectralExcellentDb,
			SpectralGoodDb:      defaultSpectralGoodDb,
			SpectralMediumDb:    defaultSpectralMediumDb,
			LRAPoorMax:          defaultLRAPoorMax,
			LRALowMax:           defaultLRALowMax,
			LRAExcellentMin:     defaultLRAExcellentMin,
			LRAExcellentMax:     defaultLRAExcellentMax,
			LRAAcceptableMax:    defaultLRAAcceptableMax,
			LRATooHighMin:       defaultLRATooHighMin,
			PeakClippingDb:      defaultPeakClippingDb,
			PeakGoodDb:          defaultPeakGoodDb,
			PeakMediumDb:        defaultPeakMediumDb,
		},
	}
}
