package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Analyzer contains scan and batch settings.
type Analyzer struct {
	// Extensions is the case-insensitive allow-list of audio file extensions,
	// stored without leading dots.
	Extensions []string `toml:"extensions"`
	// Workers bounds batch parallelism. Zero means one worker per CPU.
	Workers      int  `toml:"workers"`
	ShowProgress bool `toml:"show_progress"`
}

// FFmpeg contains settings for the external analysis binary.
type FFmpeg struct {
	Binary         string `toml:"binary"`
	LogLevel       string `toml:"log_level"`
	HideBanner     bool   `toml:"hide_banner"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Output contains dataset and report file placement.
type Output struct {
	// Directory receives the dataset and report files. Empty places
	// them alongside the analyzed directory.
	Directory    string `toml:"directory"`
	JSONFilename string `toml:"json_filename"`
	CSVFilename  string `toml:"csv_filename"`
}

// Report contains configuration for the downstream report generator.
type Report struct {
	// Command is the report generator executable. Empty disables the
	// report stage; the dataset is still produced.
	Command string `toml:"command"`
}

// History contains configuration for the run-history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// File, when set, receives a copy of every log line in addition to
	// console output.
	File string `toml:"file"`
}

// Quality contains the named numeric boundaries handed to the reporting
// side. The extraction pipeline never compares against them.
type Quality struct {
	SpectralExcellentDb float64 `toml:"spectral_excellent_db"`
	SpectralGoodDb      float64 `toml:"spectral_good_db"`
	SpectralMediumDb    float64 `toml:"spectral_medium_db"`
	LRAPoorMax          float64 `toml:"lra_poor_max"`
	LRALowMax           float64 `toml:"lra_low_max"`
	LRAExcellentMin     float64 `toml:"lra_excellent_min"`
	LRAExcellentMax     float64 `toml:"lra_excellent_max"`
	LRAAcceptableMax    float64 `toml:"lra_acceptable_max"`
	LRATooHighMin       float64 `toml:"lra_too_high_min"`
	PeakClippingDb      float64 `toml:"peak_clipping_db"`
	PeakGoodDb          float64 `toml:"peak_good_db"`
	PeakMediumDb        float64 `toml:"peak_medium_db"`
}

// Config encapsulates all configuration values for the analyzer.
//
// Configuration sections by subsystem:
//   - Analyzer: extension allow-list and batch parallelism
//   - FFmpeg: binary, verbosity, and per-probe timeout
//   - Output: dataset and report file placement
//   - Report: downstream report generator command
//   - History: SQLite run-history database
//   - Logging: log format, level, and optional file copy
//   - Quality: threshold boundaries serialized for the reporting side
type Config struct {
	Analyzer Analyzer `toml:"analyzer"`
	FFmpeg   FFmpeg   `toml:"ffmpeg"`
	Output   Output   `toml:"output"`
	Report   Report   `toml:"report"`
	History  History  `toml:"history"`
	Logging  Logging  `toml:"logging"`
	Quality  Quality  `toml:"quality"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/audio-analyzer/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized, with environment
// overrides applied. A missing file is not an error; defaults apply.
func Load(path string) (*Config, string, bool, error) {
	// A .env file in the working directory supplies AUDIO_ANALYZER_*
	// variables without touching the real environment setup.
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("audio-analyzer.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	if c.Output.Directory != "" {
		if err := os.MkdirAll(c.Output.Directory, 0o755); err != nil {
			return fmt.Errorf("create output directory %q: %w", c.Output.Directory, err)
		}
	}
	if c.History.Enabled {
		if err := os.MkdirAll(filepath.Dir(c.History.Path), 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}
	return nil
}

// EffectiveWorkers resolves the configured worker count, substituting the
// CPU count when unset.
func (c *Config) EffectiveWorkers() int {
	if c.Analyzer.Workers > 0 {
		return c.Analyzer.Workers
	}
	return availableWorkers()
}

// ProbeTimeout returns the per-probe timeout as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.FFmpeg.TimeoutSeconds) * time.Second
}

// OutputDir resolves where run artifacts land for a scan rooted at
// root. An empty configured directory means alongside the root.
func (c *Config) OutputDir(root string) string {
	if c.Output.Directory != "" {
		return c.Output.Directory
	}
	return root
}

// DatasetPath returns the resolved path of the JSON dataset file for a
// scan rooted at root.
func (c *Config) DatasetPath(root string) string {
	return filepath.Join(c.OutputDir(root), c.Output.JSONFilename)
}

// ReportPath returns the resolved path of the generated report file
// for a scan rooted at root.
func (c *Config) ReportPath(root string) string {
	return filepath.Join(c.OutputDir(root), c.Output.CSVFilename)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
