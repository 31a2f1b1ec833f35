package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeAnalyzer()
	c.normalizeFFmpeg()
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	c.normalizeReport()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	c.applyEnvOverrides()
	return nil
}

func (c *Config) normalizeAnalyzer() {
	if len(c.Analyzer.Extensions) == 0 {
		c.Analyzer.Extensions = defaultExtensions()
		return
	}
	exts := make([]string, 0, len(c.Analyzer.Extensions))
	seen := make(map[string]struct{}, len(c.Analyzer.Extensions))
	for _, ext := range c.Analyzer.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		normalized = strings.TrimPrefix(normalized, ".")
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	c.Analyzer.Extensions = exts
	if c.Analyzer.Workers < 0 {
		c.Analyzer.Workers = 0
	}
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = defaultFFmpegBinary
	}
	c.FFmpeg.LogLevel = strings.ToLower(strings.TrimSpace(c.FFmpeg.LogLevel))
	if c.FFmpeg.LogLevel == "" {
		c.FFmpeg.LogLevel = defaultFFmpegLogLevel
	}
	if c.FFmpeg.TimeoutSeconds <= 0 {
		c.FFmpeg.TimeoutSeconds = defaultFFmpegTimeoutSeconds
	}
}

func (c *Config) normalizeOutput() error {
	var err error
	c.Output.Directory = strings.TrimSpace(c.Output.Directory)
	if c.Output.Directory != "" {
		if c.Output.Directory, err = expandPath(c.Output.Directory); err != nil {
			return fmt.Errorf("output.directory: %w", err)
		}
	}
	c.Output.JSONFilename = strings.TrimSpace(c.Output.JSONFilename)
	if c.Output.JSONFilename == "" {
		c.Output.JSONFilename = defaultJSONFilename
	}
	c.Output.CSVFilename = strings.TrimSpace(c.Output.CSVFilename)
	if c.Output.CSVFilename == "" {
		c.Output.CSVFilename = defaultCSVFilename
	}
	return nil
}

func (c *Config) normalizeReport() {
	c.Report.Command = strings.TrimSpace(c.Report.Command)
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File != "" {
		expanded, err := expandPath(c.Logging.File)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}

// applyEnvOverrides honours the AUDIO_ANALYZER_* environment variables,
// which win over file values.
func (c *Config) applyEnvOverrides() {
	if value, ok := os.LookupEnv("AUDIO_ANALYZER_THREADS"); ok {
		if workers, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && workers > 0 {
			c.Analyzer.Workers = workers
		}
	}
	if value, ok := os.LookupEnv("AUDIO_ANALYZER_VERBOSE"); ok {
		trimmed := strings.TrimSpace(value)
		if strings.EqualFold(trimmed, "true") || trimmed == "1" {
			c.Logging.Level = "debug"
		}
	}
}
