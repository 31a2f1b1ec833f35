package config

import (
	"errors"
	"fmt"
	"strings"
)

var ffmpegLogLevels = map[string]struct{}{
	"quiet":   {},
	"panic":   {},
	"fatal":   {},
	"error":   {},
	"warning": {},
	"info":    {},
	"verbose": {},
	"debug":   {},
	"trace":   {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAnalyzer(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateQuality(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAnalyzer() error {
	if len(c.Analyzer.Extensions) == 0 {
		return errors.New("analyzer.extensions must include at least one extension")
	}
	if c.Analyzer.Workers < 0 {
		return errors.New("analyzer.workers must be >= 0")
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if strings.TrimSpace(c.FFmpeg.Binary) == "" {
		return errors.New("ffmpeg.binary must be set")
	}
	if c.FFmpeg.TimeoutSeconds <= 0 {
		return errors.New("ffmpeg.timeout_seconds must be positive")
	}
	if _, ok := ffmpegLogLevels[c.FFmpeg.LogLevel]; !ok {
		return fmt.Errorf("ffmpeg.log_level: unsupported value %q", c.FFmpeg.LogLevel)
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.JSONFilename == "" {
		return errors.New("output.json_filename must be set")
	}
	if c.Output.CSVFilename == "" {
		return errors.New("output.csv_filename must be set")
	}
	if c.Output.JSONFilename == c.Output.CSVFilename {
		return errors.New("output.json_filename and output.csv_filename must differ")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateQuality() error {
	q := c.Quality
	if q.LRAPoorMax >= q.LRALowMax {
		return errors.New("quality.lra_poor_max must be less than quality.lra_low_max")
	}
	if q.LRAExcellentMin >= q.LRAExcellentMax {
		return errors.New("quality.lra_excellent_min must be less than quality.lra_excellent_max")
	}
	if q.PeakGoodDb >= q.PeakMediumDb {
		return errors.New("quality.peak_good_db must be less than quality.peak_medium_db")
	}
	return nil
}
