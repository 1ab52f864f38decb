// =============================================================================
// Record Normalizer - Configuration Module
// =============================================================================
//
// This module loads the optional YAML configuration file. Every setting has a
// default, so running without a configuration file reproduces the built-in
// behavior exactly.
//
// CONFIGURATION FILE (all keys optional):
//
//   timestamp:
//     layout: "1/2/06 3:04:05 PM"
//   csv:
//     delimiter: ","
//     encoding: "UTF-8"
//     lazy_quotes: false
//   xlsx:
//     sheet: ""
//     date_layout: ""   # defaults to timestamp.layout
//   log:
//     level: "warn"
//     format: "console"
//   metrics_file: ""
//
// The column order and the source/target time zones are fixed and cannot be
// configured.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// Timestamp contains settings for the Timestamp column.
	Timestamp TimestampSettings `yaml:"timestamp"`

	// CSV contains settings for decoding and encoding the tabular stream.
	CSV CSVSettings `yaml:"csv"`

	// XLSX contains settings for workbook input.
	XLSX XLSXSettings `yaml:"xlsx"`

	// Log controls the structured logger.
	Log LogSettings `yaml:"log"`

	// MetricsFile is the path of a Prometheus textfile written at the end
	// of a run. Empty disables the export.
	MetricsFile string `yaml:"metrics_file"`
}

// TimestampSettings contains settings for the Timestamp column.
type TimestampSettings struct {
	// Layout is the Go reference layout input timestamps are written in.
	// Default: "1/2/06 3:04:05 PM" (month/day/2-digit-year)
	// Use "2006-01-02 3:04:05 PM" for year-month-day input.
	Layout string `yaml:"layout"`
}

// CSVSettings contains settings for the character-separated stream.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Common values: "," (comma), "|" (pipe), "\t" (tab)
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Encoding is the character encoding of the input stream.
	// Common values: "UTF-8", "ISO-8859-1", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// LazyQuotes accepts quotes in unquoted fields and non-doubled quotes
	// in quoted fields.
	// Default: false
	LazyQuotes bool `yaml:"lazy_quotes"`
}

// XLSXSettings contains settings for workbook input.
type XLSXSettings struct {
	// Sheet is the worksheet to read. Empty selects the first sheet.
	Sheet string `yaml:"sheet"`

	// DateLayout is the Go layout date-formatted cells are rendered with.
	// Default: the timestamp layout
	DateLayout string `yaml:"date_layout"`
}

// LogSettings controls the structured logger.
type LogSettings struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: "warn"
	Level string `yaml:"level"`

	// Format is "console" or "json".
	// Default: "console"
	Format string `yaml:"format"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load loads the configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. Empty means defaults.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file cannot be read, parsed, or validated.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses, defaults, and validates configuration bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.Timestamp.Layout == "" {
		cfg.Timestamp.Layout = "1/2/06 3:04:05 PM"
	}
	if cfg.XLSX.DateLayout == "" {
		cfg.XLSX.DateLayout = cfg.Timestamp.Layout
	}
	if cfg.CSV.Delimiter == "" {
		cfg.CSV.Delimiter = ","
	}
	if cfg.CSV.Encoding == "" {
		cfg.CSV.Encoding = "UTF-8"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// Validate checks settings that can be verified without opening any stream.
// Delimiter and encoding names are checked by the parser that consumes them.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateLayout(cfg.Timestamp.Layout); err != nil {
		errs = append(errs, err)
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.Log.Level))
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", cfg.Log.Format))
	}

	return errors.Join(errs...)
}

// validateLayout rejects layouts that lose information when a timestamp is
// formatted and parsed back.
func validateLayout(layout string) error {
	sample := time.Date(2009, time.November, 10, 23, 4, 5, 0, time.UTC)

	parsed, err := time.Parse(layout, sample.Format(layout))
	if err != nil {
		return fmt.Errorf("timestamp.layout %q cannot parse its own output: %w", layout, err)
	}
	if !parsed.Equal(sample) {
		return fmt.Errorf("timestamp.layout %q does not carry a full date and time of day", layout)
	}
	return nil
}
