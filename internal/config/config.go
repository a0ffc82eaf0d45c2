// Package config handles configuration loading and validation for
// frame-cleaner.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "FRAME_CLEANER_"

// Config holds the complete tool configuration.
type Config struct {
	// Detection tunes the border detectors.
	Detection DetectionConfig `toml:"detection" json:"detection" yaml:"detection"`

	// Prune tunes the pruner.
	Prune PruneConfig `toml:"prune" json:"prune" yaml:"prune"`

	// Outcome tunes the status classifier.
	Outcome OutcomeConfig `toml:"outcome" json:"outcome" yaml:"outcome"`

	// Cleaner configures per-file processing and folder batches.
	Cleaner CleanerConfig `toml:"cleaner" json:"cleaner" yaml:"cleaner"`

	// Report configures the audit reports written after a batch.
	Report ReportConfig `toml:"report" json:"report" yaml:"report"`

	// History configures the run history database.
	History HistoryConfig `toml:"history" json:"history" yaml:"history"`

	// HTTP configures the HTTP API.
	HTTP HTTPConfig `toml:"http" json:"http" yaml:"http"`

	// Watch configures the folder watcher.
	Watch WatchConfig `toml:"watch" json:"watch" yaml:"watch"`

	// Log configures logging.
	Log LogConfig `toml:"log" json:"log" yaml:"log"`
}

// DetectionConfig holds detector settings.
type DetectionConfig struct {
	// Parallel runs the primary detectors concurrently.
	Parallel bool `toml:"parallel" json:"parallel" yaml:"parallel"`

	// DisableLineFallback turns off the line-rectangle detector.
	DisableLineFallback bool `toml:"disable_line_fallback" json:"disable_line_fallback" yaml:"disable_line_fallback"`
}

// PruneConfig holds pruner settings.
type PruneConfig struct {
	// Tolerance is the slack in drawing units on each side of the frame.
	Tolerance float64 `toml:"tolerance" json:"tolerance" yaml:"tolerance"`
}

// OutcomeConfig holds classifier settings.
type OutcomeConfig struct {
	// ReviewThreshold is the delete percentage above which a file is
	// flagged for review.
	ReviewThreshold float64 `toml:"review_threshold" json:"review_threshold" yaml:"review_threshold"`
}

// CleanerConfig holds processing settings.
type CleanerConfig struct {
	// OutputDirName is the subfolder cleaned files are written to.
	OutputDirName string `toml:"output_dir_name" json:"output_dir_name" yaml:"output_dir_name"`

	// Extensions lists the drawing file extensions a folder batch picks up.
	Extensions []string `toml:"extensions" json:"extensions" yaml:"extensions"`

	// OpenAttempts is how many times opening a drawing is tried.
	OpenAttempts int `toml:"open_attempts" json:"open_attempts" yaml:"open_attempts"`

	// RetryDelayMs is the wait between open attempts in milliseconds.
	RetryDelayMs int `toml:"retry_delay_ms" json:"retry_delay_ms" yaml:"retry_delay_ms"`

	// Preview writes a PNG preview next to every cleaned file.
	Preview bool `toml:"preview" json:"preview" yaml:"preview"`
}

// RetryDelay returns RetryDelayMs as a duration.
func (c CleanerConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// ReportConfig holds report settings.
type ReportConfig struct {
	CSV  bool `toml:"csv" json:"csv" yaml:"csv"`
	HTML bool `toml:"html" json:"html" yaml:"html"`

	// Thumbnails embeds preview thumbnails in the HTML report when previews
	// are written.
	Thumbnails bool `toml:"thumbnails" json:"thumbnails" yaml:"thumbnails"`
}

// HistoryConfig holds run history settings.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `toml:"path" json:"path" yaml:"path"`
}

// HTTPConfig holds HTTP API settings.
type HTTPConfig struct {
	Addr string `toml:"addr" json:"addr" yaml:"addr"`
}

// WatchConfig holds folder watcher settings.
type WatchConfig struct {
	// DebounceMs is how long a new file must stay unchanged before it is
	// cleaned.
	DebounceMs int `toml:"debounce_ms" json:"debounce_ms" yaml:"debounce_ms"`
}

// Debounce returns DebounceMs as a duration.
func (c WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is console or json.
	Format string `toml:"format" json:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Prune:   PruneConfig{Tolerance: 1.0},
		Outcome: OutcomeConfig{ReviewThreshold: 50},
		Cleaner: CleanerConfig{
			OutputDirName: "CLEAN",
			Extensions:    []string{".json"},
			OpenAttempts:  3,
			RetryDelayMs:  5000,
		},
		Report:  ReportConfig{CSV: true, HTML: true, Thumbnails: true},
		History: HistoryConfig{Enabled: true, Path: DefaultHistoryPath()},
		HTTP:    HTTPConfig{Addr: "127.0.0.1:8765"},
		Watch:   WatchConfig{DebounceMs: 1000},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// DefaultHistoryPath returns the history database location under the user's
// cache directory, or a relative path when that is unknown.
func DefaultHistoryPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".frame-cleaner", "history.db")
	}
	return filepath.Join(dir, "frame-cleaner", "history.db")
}

// ApplyEnvOverrides applies FRAME_CLEANER_* environment variables on top of
// the loaded values. Unparseable numbers are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvPrefix + "HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv(EnvPrefix + "HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv(EnvPrefix + "OUTPUT_DIR"); v != "" {
		c.Cleaner.OutputDirName = v
	}
	if v := os.Getenv(EnvPrefix + "REVIEW_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Outcome.ReviewThreshold = f
		}
	}
	if v := os.Getenv(EnvPrefix + "OPEN_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cleaner.OpenAttempts = n
		}
	}
}
