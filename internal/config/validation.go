package config

import (
	"fmt"
	"strings"
)

// ValidationError is one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field and returns ValidationErrors when any is
// invalid.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Prune.Tolerance < 0 {
		add("prune.tolerance", "must not be negative, got %g", c.Prune.Tolerance)
	}
	if c.Outcome.ReviewThreshold < 0 || c.Outcome.ReviewThreshold > 100 {
		add("outcome.review_threshold", "must be within 0..100, got %g", c.Outcome.ReviewThreshold)
	}
	if strings.TrimSpace(c.Cleaner.OutputDirName) == "" {
		add("cleaner.output_dir_name", "must not be empty")
	}
	if strings.ContainsAny(c.Cleaner.OutputDirName, `/\`) {
		add("cleaner.output_dir_name", "must be a single folder name, got %q", c.Cleaner.OutputDirName)
	}
	if len(c.Cleaner.Extensions) == 0 {
		add("cleaner.extensions", "must list at least one extension")
	}
	for _, ext := range c.Cleaner.Extensions {
		if !strings.HasPrefix(ext, ".") {
			add("cleaner.extensions", "%q must start with a dot", ext)
		}
	}
	if c.Cleaner.OpenAttempts < 1 {
		add("cleaner.open_attempts", "must be at least 1, got %d", c.Cleaner.OpenAttempts)
	}
	if c.Cleaner.RetryDelayMs < 0 {
		add("cleaner.retry_delay_ms", "must not be negative")
	}
	if c.History.Enabled && c.History.Path == "" {
		add("history.path", "required when history is enabled")
	}
	if c.Watch.DebounceMs < 0 {
		add("watch.debounce_ms", "must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("log.level", "unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		add("log.format", "must be console or json, got %q", c.Log.Format)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
