package config

import (
	"errors"
	"fmt"
)

// MaxRetriesLimit bounds the retry count a job may configure.
const MaxRetriesLimit = 1000

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing the problems.
func Validate(cfg *Config) error {
	var errs []error

	// Either ad-hoc commands or a jobs file is required.
	if cfg.JobsFile == "" && len(cfg.Commands) == 0 && !cfg.Watchdog.External() {
		errs = append(errs, ValidationError{
			Field:   "commands",
			Message: "at least one command (or -jobs/-external-check) is required",
		})
	}

	if cfg.JobsFile != "" && cfg.Job == "" {
		errs = append(errs, ValidationError{
			Field:   "job",
			Message: "-jobs requires -job <id>",
		})
	}
	if cfg.JobsFile == "" && cfg.Job != "" {
		errs = append(errs, ValidationError{
			Field:   "jobs",
			Message: "-job requires -jobs <file>",
		})
	}

	errs = append(errs, validateWatchdog(cfg.Watchdog)...)

	// Log format must be valid
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ValidateJob checks a job definition loaded from a jobs file.
func ValidateJob(j Job) error {
	var errs []error

	if len(j.Commands) == 0 && !j.Watchdog.External() {
		errs = append(errs, ValidationError{
			Field:   "commands",
			Message: fmt.Sprintf("job %q requires non-empty commands", j.ID),
		})
	}

	errs = append(errs, validateWatchdog(j.Watchdog)...)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validateWatchdog(w Watchdog) []error {
	var errs []error

	if w.MaxRetries < 0 {
		errs = append(errs, ValidationError{
			Field:   "max_retries",
			Message: "must not be negative",
		})
	}
	if w.MaxRetries > MaxRetriesLimit {
		errs = append(errs, ValidationError{
			Field:   "max_retries",
			Message: fmt.Sprintf("too large (limit %d)", MaxRetriesLimit),
		})
	}

	// A kill command is only meaningful in external mode.
	if w.ExternalKillCmd != "" && w.ExternalCheckCmd == "" {
		errs = append(errs, ValidationError{
			Field:   "external_kill_cmd",
			Message: "requires external_check_cmd",
		})
	}

	for _, p := range w.StatPatterns {
		if p.Label == "" {
			errs = append(errs, ValidationError{
				Field:   "stats",
				Message: "stat pattern requires a label",
			})
		}
	}

	return errs
}
