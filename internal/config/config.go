// Package config provides configuration management for go-cmd-watchdog.
package config

import "time"

// StatPattern is a labeled regular expression counted incrementally across
// command output.
type StatPattern struct {
	Label  string `yaml:"label"`
	Regexp string `yaml:"regexp"`
}

// Watchdog is the per-job supervision policy. It is treated as immutable
// once a session has been created from it.
type Watchdog struct {
	// Sequential runs commands one-after-another on a single goroutine
	// instead of concurrently.
	Sequential bool `yaml:"sequential"`

	// Retry policy
	AutoRestart    bool   `yaml:"auto_restart"`
	MaxRetries     int    `yaml:"max_retries"`
	RestartDelayMs uint64 `yaml:"restart_delay_ms"`

	// AllowedExitCodes lists the exit codes treated as success.
	// Empty means any exit code is accepted.
	AllowedExitCodes []int `yaml:"allowed_exit_codes"`

	// StopOnFailure aborts the remaining queue when a command fails.
	// Only meaningful when Sequential is set.
	StopOnFailure bool `yaml:"stop_on_failure"`

	// PanicExitCmd runs once, best-effort, after retries are exhausted.
	PanicExitCmd string `yaml:"panic_exit_cmd"`

	// StatPatterns are counted over the live output.
	StatPatterns []StatPattern `yaml:"stats"`

	// ExternalCheckCmd selects external mode: the session does not spawn
	// commands and instead polls this command to detect an externally
	// started process (exit code 0 = running). When set, every
	// spawn/retry field above is ignored.
	ExternalCheckCmd string `yaml:"external_check_cmd"`

	// ExternalKillCmd optionally terminates the external process.
	ExternalKillCmd string `yaml:"external_kill_cmd"`
}

// External reports whether the policy selects external mode.
func (w Watchdog) External() bool {
	return w.ExternalCheckCmd != ""
}

// Allows reports whether the exit code counts as success.
func (w Watchdog) Allows(code int) bool {
	if len(w.AllowedExitCodes) == 0 {
		return true
	}
	for _, c := range w.AllowedExitCodes {
		if c == code {
			return true
		}
	}
	return false
}

// RestartDelay returns the configured retry backoff as a duration.
func (w Watchdog) RestartDelay() time.Duration {
	return time.Duration(w.RestartDelayMs) * time.Millisecond
}

// Config holds all options for the go-cmd-watchdog CLI.
type Config struct {
	// Job selection
	JobsFile string   `json:"jobs_file"` // YAML job definitions
	Job      string   `json:"job"`       // job id to run from JobsFile
	Commands []string `json:"commands"`  // ad-hoc command lines (positional args)

	// Ad-hoc policy, used when no jobs file is given
	Watchdog Watchdog `json:"watchdog"`

	// Observability
	MetricsAddr string `json:"metrics_addr"` // empty = metrics server disabled
	Verbose     bool   `json:"verbose"`
	LogFormat   string `json:"log_format"` // json, text

	// Dashboard
	TUIEnabled bool `json:"tui"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Watchdog: Watchdog{
			AutoRestart:    true,
			MaxRetries:     3,
			RestartDelayMs: 1000,
		},

		MetricsAddr: "",
		Verbose:     false,
		LogFormat:   "json",

		TUIEnabled: true,
	}
}
