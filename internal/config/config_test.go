package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Watchdog.AutoRestart {
		t.Error("AutoRestart should default to true")
	}
	if cfg.Watchdog.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Watchdog.MaxRetries)
	}
	if cfg.Watchdog.RestartDelayMs != 1000 {
		t.Errorf("RestartDelayMs = %d, want 1000", cfg.Watchdog.RestartDelayMs)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
	if !cfg.TUIEnabled {
		t.Error("TUIEnabled should default to true")
	}
}

func TestWatchdogAllows(t *testing.T) {
	tests := []struct {
		name    string
		allowed []int
		code    int
		want    bool
	}{
		{"empty set accepts zero", nil, 0, true},
		{"empty set accepts nonzero", nil, 42, true},
		{"member", []int{0, 2}, 2, true},
		{"non-member", []int{0}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Watchdog{AllowedExitCodes: tt.allowed}
			if got := w.Allows(tt.code); got != tt.want {
				t.Errorf("Allows(%d) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestWatchdogExternal(t *testing.T) {
	w := Watchdog{}
	if w.External() {
		t.Error("External() = true without check command")
	}
	w.ExternalCheckCmd = "pgrep -x nginx"
	if !w.External() {
		t.Error("External() = false with check command set")
	}
}

func TestRestartDelay(t *testing.T) {
	w := Watchdog{RestartDelayMs: 250}
	if got := w.RestartDelay(); got != 250*time.Millisecond {
		t.Errorf("RestartDelay() = %v, want 250ms", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string // substring of the error, empty = valid
	}{
		{
			name:   "valid ad-hoc",
			mutate: func(c *Config) { c.Commands = []string{"echo hi"} },
		},
		{
			name:    "no commands",
			mutate:  func(c *Config) {},
			wantErr: "at least one command",
		},
		{
			name:   "external mode without commands is fine",
			mutate: func(c *Config) { c.Watchdog.ExternalCheckCmd = "true" },
		},
		{
			name:    "jobs without job id",
			mutate:  func(c *Config) { c.JobsFile = "jobs.yaml" },
			wantErr: "-jobs requires -job",
		},
		{
			name: "job id without jobs file",
			mutate: func(c *Config) {
				c.Commands = []string{"echo hi"}
				c.Job = "x"
			},
			wantErr: "-job requires -jobs",
		},
		{
			name: "negative retries",
			mutate: func(c *Config) {
				c.Commands = []string{"echo hi"}
				c.Watchdog.MaxRetries = -1
			},
			wantErr: "must not be negative",
		},
		{
			name: "retries too large",
			mutate: func(c *Config) {
				c.Commands = []string{"echo hi"}
				c.Watchdog.MaxRetries = MaxRetriesLimit + 1
			},
			wantErr: "too large",
		},
		{
			name: "kill without check",
			mutate: func(c *Config) {
				c.Commands = []string{"echo hi"}
				c.Watchdog.ExternalKillCmd = "pkill x"
			},
			wantErr: "requires external_check_cmd",
		},
		{
			name: "bad log format",
			mutate: func(c *Config) {
				c.Commands = []string{"echo hi"}
				c.LogFormat = "xml"
			},
			wantErr: "'json' or 'text'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseJobs(t *testing.T) {
	data := []byte(`
jobs:
  - id: build-loop
    title: Build loop
    commands:
      - make build
      - make test
    watchdog:
      sequential: true
      auto_restart: true
      max_retries: 2
      restart_delay_ms: 500
      allowed_exit_codes: [0]
      stop_on_failure: true
      stats:
        - label: errors
          regexp: "ERROR"
  - id: watch-nginx
    commands: [nginx]
    watchdog:
      external_check_cmd: pgrep -x nginx
      external_kill_cmd: pkill -x nginx
`)

	jobs, err := ParseJobs(data)
	if err != nil {
		t.Fatalf("ParseJobs() error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}

	j := jobs[0]
	if j.ID != "build-loop" || !j.Watchdog.Sequential || !j.Watchdog.StopOnFailure {
		t.Errorf("unexpected job decode: %+v", j)
	}
	if j.Watchdog.MaxRetries != 2 || j.Watchdog.RestartDelayMs != 500 {
		t.Errorf("retry policy decode: %+v", j.Watchdog)
	}
	if len(j.Watchdog.StatPatterns) != 1 || j.Watchdog.StatPatterns[0].Label != "errors" {
		t.Errorf("stat patterns decode: %+v", j.Watchdog.StatPatterns)
	}

	if !jobs[1].Watchdog.External() {
		t.Error("second job should be external mode")
	}

	if _, err := FindJob(jobs, "watch-nginx"); err != nil {
		t.Errorf("FindJob(watch-nginx) error: %v", err)
	}
	if _, err := FindJob(jobs, "missing"); err == nil {
		t.Error("FindJob(missing) should fail")
	}
}

func TestParseJobsRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing id", "jobs:\n  - commands: [ls]\n", "missing id"},
		{"duplicate id", "jobs:\n  - id: a\n    commands: [ls]\n  - id: a\n    commands: [ls]\n", "duplicate id"},
		{"no commands", "jobs:\n  - id: a\n", "non-empty commands"},
		{"not yaml", "{{nope", "parse jobs file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJobs([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("ParseJobs() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}
