package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// statList is a custom flag type for repeatable -stat flags ("label=regexp").
type statList []StatPattern

func (s *statList) String() string {
	parts := make([]string, 0, len(*s))
	for _, p := range *s {
		parts = append(parts, p.Label+"="+p.Regexp)
	}
	return strings.Join(parts, ", ")
}

func (s *statList) Set(value string) error {
	label, re, ok := strings.Cut(value, "=")
	if !ok || label == "" {
		return fmt.Errorf("expected label=regexp, got %q", value)
	}
	*s = append(*s, StatPattern{Label: label, Regexp: re})
	return nil
}

// exitCodeList is a custom flag type for a comma-separated -allow-exit list.
type exitCodeList []int

func (e *exitCodeList) String() string {
	parts := make([]string, 0, len(*e))
	for _, c := range *e {
		parts = append(parts, strconv.Itoa(c))
	}
	return strings.Join(parts, ",")
}

func (e *exitCodeList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("invalid exit code %q", part)
		}
		*e = append(*e, code)
	}
	return nil
}

// ParseFlags parses command-line flags and returns a Config.
func ParseFlags() (*Config, error) {
	cfg := DefaultConfig()
	var stats statList
	var exitCodes exitCodeList

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `go-cmd-watchdog - supervise external commands with retry, backoff and live output

Usage:
  go-cmd-watchdog [flags] <command> [<command> ...]
  go-cmd-watchdog -jobs jobs.yaml -job <id> [flags]

Job Selection:
`)
		printFlagCategory([]string{"jobs", "job"})

		fmt.Fprintf(os.Stderr, "\nSupervision Policy (ad-hoc commands):\n")
		printFlagCategory([]string{"sequential", "auto-restart", "max-retries", "restart-delay-ms", "allow-exit", "stop-on-failure", "panic-exit-cmd", "stat"})

		fmt.Fprintf(os.Stderr, "\nExternal Mode:\n")
		printFlagCategory([]string{"external-check", "external-kill"})

		fmt.Fprintf(os.Stderr, "\nObservability:\n")
		printFlagCategory([]string{"metrics", "v", "log-format"})

		fmt.Fprintf(os.Stderr, "\nDashboard:\n")
		printFlagCategory([]string{"tui"})

		fmt.Fprintf(os.Stderr, `
Examples:
  # Supervise two commands in parallel, retry twice on failure
  go-cmd-watchdog -max-retries 2 'make serve' 'make worker'

  # Run a named job from a YAML file with the dashboard
  go-cmd-watchdog -jobs jobs.yaml -job build-loop

  # Watch a process this tool did not start
  go-cmd-watchdog -tui=false -external-check 'pgrep -x nginx' -external-kill 'pkill -x nginx' nginx

`)
	}

	// Job selection
	flag.StringVar(&cfg.JobsFile, "jobs", cfg.JobsFile, "YAML file with job definitions")
	flag.StringVar(&cfg.Job, "job", cfg.Job, "Job id to run from the jobs file")

	// Supervision policy
	flag.BoolVar(&cfg.Watchdog.Sequential, "sequential", cfg.Watchdog.Sequential, "Run commands one after another instead of in parallel")
	flag.BoolVar(&cfg.Watchdog.AutoRestart, "auto-restart", cfg.Watchdog.AutoRestart, "Retry failed commands")
	flag.IntVar(&cfg.Watchdog.MaxRetries, "max-retries", cfg.Watchdog.MaxRetries, "Retries per command before giving up")
	flag.Uint64Var(&cfg.Watchdog.RestartDelayMs, "restart-delay-ms", cfg.Watchdog.RestartDelayMs, "Delay between retries in milliseconds")
	flag.Var(&exitCodes, "allow-exit", "Comma-separated exit codes treated as success (empty = any)")
	flag.BoolVar(&cfg.Watchdog.StopOnFailure, "stop-on-failure", cfg.Watchdog.StopOnFailure, "Abort remaining commands when one fails (sequential only)")
	flag.StringVar(&cfg.Watchdog.PanicExitCmd, "panic-exit-cmd", cfg.Watchdog.PanicExitCmd, "Command to run once after retries are exhausted")
	flag.Var(&stats, "stat", "Count a pattern over output as label=regexp (can repeat)")

	// External mode
	flag.StringVar(&cfg.Watchdog.ExternalCheckCmd, "external-check", cfg.Watchdog.ExternalCheckCmd, "Liveness check command; exit 0 means the external process is running")
	flag.StringVar(&cfg.Watchdog.ExternalKillCmd, "external-kill", cfg.Watchdog.ExternalKillCmd, "Command to terminate the external process")

	// Observability
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics address (empty = disabled)")
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)

	// Dashboard
	flag.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Enable live terminal dashboard (use -tui=false to disable)")

	flag.Parse()

	cfg.Watchdog.StatPatterns = stats
	cfg.Watchdog.AllowedExitCodes = exitCodes

	// Positional arguments: ad-hoc command lines
	cfg.Commands = flag.Args()

	return cfg, nil
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(names []string) {
	flag.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				fmt.Fprintf(os.Stderr, "  -%s\n    \t%s", f.Name, f.Usage)
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
					fmt.Fprintf(os.Stderr, " (default %s)", f.DefValue)
				}
				fmt.Fprintln(os.Stderr)
				return
			}
		}
	})
}
