// Package main provides the go-cmd-watchdog CLI entry point.
//
// go-cmd-watchdog supervises one or more command lines with retry and
// backoff, showing their output in a live terminal dashboard. It can
// also watch an externally managed process instead of spawning its own.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/randomizedcoder/go-cmd-watchdog/internal/config"
	"github.com/randomizedcoder/go-cmd-watchdog/internal/logging"
	"github.com/randomizedcoder/go-cmd-watchdog/internal/metrics"
	"github.com/randomizedcoder/go-cmd-watchdog/internal/preflight"
	"github.com/randomizedcoder/go-cmd-watchdog/internal/spawn"
	"github.com/randomizedcoder/go-cmd-watchdog/internal/stats"
	"github.com/randomizedcoder/go-cmd-watchdog/internal/supervisor"
	"github.com/randomizedcoder/go-cmd-watchdog/internal/tui"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/go-cmd-watchdog
var version = "dev"

// defaultJobID names the session when no jobs file is used.
const defaultJobID = "default"

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("go-cmd-watchdog %s\n", version)
			return 0
		}
	}

	// Parse command-line flags
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	// Initialize logger
	// When TUI is enabled, suppress logs to avoid interfering with TUI rendering
	var logger *slog.Logger
	if cfg.TUIEnabled {
		logger = logging.NewLoggerWithWriter(io.Discard, "json", "info")
	} else {
		logger = logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose)
	}
	logging.SetDefault(logger)

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	// Resolve the job to run: a named job from the jobs file, or an
	// ad-hoc session built from positional arguments and flags.
	jobID := defaultJobID
	commands := cfg.Commands
	policy := cfg.Watchdog
	if cfg.JobsFile != "" {
		jobs, err := config.LoadJobs(cfg.JobsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Jobs file error: %v\n", err)
			return 1
		}
		job, err := config.FindJob(jobs, cfg.Job)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Jobs file error: %v\n", err)
			return 1
		}
		if err := config.ValidateJob(job); err != nil {
			fmt.Fprintf(os.Stderr, "Job %q error: %v\n", job.ID, err)
			return 1
		}
		jobID = job.ID
		commands = job.Commands
		policy = job.Watchdog
	}

	if !policy.External() {
		pf := preflight.RunAll(commands, spawn.OSEnv{})
		for _, c := range pf.Checks {
			if c.Warning || !c.Passed {
				logger.Warn("preflight", "check", c.Name, "message", c.Message)
			}
		}
		if !pf.Passed && !cfg.TUIEnabled {
			fmt.Fprintln(os.Stderr, "Preflight:")
			for _, c := range pf.Checks {
				fmt.Fprintln(os.Stderr, c)
			}
		}
	}

	logger.Info("starting",
		"version", version,
		"job", jobID,
		"commands", len(commands),
		"sequential", policy.Sequential,
		"external", policy.External(),
		"metrics_addr", cfg.MetricsAddr,
	)

	// Optional Prometheus endpoint
	var collector *metrics.Collector
	var server *metrics.Server
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector = metrics.NewCollector(reg)
		server = metrics.NewServer(cfg.MetricsAddr, reg, logger)
		server.Start()
	}

	durations := stats.NewDurations()
	callbacks := supervisor.Callbacks{
		OnAttempt: func(cmdline string, exitCode int, success bool, uptime time.Duration) {
			durations.Observe(uptime)
			if collector != nil {
				collector.AttemptDone(jobID, success, uptime)
			}
			logger.Debug("attempt_done",
				"cmdline", cmdline, "exit_code", exitCode,
				"success", success, "uptime", uptime)
		},
		OnRetry: func(cmdline string, attempt int, delay time.Duration) {
			if collector != nil {
				collector.RetryScheduled(jobID)
			}
			logger.Debug("retry_scheduled",
				"cmdline", cmdline, "attempt", attempt, "delay", delay)
		},
		OnExternalTransition: func(running bool) {
			if collector != nil {
				collector.ExternalTransition(jobID, running)
			}
			logger.Info("external_transition", "running", running)
		},
	}

	registry := supervisor.NewRegistry()
	sup, created := registry.GetOrCreate(jobID, func() *supervisor.Supervisor {
		return supervisor.New(commands, policy, supervisor.Options{
			Logger:    logger,
			Callbacks: callbacks,
		})
	})
	if !created {
		sup.NoteReattach()
	}
	if collector != nil {
		collector.SetStarted(jobID, sup.Started())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.TUIEnabled {
		agg := stats.NewAggregator(policy.StatPatterns, len(commands))
		model := tui.New(tui.Config{
			JobID:       jobID,
			MetricsAddr: cfg.MetricsAddr,
			Supervisor:  sup,
			Aggregator:  agg,
			Durations:   durations,
		})
		p := tea.NewProgram(model, tea.WithAltScreen())
		tuiCtx, tuiDone := context.WithCancel(ctx)
		g.Go(func() error {
			defer tuiDone()
			_, err := p.Run()
			return err
		})
		g.Go(func() error {
			// Unblocks on signal or when the TUI exits on its own.
			<-tuiCtx.Done()
			tui.SendQuit(p)
			return nil
		})
	} else {
		g.Go(func() error {
			if sup.External() {
				// Liveness polling runs until interrupted.
				<-ctx.Done()
				return nil
			}
			done := make(chan struct{})
			go func() {
				sup.Wait()
				close(done)
			}()
			select {
			case <-ctx.Done():
			case <-done:
			}
			return nil
		})
	}

	runErr := g.Wait()

	sup.StopAll()
	if collector != nil {
		collector.SetStarted(jobID, false)
	}
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics_shutdown_failed", "error", err)
		}
	}

	if !cfg.TUIEnabled {
		printTails(sup)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("run_failed", "error", runErr)
		return 1
	}
	return 0
}

// printTails dumps the last lines of every command log on exit, so a
// headless run still shows what happened.
func printTails(sup *supervisor.Supervisor) {
	for _, c := range sup.Commands() {
		fmt.Printf("--- %s ---\n", c.Cmdline)
		for _, line := range c.Log.Tail(20) {
			fmt.Println(line)
		}
	}
}
