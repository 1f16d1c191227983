package spawn

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/shlex"

	"github.com/randomizedcoder/go-cmd-watchdog/internal/config"
	"github.com/randomizedcoder/go-cmd-watchdog/internal/ringlog"
)

const (
	// pollInterval bounds cancellation latency: exit polling and backoff
	// sleeps are chunked at this granularity.
	pollInterval = 50 * time.Millisecond

	// maxLineLength is the longest output line read before the scanner
	// splits it.
	maxLineLength = 64 * 1024
)

// Callbacks contains optional hooks for spawner events.
type Callbacks struct {
	// OnAttempt is called after each attempt with its outcome.
	OnAttempt func(cmdline string, exitCode int, success bool, uptime time.Duration)

	// OnRetry is called before a retry backoff sleep.
	OnRetry func(cmdline string, attempt int, delay time.Duration)
}

// Spawner runs one command line to completion with retries, capturing
// stdout and stderr into a shared ring buffer log.
type Spawner struct {
	env       Env
	logger    *slog.Logger
	callbacks Callbacks
}

// New creates a Spawner. A nil env resolves against the process
// environment; a nil logger discards nothing and defaults to slog.Default.
func New(env Env, logger *slog.Logger) *Spawner {
	if env == nil {
		env = OSEnv{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Spawner{env: env, logger: logger}
}

// SetCallbacks registers event hooks. Must be called before RunWithRetries.
func (s *Spawner) SetCallbacks(cb Callbacks) {
	s.callbacks = cb
}

// RunWithRetries runs the command line until it succeeds, retries are
// exhausted, or stop is set. The template is re-expanded on every
// attempt. Every terminal outcome appends a line to out before returning,
// so the log is the authoritative record of what happened.
func (s *Spawner) RunWithRetries(out *ringlog.Log, cmdline string, policy config.Watchdog, stop *atomic.Bool) bool {
	attempt := 0
	for {
		if stop.Load() {
			out.Append("[stopped]")
			return false
		}

		start := time.Now()
		code, exited := s.runOnce(out, cmdline, stop)
		uptime := time.Since(start)
		success := exited && policy.Allows(code)

		if s.callbacks.OnAttempt != nil {
			s.callbacks.OnAttempt(cmdline, code, success, uptime)
		}
		s.logger.Debug("attempt_finished",
			"cmdline", cmdline,
			"attempt", attempt,
			"exit_code", code,
			"exited", exited,
			"success", success,
			"uptime", uptime.String(),
		)

		if success {
			out.Append("[done]")
			return true
		}

		if stop.Load() {
			out.Append("[stopped]")
			return false
		}

		if policy.AutoRestart && attempt < policy.MaxRetries {
			next := attempt + 1
			delay := policy.RestartDelay()
			out.Append(fmt.Sprintf("[retry %d/%d in %dms]", next, policy.MaxRetries, policy.RestartDelayMs))
			if s.callbacks.OnRetry != nil {
				s.callbacks.OnRetry(cmdline, next, delay)
			}
			if !sleepWithStop(delay, stop) {
				out.Append("[stopped]")
				return false
			}
			attempt = next
			continue
		}

		out.Append("[panic: retries exhausted]")
		s.logger.Warn("retries_exhausted", "cmdline", cmdline, "attempts", attempt+1)
		if policy.PanicExitCmd != "" {
			out.Append("[panic hook] running: " + policy.PanicExitCmd)
			s.RunQuiet(policy.PanicExitCmd)
		}
		return false
	}
}

// runOnce spawns the command once and waits for it to exit, polling every
// pollInterval so a stop request is observed promptly. Returns the exit
// code and whether an exit code was present (a signal-terminated or
// unspawnable process has none).
func (s *Spawner) runOnce(out *ringlog.Log, cmdline string, stop *atomic.Bool) (int, bool) {
	cmd, err := s.buildCommand(cmdline)
	if err != nil {
		out.Append("[error] empty command")
		return 0, false
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		out.Append("[spawn error] " + err.Error())
		return 0, false
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		out.Append("[spawn error] " + err.Error())
		return 0, false
	}

	if err := cmd.Start(); err != nil {
		out.Append("[spawn error] " + err.Error())
		return 0, false
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		readLines(stdout, out, "")
	}()
	go func() {
		defer readers.Done()
		readLines(stderr, out, "[stderr] ")
	}()

	// Readers must drain before Wait reaps the pipes.
	type waitResult struct {
		code   int
		exited bool
	}
	waitCh := make(chan waitResult, 1)
	go func() {
		readers.Wait()
		code, exited := exitStatus(cmd.Wait())
		waitCh <- waitResult{code: code, exited: exited}
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case r := <-waitCh:
			return r.code, r.exited
		case <-ticker.C:
			if stop.Load() {
				s.kill(cmd)
			}
		}
	}
}

// buildCommand expands and tokenizes the command line into an exec.Cmd
// with the marker variable injected and its own process group.
func (s *Spawner) buildCommand(cmdline string) (*exec.Cmd, error) {
	expanded := ExpandVars(cmdline, s.env)
	parts, err := shlex.Split(expanded)
	if err != nil {
		return nil, fmt.Errorf("tokenize %q: %w", cmdline, err)
	}
	if len(parts) == 0 {
		return nil, errors.New("empty command")
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Env = append(os.Environ(), MarkerEnv+"=1")
	// Own process group so a kill reaches shell-spawned descendants.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return cmd, nil
}

// kill forcibly terminates the child, preferring its process group.
func (s *Spawner) kill(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if pgid, err := syscall.Getpgid(cmd.Process.Pid); err == nil {
		syscall.Kill(-pgid, syscall.SIGKILL)
		return
	}
	cmd.Process.Kill()
}

// RunQuiet executes a command line with output discarded, returning the
// exit code and whether one was present. Used for the panic-exit hook and
// the external-mode check/kill commands.
func (s *Spawner) RunQuiet(cmdline string) (int, bool) {
	cmd, err := s.buildCommand(cmdline)
	if err != nil {
		return 0, false
	}
	return exitStatus(cmd.Run())
}

// readLines appends each line from r to out, prefixed to tag the stream.
func readLines(r io.Reader, out *ringlog.Log, prefix string) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		out.Append(prefix + scanner.Text())
	}
}

// sleepWithStop sleeps for d in pollInterval increments, returning false
// as soon as stop is observed.
func sleepWithStop(d time.Duration, stop *atomic.Bool) bool {
	var waited time.Duration
	for waited < d {
		if stop.Load() {
			return false
		}
		step := pollInterval
		if remaining := d - waited; remaining < step {
			step = remaining
		}
		time.Sleep(step)
		waited += step
	}
	return !stop.Load()
}

// exitStatus extracts the exit code from a Wait/Run error. The second
// return is false when the process never exited normally (spawn failure
// or signal termination), which counts as failure regardless of the
// allowed exit codes.
func exitStatus(err error) (int, bool) {
	if err == nil {
		return 0, true
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Exited() {
			return status.ExitStatus(), true
		}
		return 0, false
	}

	return 0, false
}
