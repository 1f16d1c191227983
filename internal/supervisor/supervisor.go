// Package supervisor manages the lifecycle of one watchdog job: its
// command logs, supervision policy, worker goroutines, and the external
// liveness poller.
package supervisor

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randomizedcoder/go-cmd-watchdog/internal/config"
	"github.com/randomizedcoder/go-cmd-watchdog/internal/ringlog"
	"github.com/randomizedcoder/go-cmd-watchdog/internal/spawn"
)

// DefaultPollInterval is how often external mode probes the check command.
const DefaultPollInterval = 1000 * time.Millisecond

// pollTick bounds the poller's shutdown latency: the wait between probes
// is chunked at this granularity.
const pollTick = 50 * time.Millisecond

// ErrExternalRestart is returned when restart is requested in external
// mode. The watched process was not spawned by this system and cannot be
// restarted; the caller should surface a transient notice, not a failure.
var ErrExternalRestart = errors.New("restart not supported in external mode")

// CommandLog pairs a command line template with its live output log.
// The template is re-expanded on every attempt; the log is shared with
// the renderer and the stats aggregator.
type CommandLog struct {
	Cmdline string
	Log     *ringlog.Log
}

// Callbacks contains optional hooks for supervisor events.
type Callbacks struct {
	// OnAttempt is called after each spawn attempt with its outcome.
	OnAttempt func(cmdline string, exitCode int, success bool, uptime time.Duration)

	// OnRetry is called before a retry backoff sleep.
	OnRetry func(cmdline string, attempt int, delay time.Duration)

	// OnExternalTransition is called when the external liveness state
	// changes (not on every poll).
	OnExternalTransition func(running bool)
}

// Options configures a Supervisor beyond its commands and policy.
type Options struct {
	// Env resolves ${VAR} placeholders. Nil uses the process environment.
	Env spawn.Env

	// Logger for structured events. Nil uses slog.Default.
	Logger *slog.Logger

	// Callbacks for metrics and stats wiring.
	Callbacks Callbacks

	// LogCapacity per command log. Zero selects ringlog.DefaultCapacity.
	LogCapacity int

	// PollInterval between external liveness probes. Zero selects
	// DefaultPollInterval.
	PollInterval time.Duration
}

// Supervisor is the single control surface for one job. It is the unit of
// sharing: the rendering widget and the job registry hold the same handle,
// and all control-field access goes through internal locks so background
// workers and the render loop never race.
type Supervisor struct {
	commands []CommandLog
	policy   config.Watchdog
	spawner  *spawn.Spawner
	logger   *slog.Logger

	// opMu serializes Start/StopAll/RestartAll, which join goroutines.
	opMu sync.Mutex

	// mu guards the control fields read by the render path.
	mu              sync.Mutex
	started         bool
	externalRunning bool

	stops     []*atomic.Bool // one per command, reused by both modes
	workersWg sync.WaitGroup

	external bool
	detector spawn.Detector
	killer   spawn.Killer
	pollStop atomic.Bool
	pollWg   sync.WaitGroup
	pollGap  time.Duration
}

// New creates a Supervisor for the given command lines and seeds every log.
// In external mode it starts the liveness poller instead of spawning; in
// spawn mode it enters the start path immediately.
func New(commands []string, policy config.Watchdog, opts Options) *Supervisor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pollGap := opts.PollInterval
	if pollGap <= 0 {
		pollGap = DefaultPollInterval
	}

	s := &Supervisor{
		policy:  policy,
		logger:  logger,
		pollGap: pollGap,
	}

	s.spawner = spawn.New(opts.Env, logger)
	s.spawner.SetCallbacks(spawn.Callbacks{
		OnAttempt: opts.Callbacks.OnAttempt,
		OnRetry:   opts.Callbacks.OnRetry,
	})

	s.commands = make([]CommandLog, 0, len(commands))
	s.stops = make([]*atomic.Bool, 0, len(commands))
	for _, cmdline := range commands {
		s.commands = append(s.commands, CommandLog{
			Cmdline: cmdline,
			Log:     ringlog.New(opts.LogCapacity),
		})
		s.stops = append(s.stops, &atomic.Bool{})
	}

	if policy.External() {
		s.external = true
		for _, c := range s.commands {
			c.Log.Append("[external mode] will not spawn commands")
		}
		s.detector = spawn.NewCommandDetector(policy.ExternalCheckCmd, s.spawner)
		if policy.ExternalKillCmd != "" {
			s.killer = spawn.NewCommandKiller(policy.ExternalKillCmd, s.spawner)
		}
		s.pollWg.Add(1)
		go s.pollExternal(opts.Callbacks.OnExternalTransition)
		return s
	}

	for _, c := range s.commands {
		c.Log.Append("[start] " + c.Cmdline)
	}
	s.opMu.Lock()
	s.startLocked()
	s.opMu.Unlock()
	return s
}

// Start dispatches the workers. Idempotent: a second call while running is
// a no-op, so a start key pressed twice never double-spawns. In external
// mode there is nothing to start.
func (s *Supervisor) Start() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.external {
		s.logger.Debug("start_ignored_external_mode")
		return
	}
	if s.Started() {
		return
	}
	s.startLocked()
}

// startLocked dispatches parallel workers or the sequential orchestrator.
// Caller holds opMu.
func (s *Supervisor) startLocked() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	for _, stop := range s.stops {
		stop.Store(false)
	}

	if s.policy.Sequential {
		s.spawnSequential()
	} else {
		s.spawnParallel()
	}
}

// spawnParallel runs one worker goroutine per command, each independently
// driving the spawner's retry loop.
func (s *Supervisor) spawnParallel() {
	for i := range s.commands {
		c := s.commands[i]
		stop := s.stops[i]
		s.workersWg.Add(1)
		go func() {
			defer s.workersWg.Done()
			s.spawner.RunWithRetries(c.Log, c.Cmdline, s.policy, stop)
		}()
	}
}

// spawnSequential runs a single orchestrator goroutine iterating commands
// in declared order. A stop request aborts the remaining queue; with
// StopOnFailure set, so does a failed command.
func (s *Supervisor) spawnSequential() {
	s.workersWg.Add(1)
	go func() {
		defer s.workersWg.Done()
		for i := range s.commands {
			c := s.commands[i]
			stop := s.stops[i]
			ok := s.spawner.RunWithRetries(c.Log, c.Cmdline, s.policy, stop)
			if stop.Load() {
				return
			}
			if !ok && s.policy.StopOnFailure {
				for _, rest := range s.commands[i+1:] {
					rest.Log.Append("[aborted by stop_on_failure]")
				}
				return
			}
		}
	}()
}

// StopAll requests stop on every worker and joins them, the sequential
// orchestrator, and the external poller. Safe to call mid-backoff: join
// latency is bounded by the spawner's 50 ms polling granularity, not the
// configured backoff window.
func (s *Supervisor) StopAll() {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.stopLocked()
}

// stopLocked performs the stop and join. Caller holds opMu.
func (s *Supervisor) stopLocked() {
	for _, stop := range s.stops {
		stop.Store(true)
	}
	s.pollStop.Store(true)

	s.workersWg.Wait()
	s.pollWg.Wait()

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
}

// Wait blocks until every worker from the current dispatch has finished,
// without requesting a stop. External sessions have no workers, so Wait
// returns immediately there.
func (s *Supervisor) Wait() {
	s.workersWg.Wait()
}

// ClearOutputs drops every log's contents, typically before a restart so
// old output does not linger.
func (s *Supervisor) ClearOutputs() {
	for _, c := range s.commands {
		c.Log.Clear()
	}
}

// RestartAll stops everything, optionally clears the logs, re-seeds the
// start lines, and re-enters the start path. In external mode it returns
// ErrExternalRestart and logs an explanatory line instead.
func (s *Supervisor) RestartAll(clear bool) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.external {
		if clear {
			s.ClearOutputs()
		}
		for _, c := range s.commands {
			c.Log.Append("[external mode] restart not supported")
		}
		return ErrExternalRestart
	}

	s.stopLocked()
	if clear {
		s.ClearOutputs()
	}
	for _, c := range s.commands {
		c.Log.Append("[start] " + c.Cmdline)
	}
	s.startLocked()
	return nil
}

// KillExternal invokes the kill collaborator. Valid only in external mode;
// reports whether a kill action was available.
func (s *Supervisor) KillExternal() bool {
	if !s.external {
		return false
	}
	if s.killer == nil {
		return false
	}
	s.killer.Kill()
	return true
}

// NoteReattach appends a visible notice to every log. Called when a view
// re-attaches to a live session through the registry instead of creating
// a new one.
func (s *Supervisor) NoteReattach() {
	for _, c := range s.commands {
		c.Log.Append("[re-attached to running session]")
	}
}

// pollExternal probes the check command until stopped, recording liveness
// and appending a status line to every log only on transitions.
func (s *Supervisor) pollExternal(onTransition func(bool)) {
	defer s.pollWg.Done()

	var last *bool
	for {
		if s.pollStop.Load() {
			return
		}

		running := s.detector.IsRunning()

		s.mu.Lock()
		s.externalRunning = running
		s.mu.Unlock()

		if last == nil || *last != running {
			line := "[external] not running"
			if running {
				line = "[external] running (detected)"
			}
			for _, c := range s.commands {
				c.Log.Append(line)
			}
			s.logger.Info("external_transition", "running", running)
			if onTransition != nil {
				onTransition(running)
			}
			v := running
			last = &v
		}

		// Chunked sleep keeps StopAll's poller join latency bounded.
		var waited time.Duration
		for waited < s.pollGap {
			if s.pollStop.Load() {
				return
			}
			time.Sleep(pollTick)
			waited += pollTick
		}
	}
}

// Commands returns the command/log pairs for rendering. The returned logs
// are live shared handles; the slice itself is a copy.
func (s *Supervisor) Commands() []CommandLog {
	out := make([]CommandLog, len(s.commands))
	copy(out, s.commands)
	return out
}

// Logs returns just the log handles, in command order.
func (s *Supervisor) Logs() []*ringlog.Log {
	out := make([]*ringlog.Log, len(s.commands))
	for i, c := range s.commands {
		out[i] = c.Log
	}
	return out
}

// Started reports whether workers are dispatched.
func (s *Supervisor) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// External reports whether the session runs in external mode.
func (s *Supervisor) External() bool {
	return s.external
}

// ExternalRunning reports the last observed liveness of the external
// process. Always false outside external mode.
func (s *Supervisor) ExternalRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.externalRunning
}

// Policy returns the supervision policy the session was created with.
func (s *Supervisor) Policy() config.Watchdog {
	return s.policy
}
