package spawn

// Detector reports liveness of a process this system did not spawn.
type Detector interface {
	IsRunning() bool
}

// Killer terminates a process this system did not spawn.
type Killer interface {
	Kill()
}

// CommandDetector probes liveness by running a check command with output
// discarded; exit code 0 means running.
type CommandDetector struct {
	cmdline string
	runner  *Spawner
}

// NewCommandDetector creates a Detector backed by the given check command.
func NewCommandDetector(cmdline string, runner *Spawner) *CommandDetector {
	return &CommandDetector{cmdline: cmdline, runner: runner}
}

// IsRunning implements Detector.
func (d *CommandDetector) IsRunning() bool {
	code, exited := d.runner.RunQuiet(d.cmdline)
	return exited && code == 0
}

// CommandKiller terminates the external process by running a kill command.
// Best-effort: the result is discarded and the command is never retried.
type CommandKiller struct {
	cmdline string
	runner  *Spawner
}

// NewCommandKiller creates a Killer backed by the given kill command.
func NewCommandKiller(cmdline string, runner *Spawner) *CommandKiller {
	return &CommandKiller{cmdline: cmdline, runner: runner}
}

// Kill implements Killer.
func (k *CommandKiller) Kill() {
	k.runner.RunQuiet(k.cmdline)
}
