// Package preflight provides startup validation checks.
package preflight

import (
	"fmt"
	"os/exec"
	"syscall"

	"github.com/google/shlex"

	"github.com/randomizedcoder/go-cmd-watchdog/internal/spawn"
)

// Check represents the result of a single preflight check.
type Check struct {
	Name    string // Name of the check
	Passed  bool   // Whether the check passed
	Warning bool   // True if it's a warning (non-fatal)
	Message string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// RunAll executes all preflight checks for the given command lines.
// A failed binary check is a warning rather than a hard failure: the
// supervisor retries spawn errors, and a binary may appear later.
func RunAll(commands []string, env spawn.Env) *Result {
	result := &Result{
		Checks: make([]Check, 0, len(commands)+1),
		Passed: true,
	}

	for _, cmdline := range commands {
		result.Checks = append(result.Checks, checkBinary(cmdline, env))
	}

	fdCheck := checkFileDescriptors(len(commands))
	result.Checks = append(result.Checks, fdCheck)
	if !fdCheck.Passed {
		result.Passed = false
	}

	return result
}

// checkBinary verifies the command's binary resolves on PATH after
// variable expansion.
func checkBinary(cmdline string, env spawn.Env) Check {
	expanded := spawn.ExpandVars(cmdline, env)
	tokens, err := shlex.Split(expanded)
	if err != nil || len(tokens) == 0 {
		return Check{
			Name:    "binary",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("%q: cannot tokenize", cmdline),
		}
	}

	path, err := exec.LookPath(tokens[0])
	if err != nil {
		return Check{
			Name:    "binary",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("%q not found on PATH", tokens[0]),
		}
	}
	return Check{
		Name:    "binary",
		Passed:  true,
		Message: fmt.Sprintf("%q -> %s", tokens[0], path),
	}
}

// checkFileDescriptors verifies sufficient file descriptors are available.
// Each supervised command needs a handful of FDs for its pipes, plus
// overhead for the metrics server and logging.
func checkFileDescriptors(commands int) Check {
	var limit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit); err != nil {
		return Check{
			Name:    "file_descriptors",
			Passed:  true,
			Warning: true,
			Message: "unable to read RLIMIT_NOFILE",
		}
	}

	required := commands*10 + 64
	actual := int(limit.Cur)

	return Check{
		Name:    "file_descriptors",
		Passed:  actual >= required,
		Message: fmt.Sprintf("ulimit -n %d (need %d for %d commands)", actual, required, commands),
	}
}
