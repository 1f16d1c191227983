// Package spawn runs supervised command lines: expansion, tokenization,
// retry with backoff, and output capture into a shared ring buffer.
package spawn

import (
	"os"
	"regexp"
)

const (
	// MarkerEnv is injected into every spawned process (value "1") so
	// child tools can detect they run under the watchdog.
	MarkerEnv = "CMD_WATCHDOG_JSON"

	// AppBinEnv overrides the ${APP_BIN} placeholder.
	AppBinEnv = "CMD_WATCHDOG_APP_BIN"

	// DefaultAppBin is the ${APP_BIN} fallback when AppBinEnv is unset.
	DefaultAppBin = "example-app"
)

// Env resolves environment variables for placeholder expansion. Passing it
// explicitly keeps the spawner and the external-mode collaborators testable
// without touching the process environment.
type Env interface {
	Lookup(key string) (string, bool)
}

// OSEnv resolves against the live process environment.
type OSEnv struct{}

// Lookup implements Env.
func (OSEnv) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapEnv is a fixed in-memory Env, used in tests.
type MapEnv map[string]string

// Lookup implements Env.
func (m MapEnv) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// varPattern matches ${VAR} placeholders.
var varPattern = regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)

// ExpandVars replaces ${VAR} placeholders in a command line against env.
// Unset variables expand to the empty string. The special ${APP_BIN}
// placeholder resolves through AppBinEnv with a fixed fallback, so job
// files can reference the host application's binary without hardcoding
// its install path.
func ExpandVars(s string, env Env) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		key := match[2 : len(match)-1]
		if key == "APP_BIN" {
			if v, ok := env.Lookup(AppBinEnv); ok {
				return v
			}
			return DefaultAppBin
		}
		v, _ := env.Lookup(key)
		return v
	})
}
