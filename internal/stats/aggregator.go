// Package stats provides incremental pattern counters and attempt-duration
// percentiles over live watchdog output.
package stats

import (
	"regexp"

	"github.com/randomizedcoder/go-cmd-watchdog/internal/config"
	"github.com/randomizedcoder/go-cmd-watchdog/internal/ringlog"
)

// Pattern is one compiled stat pattern.
type Pattern struct {
	Label string
	re    *regexp.Regexp
}

// Aggregator counts pattern matches across a fixed set of logs. Counting
// is incremental: each update scans only the lines appended since the
// last observation, so a render tick never rescans thousands of retained
// lines. A shrinking log (clear/restart) forces one full recompute.
//
// Not safe for concurrent use: the render loop owns it and calls
// UpdateFromLogs on its tick.
type Aggregator struct {
	patterns []Pattern
	counts   []uint64
	lastLens []int
}

// NewAggregator compiles the patterns for counting over logCount logs.
// Malformed regular expressions are dropped silently; the aggregator
// continues with the valid remainder.
func NewAggregator(specs []config.StatPattern, logCount int) *Aggregator {
	patterns := make([]Pattern, 0, len(specs))
	for _, spec := range specs {
		re, err := regexp.Compile(spec.Regexp)
		if err != nil {
			continue
		}
		patterns = append(patterns, Pattern{Label: spec.Label, re: re})
	}
	return &Aggregator{
		patterns: patterns,
		counts:   make([]uint64, len(patterns)),
		lastLens: make([]int, logCount),
	}
}

// Len returns the number of compiled patterns.
func (a *Aggregator) Len() int {
	return len(a.patterns)
}

// Labels returns the pattern labels, in declared order.
func (a *Aggregator) Labels() []string {
	labels := make([]string, len(a.patterns))
	for i, p := range a.patterns {
		labels[i] = p.Label
	}
	return labels
}

// Counts returns a snapshot of the running counts, index-aligned with
// Labels.
func (a *Aggregator) Counts() []uint64 {
	out := make([]uint64, len(a.counts))
	copy(out, a.counts)
	return out
}

// UpdateFromLogs advances the counts. If any log shrank since the last
// call (a clear or restart occurred), all counts are recomputed from
// scratch; otherwise only newly appended lines are scanned.
func (a *Aggregator) UpdateFromLogs(logs []*ringlog.Log) {
	for i, log := range logs {
		if i < len(a.lastLens) && log.Len() < a.lastLens[i] {
			a.recompute(logs)
			return
		}
	}

	for i, log := range logs {
		if i >= len(a.lastLens) {
			break
		}
		lines := log.LinesFrom(a.lastLens[i])
		a.countLines(lines)
		a.lastLens[i] += len(lines)
	}
}

// recompute rebuilds all counts from the full contents of every log.
func (a *Aggregator) recompute(logs []*ringlog.Log) {
	for i := range a.counts {
		a.counts[i] = 0
	}
	for i, log := range logs {
		if i >= len(a.lastLens) {
			break
		}
		lines := log.Snapshot()
		a.countLines(lines)
		a.lastLens[i] = len(lines)
	}
}

// countLines adds the non-overlapping matches in each line, per pattern.
func (a *Aggregator) countLines(lines []string) {
	for _, line := range lines {
		for pi, p := range a.patterns {
			a.counts[pi] += uint64(len(p.re.FindAllStringIndex(line, -1)))
		}
	}
}
