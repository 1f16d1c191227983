package stats

import (
	"fmt"
	"testing"

	"github.com/randomizedcoder/go-cmd-watchdog/internal/config"
	"github.com/randomizedcoder/go-cmd-watchdog/internal/ringlog"
)

func specs(pairs ...string) []config.StatPattern {
	out := make([]config.StatPattern, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, config.StatPattern{Label: pairs[i], Regexp: pairs[i+1]})
	}
	return out
}

func TestMalformedPatternsDroppedSilently(t *testing.T) {
	a := NewAggregator(specs(
		"good", "ERROR",
		"bad", "([unclosed",
		"also good", `\d+`,
	), 1)

	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (malformed dropped)", a.Len())
	}
	labels := a.Labels()
	if labels[0] != "good" || labels[1] != "also good" {
		t.Errorf("Labels() = %v", labels)
	}
}

func TestIncrementalCounting(t *testing.T) {
	log := ringlog.New(0)
	a := NewAggregator(specs("errors", "ERROR", "warns", "WARN"), 1)

	log.Append("ERROR something broke")
	log.Append("all fine")
	log.Append("WARN minor, then ERROR again")
	a.UpdateFromLogs([]*ringlog.Log{log})

	counts := a.Counts()
	if counts[0] != 2 || counts[1] != 1 {
		t.Fatalf("Counts() = %v, want [2 1]", counts)
	}

	// A second update without new lines changes nothing.
	a.UpdateFromLogs([]*ringlog.Log{log})
	counts = a.Counts()
	if counts[0] != 2 || counts[1] != 1 {
		t.Fatalf("Counts() after no-op update = %v, want [2 1]", counts)
	}

	// Only the appended lines are scanned.
	log.Append("ERROR third")
	a.UpdateFromLogs([]*ringlog.Log{log})
	if got := a.Counts()[0]; got != 3 {
		t.Errorf("errors = %d, want 3", got)
	}
}

func TestIncrementalMatchesFullRecompute(t *testing.T) {
	const lines = 37

	incLog := ringlog.New(0)
	fullLog := ringlog.New(0)
	inc := NewAggregator(specs("hits", `hit-\d`), 1)
	full := NewAggregator(specs("hits", `hit-\d`), 1)

	for i := 0; i < lines; i++ {
		line := fmt.Sprintf("tick %d hit-%d and hit-%d", i, i%10, (i+3)%10)
		incLog.Append(line)
		fullLog.Append(line)
		// Incremental: update after every line.
		inc.UpdateFromLogs([]*ringlog.Log{incLog})
	}
	// Full: one update over everything.
	full.UpdateFromLogs([]*ringlog.Log{fullLog})

	if inc.Counts()[0] != full.Counts()[0] {
		t.Errorf("incremental = %d, full = %d; want equal", inc.Counts()[0], full.Counts()[0])
	}
}

func TestClearForcesRecompute(t *testing.T) {
	log := ringlog.New(0)
	a := NewAggregator(specs("errors", "ERROR"), 1)

	log.Append("ERROR one")
	log.Append("ERROR two")
	a.UpdateFromLogs([]*ringlog.Log{log})
	if got := a.Counts()[0]; got != 2 {
		t.Fatalf("errors = %d, want 2", got)
	}

	// Clear and refill with fewer lines: counts must reflect exactly the
	// new contents, with no double- or under-counting across the clear.
	log.Clear()
	log.Append("ERROR fresh")
	a.UpdateFromLogs([]*ringlog.Log{log})
	if got := a.Counts()[0]; got != 1 {
		t.Errorf("errors after clear = %d, want 1", got)
	}
}

func TestMultipleLogs(t *testing.T) {
	log1 := ringlog.New(0)
	log2 := ringlog.New(0)
	a := NewAggregator(specs("errors", "ERROR"), 2)

	log1.Append("ERROR in first")
	log2.Append("ERROR in second")
	log2.Append("ERROR again in second")
	a.UpdateFromLogs([]*ringlog.Log{log1, log2})

	if got := a.Counts()[0]; got != 3 {
		t.Errorf("errors across logs = %d, want 3", got)
	}
}

func TestNonOverlappingMatchesPerLine(t *testing.T) {
	log := ringlog.New(0)
	a := NewAggregator(specs("aa", "aa"), 1)

	log.Append("aaaa")
	a.UpdateFromLogs([]*ringlog.Log{log})

	// Non-overlapping: "aaaa" contains two matches, not three.
	if got := a.Counts()[0]; got != 2 {
		t.Errorf("matches = %d, want 2", got)
	}
}
