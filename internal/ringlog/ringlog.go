// Package ringlog provides a bounded, mutex-guarded line store shared
// between process output readers and the render loop.
package ringlog

import "sync"

// DefaultCapacity is the maximum number of retained lines per command.
const DefaultCapacity = 5000

// Log is a bounded, insertion-ordered line buffer. Once the capacity is
// exceeded the oldest lines are evicted first. All methods are safe for
// concurrent use; producers (stdout/stderr readers, orchestrator status
// notes) and consumers (renderer, stats aggregator) share one internal lock.
type Log struct {
	mu   sync.Mutex
	buf  []string
	head int // index of the oldest line
	n    int // number of stored lines
}

// New creates a Log with the given capacity. A capacity <= 0 selects
// DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{buf: make([]string, capacity)}
}

// Append adds a line at the back, evicting the oldest line when full.
func (l *Log) Append(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.n < len(l.buf) {
		l.buf[(l.head+l.n)%len(l.buf)] = line
		l.n++
		return
	}
	l.buf[l.head] = line
	l.head = (l.head + 1) % len(l.buf)
}

// Clear drops all stored lines.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.buf {
		l.buf[i] = ""
	}
	l.head = 0
	l.n = 0
}

// Len returns the number of stored lines.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

// Snapshot returns a copy of all stored lines, oldest first.
func (l *Log) Snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyRange(0, l.n)
}

// LinesFrom returns a copy of the lines with logical index >= start,
// where index 0 is the oldest stored line. Used by the stats aggregator
// to scan only lines appended since its last observation.
func (l *Log) LinesFrom(start int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if start < 0 {
		start = 0
	}
	if start >= l.n {
		return nil
	}
	return l.copyRange(start, l.n)
}

// Tail returns a copy of the most recent k lines, oldest first.
func (l *Log) Tail(k int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if k > l.n {
		k = l.n
	}
	return l.copyRange(l.n-k, l.n)
}

// copyRange copies logical indices [from, to). Caller holds the lock.
func (l *Log) copyRange(from, to int) []string {
	out := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, l.buf[(l.head+i)%len(l.buf)])
	}
	return out
}
