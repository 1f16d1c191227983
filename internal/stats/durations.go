package stats

import (
	"sync"
	"time"

	"github.com/influxdata/tdigest"
)

// Durations tracks per-attempt wall time with a t-digest so the dashboard
// can show latency percentiles without retaining every sample.
//
// Thread-safe: observed from worker goroutines, read by the render loop.
type Durations struct {
	mu     sync.Mutex
	digest *tdigest.TDigest
	count  int64
	total  time.Duration
}

// NewDurations creates an empty duration tracker.
func NewDurations() *Durations {
	return &Durations{
		digest: tdigest.NewWithCompression(100), // ~100 centroids
	}
}

// Observe records one attempt duration.
func (d *Durations) Observe(dur time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.digest.Add(dur.Seconds(), 1)
	d.count++
	d.total += dur
}

// Count returns the number of observed attempts.
func (d *Durations) Count() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// Mean returns the average attempt duration, or 0 with no samples.
func (d *Durations) Mean() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.count == 0 {
		return 0
	}
	return d.total / time.Duration(d.count)
}

// Quantile returns the attempt duration at quantile q (0..1), or 0 with
// no samples.
func (d *Durations) Quantile(q float64) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.count == 0 {
		return 0
	}
	return time.Duration(d.digest.Quantile(q) * float64(time.Second))
}
