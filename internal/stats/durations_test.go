package stats

import (
	"sync"
	"testing"
	"time"
)

func TestDurationsEmpty(t *testing.T) {
	d := NewDurations()
	if d.Count() != 0 {
		t.Errorf("Count() = %d, want 0", d.Count())
	}
	if d.Mean() != 0 {
		t.Errorf("Mean() = %v, want 0", d.Mean())
	}
	if d.Quantile(0.95) != 0 {
		t.Errorf("Quantile(0.95) = %v, want 0", d.Quantile(0.95))
	}
}

func TestDurationsObserve(t *testing.T) {
	d := NewDurations()
	d.Observe(100 * time.Millisecond)
	d.Observe(200 * time.Millisecond)
	d.Observe(300 * time.Millisecond)

	if d.Count() != 3 {
		t.Errorf("Count() = %d, want 3", d.Count())
	}
	if got := d.Mean(); got != 200*time.Millisecond {
		t.Errorf("Mean() = %v, want 200ms", got)
	}

	// The median of the samples should land near the middle sample.
	p50 := d.Quantile(0.5)
	if p50 < 100*time.Millisecond || p50 > 300*time.Millisecond {
		t.Errorf("Quantile(0.5) = %v, want within the sample range", p50)
	}
}

func TestDurationsConcurrentObserve(t *testing.T) {
	d := NewDurations()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				d.Observe(10 * time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if got := d.Count(); got != 800 {
		t.Errorf("Count() = %d, want 800", got)
	}
}
