// Package analysis converts a stream of physical IMU samples into enriched
// analysis frames: rolling statistics, spectral content, and peak detection
// over a sliding window of recent samples.
package analysis

import (
	"sync"

	"github.com/banshee-data/vibration.report/internal/imu"
)

// DefaultWindowCapacity is the number of samples retained for rolling
// statistics when no capacity is configured.
const DefaultWindowCapacity = 256

// Window is a fixed-capacity, insertion-ordered store of the most recent
// physical samples. Pushing beyond capacity evicts the oldest sample.
// A single producer pushes; snapshots may be taken from other goroutines.
type Window struct {
	mu       sync.Mutex
	capacity int
	samples  []imu.PhysicalSample
}

// NewWindow creates a window with the given capacity. Non-positive values
// fall back to DefaultWindowCapacity.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultWindowCapacity
	}
	return &Window{
		capacity: capacity,
		samples:  make([]imu.PhysicalSample, 0, capacity),
	}
}

// Push appends a sample, evicting the oldest if the window is full.
func (w *Window) Push(s imu.PhysicalSample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.samples) == w.capacity {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:len(w.samples)-1]
	}
	w.samples = append(w.samples, s)
}

// Snapshot returns a copy of the current contents in arrival order.
func (w *Window) Snapshot() []imu.PhysicalSample {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]imu.PhysicalSample, len(w.samples))
	copy(out, w.samples)
	return out
}

// Len returns the number of samples currently held.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.samples)
}

// Capacity returns the configured capacity.
func (w *Window) Capacity() int {
	return w.capacity
}
