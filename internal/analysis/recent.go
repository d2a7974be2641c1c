package analysis

import (
	"sync"

	"github.com/banshee-data/vibration.report/internal/imu"
)

// DefaultRecentCapacity is the per-channel history kept for the dashboard.
const DefaultRecentCapacity = 500

// Buffers is a per-channel slice view of recent samples, shaped for the
// dashboard plots.
type Buffers struct {
	Timestamps []int64   `json:"timestamps"`
	Ax         []float64 `json:"ax"`
	Ay         []float64 `json:"ay"`
	Az         []float64 `json:"az"`
	Gx         []float64 `json:"gx"`
	Gy         []float64 `json:"gy"`
	Gz         []float64 `json:"gz"`
}

// Recent keeps bounded per-channel histories of the sample stream so that
// broadcast packets and the analysis endpoint can include plottable context
// without walking the full window.
type Recent struct {
	mu       sync.Mutex
	capacity int
	buf      Buffers
}

// NewRecent creates a recent-sample store with the given per-channel
// capacity. Non-positive values fall back to DefaultRecentCapacity.
func NewRecent(capacity int) *Recent {
	if capacity <= 0 {
		capacity = DefaultRecentCapacity
	}
	return &Recent{capacity: capacity}
}

// Add appends one sample to every channel buffer, trimming to capacity.
func (r *Recent) Add(s imu.PhysicalSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Timestamps = appendBounded(r.buf.Timestamps, s.TimestampMS, r.capacity)
	r.buf.Ax = appendBounded(r.buf.Ax, s.AxG, r.capacity)
	r.buf.Ay = appendBounded(r.buf.Ay, s.AyG, r.capacity)
	r.buf.Az = appendBounded(r.buf.Az, s.AzG, r.capacity)
	r.buf.Gx = appendBounded(r.buf.Gx, s.GxDPS, r.capacity)
	r.buf.Gy = appendBounded(r.buf.Gy, s.GyDPS, r.capacity)
	r.buf.Gz = appendBounded(r.buf.Gz, s.GzDPS, r.capacity)
}

// Tail returns copies of the last n entries per channel.
func (r *Recent) Tail(n int) Buffers {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Buffers{
		Timestamps: tail(r.buf.Timestamps, n),
		Ax:         tail(r.buf.Ax, n),
		Ay:         tail(r.buf.Ay, n),
		Az:         tail(r.buf.Az, n),
		Gx:         tail(r.buf.Gx, n),
		Gy:         tail(r.buf.Gy, n),
		Gz:         tail(r.buf.Gz, n),
	}
}

// Len returns the current per-channel length.
func (r *Recent) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf.Timestamps)
}

func appendBounded[T any](s []T, v T, capacity int) []T {
	s = append(s, v)
	if len(s) > capacity {
		copy(s, s[1:])
		s = s[:len(s)-1]
	}
	return s
}

func tail[T any](s []T, n int) []T {
	if n > len(s) {
		n = len(s)
	}
	out := make([]T, n)
	copy(out, s[len(s)-n:])
	return out
}
