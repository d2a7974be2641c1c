package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vibration.report/internal/imu"
)

func TestWindowDefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultWindowCapacity, NewWindow(0).Capacity())
	assert.Equal(t, DefaultWindowCapacity, NewWindow(-5).Capacity())
	assert.Equal(t, 16, NewWindow(16).Capacity())
}

func TestWindowPushAndSnapshot(t *testing.T) {
	w := NewWindow(4)
	for i := 0; i < 3; i++ {
		w.Push(imu.PhysicalSample{TimestampMS: int64(i)})
	}

	snap := w.Snapshot()
	require.Len(t, snap, 3)
	for i, s := range snap {
		assert.Equal(t, int64(i), s.TimestampMS)
	}
}

func TestWindowEvictsOldestFirst(t *testing.T) {
	const capacity = 8
	w := NewWindow(capacity)

	// Push capacity+k samples; the window must hold exactly the last
	// `capacity` pushed, in arrival order.
	for i := 0; i < capacity+5; i++ {
		w.Push(imu.PhysicalSample{TimestampMS: int64(i)})
		assert.LessOrEqual(t, w.Len(), capacity)
	}

	snap := w.Snapshot()
	require.Len(t, snap, capacity)
	for i, s := range snap {
		assert.Equal(t, int64(5+i), s.TimestampMS)
	}
}

func TestWindowSnapshotIsACopy(t *testing.T) {
	w := NewWindow(4)
	w.Push(imu.PhysicalSample{AxG: 1})

	snap := w.Snapshot()
	snap[0].AxG = 99

	assert.Equal(t, 1.0, w.Snapshot()[0].AxG)
}
