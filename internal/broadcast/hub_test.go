package broadcast

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vibration.report/internal/analysis"
)

// fakeSubscriber records deliveries and can be broken mid-stream.
type fakeSubscriber struct {
	mu     sync.Mutex
	id     string
	broken bool
	msgs   [][]byte
}

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Send(msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return errors.New("transport closed")
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeSubscriber) delivered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func frameWithTimestamp(ts int64) *analysis.Frame {
	return &analysis.Frame{TimestampMS: ts}
}

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	h := NewHub()
	a := &fakeSubscriber{id: "a"}
	b := &fakeSubscriber{id: "b"}
	h.Register(a)
	h.Register(b)

	h.Publish(frameWithTimestamp(1), analysis.Buffers{})

	assert.Equal(t, 1, a.delivered())
	assert.Equal(t, 1, b.delivered())
}

func TestPublishPacketShape(t *testing.T) {
	h := NewHub()
	a := &fakeSubscriber{id: "a"}
	h.Register(a)

	h.Publish(frameWithTimestamp(42), analysis.Buffers{Ax: []float64{1, 2}})

	require.Equal(t, 1, a.delivered())
	var p Packet
	require.NoError(t, json.Unmarshal(a.msgs[0], &p))
	assert.Equal(t, PacketTypeIMUData, p.Type)
	require.NotNil(t, p.Data)
	assert.Equal(t, int64(42), p.Data.TimestampMS)
	assert.Equal(t, []float64{1, 2}, p.RecentBuffers.Ax)
}

func TestFailedDeliveryUnregistersSubscriber(t *testing.T) {
	h := NewHub()
	a := &fakeSubscriber{id: "a"}
	b := &fakeSubscriber{id: "b"}
	h.Register(a)
	h.Register(b)

	h.Publish(frameWithTimestamp(1), analysis.Buffers{})
	require.Equal(t, 1, a.delivered())

	// Break a's transport; the next publish fails for a, drops it, and
	// keeps delivering to b.
	a.mu.Lock()
	a.broken = true
	a.mu.Unlock()

	h.Publish(frameWithTimestamp(2), analysis.Buffers{})
	assert.Equal(t, 1, h.Count())
	assert.Equal(t, 2, b.delivered())

	// a never receives subsequent frames.
	h.Publish(frameWithTimestamp(3), analysis.Buffers{})
	assert.Equal(t, 1, a.delivered())
	assert.Equal(t, 3, b.delivered())
}

func TestUnregisterStopsDelivery(t *testing.T) {
	h := NewHub()
	a := &fakeSubscriber{id: "a"}
	h.Register(a)

	h.Publish(frameWithTimestamp(1), analysis.Buffers{})
	h.Unregister("a")
	h.Publish(frameWithTimestamp(2), analysis.Buffers{})

	assert.Equal(t, 1, a.delivered())
	assert.Equal(t, 0, h.Count())
}

func TestUnregisterUnknownIDIsHarmless(t *testing.T) {
	h := NewHub()
	h.Unregister("missing")
	assert.Equal(t, 0, h.Count())
}

func TestConcurrentRegisterAndPublish(t *testing.T) {
	h := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := &fakeSubscriber{id: string(rune('a' + i))}
			h.Register(s)
			h.Unregister(s.ID())
		}(i)
	}
	for i := 0; i < 50; i++ {
		h.Publish(frameWithTimestamp(int64(i)), analysis.Buffers{})
	}
	wg.Wait()

	assert.Equal(t, 0, h.Count())
}
