// Package broadcast fans analysis frames out to a dynamic set of subscribers.
// Delivery is best-effort and at-most-once per subscriber per frame: a
// subscriber whose transport fails is dropped during the publish that
// observed the failure, and a slow subscriber never blocks the producer or
// its peers.
package broadcast

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/banshee-data/vibration.report/internal/analysis"
)

// Subscriber is the delivery hook for one connected client. Send must not
// block; implementations queue or drop internally and return an error only
// when the transport is gone for good.
type Subscriber interface {
	ID() string
	Send(msg []byte) error
}

// Packet is the self-describing record delivered for every published frame.
type Packet struct {
	Type          string           `json:"type"`
	Data          *analysis.Frame  `json:"data"`
	RecentBuffers analysis.Buffers `json:"recentBuffers"`
}

// PacketTypeIMUData tags frame broadcast packets.
const PacketTypeIMUData = "imu_data"

// Hub maintains the live subscriber set. Registration and publishing may
// interleave from different goroutines; the set is guarded so a publish in
// progress always iterates a consistent snapshot.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]Subscriber
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]Subscriber)}
}

// Register adds a subscriber. A subscriber registered mid-publish sees the
// next frame, never a partial one.
func (h *Hub) Register(s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[s.ID()] = s
}

// Unregister removes a subscriber by ID. Unknown IDs are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, id)
}

// Count returns the current subscriber count.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Publish serializes the frame once and attempts delivery to every currently
// registered subscriber. Subscribers whose Send fails are unregistered as
// part of this call; the failure is not otherwise reported.
func (h *Hub) Publish(frame *analysis.Frame, recent analysis.Buffers) {
	msg, err := json.Marshal(Packet{
		Type:          PacketTypeIMUData,
		Data:          frame,
		RecentBuffers: recent,
	})
	if err != nil {
		log.Printf("failed to marshal broadcast packet: %v", err)
		return
	}

	h.mu.Lock()
	targets := make([]Subscriber, 0, len(h.subscribers))
	for _, s := range h.subscribers {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	var dead []string
	for _, s := range targets {
		if err := s.Send(msg); err != nil {
			dead = append(dead, s.ID())
		}
	}
	if len(dead) > 0 {
		h.mu.Lock()
		for _, id := range dead {
			delete(h.subscribers, id)
		}
		h.mu.Unlock()
	}
}
