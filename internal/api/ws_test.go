package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/banshee-data/vibration.report/internal/broadcast"
)

func TestUISocket_ReceivesBroadcast(t *testing.T) {
	server := setupTestServer(t)
	ts := httptest.NewServer(server.ServeMux())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/ui"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Failed to dial ui socket: %v", err)
	}
	defer conn.CloseNow()

	// Wait for the subscriber to be registered, then publish frames until one
	// arrives; early frames may race registration.
	deadline := time.Now().Add(2 * time.Second)
	for server.hub.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if server.hub.Count() == 0 {
		t.Fatal("ui subscriber never registered")
	}

	server.HandleLine(sampleLine(1000, 16384))

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read broadcast packet: %v", err)
	}

	var packet broadcast.Packet
	if err := json.Unmarshal(data, &packet); err != nil {
		t.Fatalf("Failed to decode packet: %v", err)
	}
	if packet.Type != broadcast.PacketTypeIMUData {
		t.Errorf("Expected packet type %q, got %q", broadcast.PacketTypeIMUData, packet.Type)
	}
	if packet.Data == nil || packet.Data.TimestampMS != 1000 {
		t.Errorf("Unexpected frame in packet: %+v", packet.Data)
	}
	if len(packet.RecentBuffers.Ax) == 0 {
		t.Error("Expected recent buffers in packet")
	}
}

func TestUISocket_DisconnectUnregisters(t *testing.T) {
	server := setupTestServer(t)
	ts := httptest.NewServer(server.ServeMux())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/ui"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Failed to dial ui socket: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for server.hub.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if server.hub.Count() != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", server.hub.Count())
	}

	conn.Close(websocket.StatusNormalClosure, "done")

	deadline = time.Now().Add(2 * time.Second)
	for server.hub.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if server.hub.Count() != 0 {
		t.Error("Subscriber not unregistered after disconnect")
	}
}

func TestIngestSocket(t *testing.T) {
	server := setupTestServer(t)
	ts := httptest.NewServer(server.ServeMux())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/ingest"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Failed to dial ingest socket: %v", err)
	}
	defer conn.CloseNow()

	// One message carrying a batch of lines, including a blank and a bad one.
	batch := sampleLine(1000, 100) + "\n" + sampleLine(1050, 200) + "\n\nnot a sample\n"
	if err := conn.Write(ctx, websocket.MessageText, []byte(batch)); err != nil {
		t.Fatalf("Failed to write ingest batch: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for server.processor.Recent().Len() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	frame := server.processor.Last()
	if frame == nil {
		t.Fatal("Expected frames after ingest")
	}
	if frame.TimestampMS != 1050 {
		t.Errorf("Expected last frame at 1050, got %d", frame.TimestampMS)
	}
	if got := server.processor.Recent().Len(); got != 2 {
		t.Errorf("Expected 2 ingested samples, got %d", got)
	}
}
