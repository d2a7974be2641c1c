package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// wsSendQueueLen bounds the per-client outbound queue. A client that falls
// this far behind starts losing frames, never stalling the producer.
const wsSendQueueLen = 16

// ErrSubscriberClosed is returned by Send once the writer loop has exited.
var ErrSubscriberClosed = errors.New("websocket subscriber closed")

// wsSubscriber adapts a websocket connection to the broadcast.Subscriber
// interface. Send enqueues without blocking; a dedicated writer goroutine
// drains the queue onto the wire.
type wsSubscriber struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func newWSSubscriber(conn *websocket.Conn) *wsSubscriber {
	return &wsSubscriber{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, wsSendQueueLen),
		done: make(chan struct{}),
	}
}

func (s *wsSubscriber) ID() string { return s.id }

// Send enqueues one message. A full queue drops the message silently; only a
// dead connection reports an error, which causes the hub to unregister us.
func (s *wsSubscriber) Send(msg []byte) error {
	select {
	case <-s.done:
		return ErrSubscriberClosed
	default:
	}
	select {
	case s.send <- msg:
	default:
		// queue full, drop the frame
	}
	return nil
}

// writeLoop drains the send queue onto the connection until the connection
// fails or ctx ends.
func (s *wsSubscriber) writeLoop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case msg := <-s.send:
			if err := s.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleUISocket handles GET /ws/ui. Each connection becomes a broadcast
// subscriber receiving one packet per analyzed sample.
func (s *Server) handleUISocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Printf("ui websocket accept failed: %v", err)
		return
	}
	defer conn.CloseNow()

	sub := newWSSubscriber(conn)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go sub.writeLoop(ctx)

	s.hub.Register(sub)
	defer s.hub.Unregister(sub.id)
	log.Printf("ui client %s connected (%d total)", sub.id, s.hub.Count())

	// Drain (and ignore) client messages until the connection closes so we
	// notice disconnects and answer control frames.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}
	log.Printf("ui client %s disconnected", sub.id)
}

// handleIngestSocket handles GET /ws/ingest: a persistent connection carrying
// newline-separated sample lines from a remote reader, each run through the
// same pipeline as local serial input.
func (s *Server) handleIngestSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Printf("ingest websocket accept failed: %v", err)
		return
	}
	defer conn.CloseNow()

	log.Printf("ingest client connected from %s", r.RemoteAddr)

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				log.Printf("ingest client %s disconnected", r.RemoteAddr)
			} else {
				log.Printf("ingest read error from %s: %v", r.RemoteAddr, err)
			}
			return
		}

		// A message may carry one line or a newline-separated batch.
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			s.HandleLine(line)
		}
	}
}
