// Package api serves the HTTP control surface and websocket endpoints for the
// vibration analysis server.
package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/vibration.report/internal/analysis"
	"github.com/banshee-data/vibration.report/internal/broadcast"
	"github.com/banshee-data/vibration.report/internal/db"
	"github.com/banshee-data/vibration.report/internal/record"
	"github.com/banshee-data/vibration.report/internal/serialmux"
	"github.com/banshee-data/vibration.report/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// broadcastTail is the number of recent samples per channel included with
// every broadcast packet.
const broadcastTail = 50

type Server struct {
	m         serialmux.SerialMuxInterface
	db        *db.DB
	processor *analysis.Processor
	hub       *broadcast.Hub
	recorder  *record.Recorder
	trace     bool
}

func NewServer(m serialmux.SerialMuxInterface, database *db.DB, processor *analysis.Processor, hub *broadcast.Hub, recorder *record.Recorder) *Server {
	return &Server{
		m:         m,
		db:        database,
		processor: processor,
		hub:       hub,
		recorder:  recorder,
	}
}

// SetTrace enables per-sample console output for every processed frame.
func (s *Server) SetTrace(v bool) {
	s.trace = v
}

// HandleLine runs one raw line from any ingest source (serial port or
// websocket) through the full pipeline: classify, decode, analyze, broadcast,
// and append to the active recording. Non-sample lines update the device
// state; malformed sample lines are logged and dropped.
func (s *Server) HandleLine(line string) {
	switch serialmux.ClassifyPayload(line) {
	case serialmux.EventTypeSampleJSON, serialmux.EventTypeSampleCSV:
		frame, err := s.processor.ProcessLine(line)
		if err != nil {
			log.Printf("dropping malformed sample line: %v", err)
			return
		}
		if s.trace {
			log.Printf("[%s] ax=%+.3f ay=%+.3f az=%+.3f gx=%+.1f gy=%+.1f gz=%+.1f |a|=%.3f",
				frame.Time, frame.AxG, frame.AyG, frame.AzG,
				frame.GxDPS, frame.GyDPS, frame.GzDPS, frame.Magnitude)
		}
		s.hub.Publish(frame, s.processor.Recent().Tail(broadcastTail))
		s.recorder.Append(frame)
	case serialmux.EventTypeInfo:
		if err := serialmux.HandleInfoResponse(line); err != nil {
			log.Printf("failed to handle info line: %v", err)
		}
	default:
		log.Printf("ignoring unrecognized line: %q", line)
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/command", s.sendCommandHandler)
	mux.HandleFunc("/api/record/start", s.handleRecordStart)
	mux.HandleFunc("/api/record/stop", s.handleRecordStop)
	mux.HandleFunc("/api/record/status", s.handleRecordStatus)
	mux.HandleFunc("/api/analysis", s.handleAnalysis)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/recordings/", s.handleRecordingDownload)
	mux.HandleFunc("/api/serial/configs", s.handleSerialConfigsOrCreate)
	mux.HandleFunc("/api/serial/configs/", s.handleSerialConfigByID)
	mux.HandleFunc("/ws/ui", s.handleUISocket)
	mux.HandleFunc("/ws/ingest", s.handleIngestSocket)
	return mux
}

func (s *Server) sendCommandHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	command := r.FormValue("command")

	if err := s.m.SendCommand(command); err != nil {
		http.Error(w, "Failed to send command", http.StatusInternalServerError)
		return
	}
	io.WriteString(w, "Command sent successfully")
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	config := map[string]interface{}{
		"version":         version.Version,
		"params":          s.processor.Params(),
		"recent_capacity": analysis.DefaultRecentCapacity,
		"broadcast_tail":  broadcastTail,
	}

	if err := json.NewEncoder(w).Encode(config); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}

// handleAnalysis returns the most recent analysis frame together with the
// recent per-channel buffers, shaped like a broadcast packet so dashboard
// clients can poll instead of holding a websocket open.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	frame := s.processor.Last()
	if frame == nil {
		s.writeJSONError(w, http.StatusNotFound, "No samples processed yet")
		return
	}

	packet := broadcast.Packet{
		Type:          broadcast.PacketTypeIMUData,
		Data:          frame,
		RecentBuffers: s.processor.Recent().Tail(broadcastTail),
	}
	if err := json.NewEncoder(w).Encode(packet); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write analysis frame")
		return
	}
}
