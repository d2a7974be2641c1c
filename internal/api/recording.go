package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/vibration.report/internal/analysis"
	"github.com/banshee-data/vibration.report/internal/record"
	"github.com/banshee-data/vibration.report/internal/security"
)

// RecordStartRequest is the request body for POST /api/record/start. Both
// fields are optional; the recorder substitutes defaults.
type RecordStartRequest struct {
	ReadingType string `json:"reading_type"`
	Date        string `json:"date"`
}

// RecordStatusResponse is returned by the record endpoints.
type RecordStatusResponse struct {
	Recording bool                `json:"recording"`
	Session   *record.SessionMeta `json:"session,omitempty"`
	Frames    int64               `json:"frames"`
	LastFrame *analysis.Frame     `json:"last_frame,omitempty"`
}

// handleRecordStart handles POST /api/record/start. Starting while a session
// is already active closes the previous session file, completes its catalog
// row, and begins a new one.
func (s *Server) handleRecordStart(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req RecordStartRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	meta, displaced, err := s.recorder.Start(req.ReadingType, req.Date)
	if displaced != nil && s.db != nil {
		if err := s.db.RecordSessionStop(displaced.Meta.ID, displaced.Frames); err != nil {
			log.Printf("failed to catalog displaced session stop: %v", err)
		}
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to start recording: %v", err))
		return
	}

	if s.db != nil {
		if err := s.db.RecordSessionStart(meta); err != nil {
			// The CSV file is already open and receiving frames; a catalog
			// failure is not worth aborting the session over.
			log.Printf("failed to catalog session start: %v", err)
		}
	}

	json.NewEncoder(w).Encode(RecordStatusResponse{
		Recording: true,
		Session:   &meta,
	})
}

// handleRecordStop handles POST /api/record/stop. Stopping while idle is a
// no-op that reports the idle state.
func (s *Server) handleRecordStop(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	meta := s.recorder.Stop()
	if meta.ID == "" {
		json.NewEncoder(w).Encode(RecordStatusResponse{Recording: false})
		return
	}

	frames := s.recorder.Frames()
	if s.db != nil {
		if err := s.db.RecordSessionStop(meta.ID, frames); err != nil {
			log.Printf("failed to catalog session stop: %v", err)
		}
	}

	json.NewEncoder(w).Encode(RecordStatusResponse{
		Recording: false,
		Session:   &meta,
		Frames:    frames,
	})
}

// handleRecordStatus handles GET /api/record/status.
func (s *Server) handleRecordStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	active, meta := s.recorder.Status()
	resp := RecordStatusResponse{
		Recording: active,
		LastFrame: s.processor.Last(),
	}
	if active {
		resp.Session = &meta
		resp.Frames = s.recorder.Frames()
	}
	json.NewEncoder(w).Encode(resp)
}

// handleRecordingDownload handles GET /api/recordings/:filename, serving a
// session CSV from the recordings directory. The filename comes from the
// client, so the resolved path is validated against the recordings directory
// before anything is opened.
func (s *Server) handleRecordingDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/recordings/")
	if name == "" {
		http.Error(w, "Missing recording filename", http.StatusBadRequest)
		return
	}

	dir := s.recorder.Dir()
	path := filepath.Join(dir, name)
	if err := security.ValidatePathWithinDirectory(path, dir); err != nil {
		log.Printf("rejected recording download %q: %v", name, err)
		http.Error(w, "Invalid recording filename", http.StatusBadRequest)
		return
	}

	if _, err := os.Stat(path); err != nil {
		http.Error(w, "Recording not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// handleSessions handles GET /api/sessions - the recording session catalog.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if s.db == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "Session catalog not available")
		return
	}

	sessions, err := s.db.Sessions()
	if err != nil {
		log.Printf("Error fetching sessions: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch sessions")
		return
	}

	json.NewEncoder(w).Encode(sessions)
}
