// Package record implements the recording session state machine: while a
// session is active every analysis frame is appended to a CSV file, one file
// per session, flushed per row.
package record

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/vibration.report/internal/analysis"
)

// Header is the fixed first row of every recording file.
var Header = []string{
	"date", "time", "timestamp_ms",
	"ax_g", "ay_g", "az_g",
	"gx_dps", "gy_dps", "gz_dps",
	"magnitude", "mean_magnitude", "rms_magnitude",
}

// SessionMeta describes one recording session.
type SessionMeta struct {
	ID          string `json:"id"`
	ReadingType string `json:"reading_type"`
	Date        string `json:"date"`
	Filename    string `json:"filename"`
	StartTime   string `json:"start_time"`
}

// Recorder is the Idle/Active recording state machine. All state is guarded
// by one mutex shared between the control surface (Start/Stop) and the
// producer-driven append path, so a stop racing an in-flight append can never
// write after close.
type Recorder struct {
	mu     sync.Mutex
	dir    string
	active bool
	meta   SessionMeta
	file   *os.File
	w      *csv.Writer
	frames int64
}

// NewRecorder creates an idle recorder writing files under dir.
func NewRecorder(dir string) *Recorder {
	return &Recorder{dir: dir}
}

// sanitizeReadingType replaces every character outside [A-Za-z0-9_-] with an
// underscore so the reading type is safe to embed in a filename.
func sanitizeReadingType(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// DisplacedSession describes a session that was closed because a new one
// started while it was still active, so the caller can complete its catalog
// entry.
type DisplacedSession struct {
	Meta   SessionMeta
	Frames int64
}

// Start opens a new session. An already-active session is stopped first,
// closing its file, and returned as the displaced session so its catalog row
// can be completed. If the new destination cannot be opened the recorder
// stays (or becomes) idle and the error is returned; the displaced session,
// if any, is still reported.
func (r *Recorder) Start(readingType, date string) (SessionMeta, *DisplacedSession, error) {
	if readingType == "" {
		readingType = "unknown"
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var displaced *DisplacedSession
	if r.active {
		frames := r.frames
		prev := r.closeLocked()
		displaced = &DisplacedSession{Meta: prev, Frames: frames}
		log.Printf("recording restarted while active; closed previous session file %s", prev.Filename)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return SessionMeta{}, displaced, fmt.Errorf("failed to create recordings directory: %w", err)
	}

	now := time.Now()
	name := fmt.Sprintf("%s_%s_%s.csv", date, sanitizeReadingType(readingType), now.Format("20060102_150405"))
	path := filepath.Join(r.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return SessionMeta{}, displaced, fmt.Errorf("failed to open recording file: %w", err)
	}

	w := csv.NewWriter(f)
	w.Write(Header)
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return SessionMeta{}, displaced, fmt.Errorf("failed to write recording header: %w", err)
	}

	r.file = f
	r.w = w
	r.frames = 0
	r.active = true
	r.meta = SessionMeta{
		ID:          uuid.NewString(),
		ReadingType: readingType,
		Date:        date,
		Filename:    path,
		StartTime:   now.Format(time.RFC3339),
	}
	log.Printf("recording started -> %s", path)
	return r.meta, displaced, nil
}

// Stop closes the active session and returns its metadata. Stopping while
// idle is a no-op returning empty metadata.
func (r *Recorder) Stop() SessionMeta {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return SessionMeta{}
	}
	meta := r.closeLocked()
	log.Printf("recording stopped -> %s (%d frames)", meta.Filename, r.frames)
	return meta
}

// closeLocked flushes and closes the current destination and clears session
// state. Callers must hold r.mu.
func (r *Recorder) closeLocked() SessionMeta {
	r.w.Flush()
	if err := r.file.Close(); err != nil {
		log.Printf("failed to close recording file %s: %v", r.meta.Filename, err)
	}
	meta := r.meta
	r.file = nil
	r.w = nil
	r.active = false
	r.meta = SessionMeta{}
	return meta
}

// Append writes one frame as a CSV row and flushes it. While idle it is a
// no-op. A write failure is logged and the frame dropped; the session stays
// active until an explicit Stop.
func (r *Recorder) Append(f *analysis.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}

	meanMag, rmsMag := 0.0, 0.0
	if f.Rolling != nil {
		meanMag = f.Rolling.MeanMagnitude
	}
	if f.RMS != nil {
		rmsMag = f.RMS.Magnitude
	}

	row := []string{
		f.Date,
		f.Time,
		strconv.FormatInt(f.TimestampMS, 10),
		formatFloat(f.AxG),
		formatFloat(f.AyG),
		formatFloat(f.AzG),
		formatFloat(f.GxDPS),
		formatFloat(f.GyDPS),
		formatFloat(f.GzDPS),
		formatFloat(f.Magnitude),
		formatFloat(meanMag),
		formatFloat(rmsMag),
	}
	if err := r.w.Write(row); err != nil {
		log.Printf("recording write error, dropping frame: %v", err)
		return
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		log.Printf("recording flush error, dropping frame: %v", err)
		return
	}
	r.frames++
}

// Dir returns the directory recording files are written to.
func (r *Recorder) Dir() string {
	return r.dir
}

// Status reports whether a session is active and its metadata snapshot.
func (r *Recorder) Status() (bool, SessionMeta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.meta
}

// Frames returns the number of rows appended to the current session.
func (r *Recorder) Frames() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
