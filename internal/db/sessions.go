package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/banshee-data/vibration.report/internal/record"
)

// Session is one catalog entry for a recording session. StoppedAt is empty
// while the session is still running (or if the process died mid-session).
type Session struct {
	ID          string `json:"id"`
	ReadingType string `json:"reading_type"`
	Date        string `json:"date"`
	Filename    string `json:"filename"`
	StartedAt   string `json:"started_at"`
	StoppedAt   string `json:"stopped_at,omitempty"`
	Frames      int64  `json:"frames"`
}

// RecordSessionStart adds a catalog row for a freshly started session.
func (db *DB) RecordSessionStart(meta record.SessionMeta) error {
	_, err := db.Exec(`
		INSERT INTO recording_sessions (id, reading_type, date, filename, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		meta.ID, meta.ReadingType, meta.Date, meta.Filename, meta.StartTime)
	if err != nil {
		return fmt.Errorf("failed to record session start: %w", err)
	}
	return nil
}

// RecordSessionStop completes a catalog row with the stop time and final
// frame count.
func (db *DB) RecordSessionStop(id string, frames int64) error {
	_, err := db.Exec(`
		UPDATE recording_sessions SET stopped_at = ?, frames = ? WHERE id = ?`,
		time.Now().Format(time.RFC3339), frames, id)
	if err != nil {
		return fmt.Errorf("failed to record session stop: %w", err)
	}
	return nil
}

// Sessions returns the recording session catalog, newest first.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(`
		SELECT id, reading_type, date, filename, started_at, stopped_at, frames
		FROM recording_sessions
		ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var stoppedAt sql.NullString
		if err := rows.Scan(&s.ID, &s.ReadingType, &s.Date, &s.Filename, &s.StartedAt, &stoppedAt, &s.Frames); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.StoppedAt = stoppedAt.String
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
