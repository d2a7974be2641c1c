// Package db provides the SQLite-backed configuration store: serial port
// configurations for IMU sensors and the catalog of recording sessions.
// Recorded sample data itself lives in flat per-session CSV files, not here.
package db

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS imu_serial_config (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			name              TEXT NOT NULL UNIQUE,
			port_path         TEXT NOT NULL,
			baud_rate         INTEGER NOT NULL DEFAULT 115200,
			data_bits         INTEGER NOT NULL DEFAULT 8,
			stop_bits         INTEGER NOT NULL DEFAULT 1,
			parity            TEXT NOT NULL DEFAULT 'N',
			enabled           INTEGER NOT NULL DEFAULT 1,
			description       TEXT NOT NULL DEFAULT '',
			sensor_model      TEXT NOT NULL DEFAULT 'mpu6050',
			created_at        INTEGER NOT NULL,
			updated_at        INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS recording_sessions (
			id                TEXT PRIMARY KEY,
			reading_type      TEXT NOT NULL,
			date              TEXT NOT NULL,
			filename          TEXT NOT NULL,
			started_at        TEXT NOT NULL,
			stopped_at        TEXT,
			frames            BIGINT NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	// create a tailSQL instance and point it to our DB
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://imu.db", db.DB, &tailsql.DBOptions{
		Label: "IMU DB",
	})

	// mount the tailSQL server on the debug /tailsql path
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
}
