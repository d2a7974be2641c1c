package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SerialConfig represents a serial port configuration for an IMU sensor.
type SerialConfig struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	PortPath    string `json:"port_path"`
	BaudRate    int    `json:"baud_rate"`
	DataBits    int    `json:"data_bits"`
	StopBits    int    `json:"stop_bits"`
	Parity      string `json:"parity"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
	SensorModel string `json:"sensor_model"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

const serialConfigColumns = `id, name, port_path, baud_rate, data_bits, stop_bits, parity, enabled, description, sensor_model, created_at, updated_at`

func scanSerialConfig(row interface{ Scan(...any) error }) (SerialConfig, error) {
	var c SerialConfig
	var enabled int
	err := row.Scan(&c.ID, &c.Name, &c.PortPath, &c.BaudRate, &c.DataBits, &c.StopBits,
		&c.Parity, &enabled, &c.Description, &c.SensorModel, &c.CreatedAt, &c.UpdatedAt)
	c.Enabled = enabled == 1
	return c, err
}

// GetSerialConfigs returns all serial configurations.
func (db *DB) GetSerialConfigs() ([]SerialConfig, error) {
	query := `SELECT ` + serialConfigColumns + `
	          FROM imu_serial_config
	          ORDER BY created_at ASC`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query serial configs: %w", err)
	}
	defer rows.Close()

	var configs []SerialConfig
	for rows.Next() {
		c, err := scanSerialConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan serial config: %w", err)
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// GetSerialConfig returns a single serial configuration by ID, or nil when no
// such row exists.
func (db *DB) GetSerialConfig(id int) (*SerialConfig, error) {
	query := `SELECT ` + serialConfigColumns + `
	          FROM imu_serial_config
	          WHERE id = ?`

	c, err := scanSerialConfig(db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get serial config: %w", err)
	}
	return &c, nil
}

// GetEnabledSerialConfigs returns all enabled serial configurations.
func (db *DB) GetEnabledSerialConfigs() ([]SerialConfig, error) {
	query := `SELECT ` + serialConfigColumns + `
	          FROM imu_serial_config
	          WHERE enabled = 1
	          ORDER BY created_at ASC`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query enabled serial configs: %w", err)
	}
	defer rows.Close()

	var configs []SerialConfig
	for rows.Next() {
		c, err := scanSerialConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan serial config: %w", err)
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// UpdateSerialConfig rewrites an existing serial configuration.
func (db *DB) UpdateSerialConfig(c SerialConfig) error {
	enabled := 0
	if c.Enabled {
		enabled = 1
	}
	res, err := db.Exec(`
		UPDATE imu_serial_config
		SET name = ?, port_path = ?, baud_rate = ?, data_bits = ?, stop_bits = ?,
		    parity = ?, enabled = ?, description = ?, sensor_model = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.PortPath, c.BaudRate, c.DataBits, c.StopBits, c.Parity,
		enabled, c.Description, c.SensorModel, time.Now().Unix(), c.ID)
	if err != nil {
		return fmt.Errorf("failed to update serial config: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("serial config %d not found", c.ID)
	}
	return nil
}

// DeleteSerialConfig removes a serial configuration by ID.
func (db *DB) DeleteSerialConfig(id int) error {
	res, err := db.Exec(`DELETE FROM imu_serial_config WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete serial config: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("serial config %d not found", id)
	}
	return nil
}

// InsertSerialConfig stores a new serial configuration and returns its ID.
func (db *DB) InsertSerialConfig(c SerialConfig) (int, error) {
	now := time.Now().Unix()
	enabled := 0
	if c.Enabled {
		enabled = 1
	}
	res, err := db.Exec(`
		INSERT INTO imu_serial_config
			(name, port_path, baud_rate, data_bits, stop_bits, parity, enabled, description, sensor_model, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.PortPath, c.BaudRate, c.DataBits, c.StopBits, c.Parity,
		enabled, c.Description, c.SensorModel, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert serial config: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read serial config id: %w", err)
	}
	return int(id), nil
}
