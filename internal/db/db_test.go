package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vibration.report/internal/record"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSerialConfigRoundTrip(t *testing.T) {
	db := newTestDB(t)

	id, err := db.InsertSerialConfig(SerialConfig{
		Name:        "bench rig",
		PortPath:    "/dev/ttyUSB0",
		BaudRate:    115200,
		DataBits:    8,
		StopBits:    1,
		Parity:      "N",
		Enabled:     true,
		SensorModel: "mpu6050",
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	c, err := db.GetSerialConfig(id)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "bench rig", c.Name)
	assert.Equal(t, 115200, c.BaudRate)
	assert.True(t, c.Enabled)
	assert.NotZero(t, c.CreatedAt)
}

func TestGetSerialConfigMissing(t *testing.T) {
	db := newTestDB(t)
	c, err := db.GetSerialConfig(12345)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestGetEnabledSerialConfigs(t *testing.T) {
	db := newTestDB(t)

	_, err := db.InsertSerialConfig(SerialConfig{Name: "on", PortPath: "/dev/ttyUSB0", Enabled: true})
	require.NoError(t, err)
	_, err = db.InsertSerialConfig(SerialConfig{Name: "off", PortPath: "/dev/ttyUSB1", Enabled: false})
	require.NoError(t, err)

	all, err := db.GetSerialConfigs()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	enabled, err := db.GetEnabledSerialConfigs()
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "on", enabled[0].Name)
}

func TestSessionCatalog(t *testing.T) {
	db := newTestDB(t)

	meta := record.SessionMeta{
		ID:          "abc-123",
		ReadingType: "walk",
		Date:        "2024-01-01",
		Filename:    "recordings/2024-01-01_walk_20240101_120000.csv",
		StartTime:   "2024-01-01T12:00:00Z",
	}
	require.NoError(t, db.RecordSessionStart(meta))

	sessions, err := db.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "walk", sessions[0].ReadingType)
	assert.Empty(t, sessions[0].StoppedAt)
	assert.Zero(t, sessions[0].Frames)

	require.NoError(t, db.RecordSessionStop("abc-123", 42))

	sessions, err = db.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.NotEmpty(t, sessions[0].StoppedAt)
	assert.Equal(t, int64(42), sessions[0].Frames)
}
