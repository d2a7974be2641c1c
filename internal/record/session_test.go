package record

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vibration.report/internal/analysis"
)

func testFrame(ts int64) *analysis.Frame {
	return &analysis.Frame{
		TimestampMS: ts,
		Date:        "2024-01-01",
		Time:        "12:00:00.000",
		AxG:         0.5,
		Magnitude:   0.5,
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestSanitizeReadingType(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"walk", "walk"},
		{"walk run", "walk_run"},
		{"walk/run?", "walk_run_"},
		{"Walk-2_fast", "Walk-2_fast"},
		{"", ""},
		{"héllo", "h_llo"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, sanitizeReadingType(tt.in))
	}
}

func TestStartStopWithZeroAppends(t *testing.T) {
	r := NewRecorder(t.TempDir())

	meta, _, err := r.Start("walk", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "walk", meta.ReadingType)
	assert.True(t, strings.HasPrefix(filepath.Base(meta.Filename), "2024-01-01_walk_"))
	assert.True(t, strings.HasSuffix(meta.Filename, ".csv"))
	assert.NotEmpty(t, meta.ID)
	assert.NotEmpty(t, meta.StartTime)

	stopped := r.Stop()
	assert.Equal(t, meta.Filename, stopped.Filename)

	rows := readRows(t, meta.Filename)
	require.Len(t, rows, 1, "file should contain exactly the header row")
	assert.Equal(t, Header, rows[0])
}

func TestAppendWritesOneRowPerFrame(t *testing.T) {
	r := NewRecorder(t.TempDir())
	meta, _, err := r.Start("run", "2024-02-02")
	require.NoError(t, err)

	const n = 5
	for i := 0; i < n; i++ {
		r.Append(testFrame(int64(1000 + i)))
	}
	assert.Equal(t, int64(n), r.Frames())
	r.Stop()

	rows := readRows(t, meta.Filename)
	require.Len(t, rows, 1+n)
	for i := 0; i < n; i++ {
		assert.Equal(t, "2024-01-01", rows[1+i][0])
		assert.Equal(t, strconv.Itoa(1000+i), rows[1+i][2])
	}
}

func TestAppendRowTimestampsMatchFrames(t *testing.T) {
	r := NewRecorder(t.TempDir())
	meta, _, err := r.Start("jump", "2024-03-03")
	require.NoError(t, err)

	for _, ts := range []int64{10, 20, 30} {
		r.Append(testFrame(ts))
	}
	r.Stop()

	rows := readRows(t, meta.Filename)
	require.Len(t, rows, 4)
	assert.Equal(t, "10", rows[1][2])
	assert.Equal(t, "20", rows[2][2])
	assert.Equal(t, "30", rows[3][2])
}

func TestAppendFillsZeroForAbsentStats(t *testing.T) {
	r := NewRecorder(t.TempDir())
	meta, _, err := r.Start("sit", "2024-04-04")
	require.NoError(t, err)

	f := testFrame(1)
	f.Rolling = &analysis.RollingStats{MeanMagnitude: 0.25}
	r.Append(f) // RMS still absent
	r.Stop()

	rows := readRows(t, meta.Filename)
	require.Len(t, rows, 2)
	assert.Equal(t, "0.25", rows[1][10])
	assert.Equal(t, "0", rows[1][11])
}

func TestAppendWhileIdleIsNoOp(t *testing.T) {
	r := NewRecorder(t.TempDir())
	r.Append(testFrame(1))
	assert.Equal(t, int64(0), r.Frames())
}

func TestStopWhileIdleReturnsEmptyMeta(t *testing.T) {
	r := NewRecorder(t.TempDir())
	meta := r.Stop()
	assert.Equal(t, SessionMeta{}, meta)
}

func TestStartWhileActiveClosesPreviousFile(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir)

	first, displaced, err := r.Start("walk", "2024-01-01")
	require.NoError(t, err)
	require.Nil(t, displaced, "first start displaces nothing")
	r.Append(testFrame(1))

	second, displaced, err := r.Start("run", "2024-01-01")
	require.NoError(t, err)
	assert.NotEqual(t, first.Filename, second.Filename)

	// The displaced session is reported with its final frame count so the
	// caller can complete its catalog entry.
	require.NotNil(t, displaced)
	assert.Equal(t, first.ID, displaced.Meta.ID)
	assert.Equal(t, int64(1), displaced.Frames)

	// The first file is closed and complete: header + its one row.
	rows := readRows(t, first.Filename)
	assert.Len(t, rows, 2)

	// Appends now land in the second file only.
	r.Append(testFrame(2))
	r.Stop()
	rows = readRows(t, second.Filename)
	require.Len(t, rows, 2)
	assert.Equal(t, "2", rows[1][2])
}

func TestStartFailureLeavesRecorderIdle(t *testing.T) {
	// A file standing where the recordings directory should be makes
	// MkdirAll fail.
	dir := t.TempDir()
	blocked := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	r := NewRecorder(blocked)
	_, _, err := r.Start("walk", "2024-01-01")
	require.Error(t, err)

	active, _ := r.Status()
	assert.False(t, active)
}

func TestStatusReflectsSession(t *testing.T) {
	r := NewRecorder(t.TempDir())

	active, meta := r.Status()
	assert.False(t, active)
	assert.Empty(t, meta.Filename)

	started, _, err := r.Start("walk", "")
	require.NoError(t, err)

	active, meta = r.Status()
	assert.True(t, active)
	assert.Equal(t, started.Filename, meta.Filename)
	assert.NotEmpty(t, meta.Date, "empty date defaults to today")
}
