package imu

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineCSV(t *testing.T) {
	s, err := ParseLine("1718000000123,100,-200,16384,50,-60,131")
	require.NoError(t, err)

	want := RawSample{
		TimestampMS: 1718000000123,
		Ax:          100, Ay: -200, Az: 16384,
		Gx: 50, Gy: -60, Gz: 131,
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("sample mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLineCSVWithWhitespace(t *testing.T) {
	s, err := ParseLine("  123, 1, 2, 3, 4, 5, 6 \r\n")
	require.NoError(t, err)
	assert.Equal(t, int64(123), s.TimestampMS)
	assert.Equal(t, int64(6), s.Gz)
}

func TestParseLineJSON(t *testing.T) {
	s, err := ParseLine(`{"timestamp_ms":42,"ax":1,"ay":2,"az":3,"gx":4,"gy":5,"gz":6}`)
	require.NoError(t, err)

	want := RawSample{TimestampMS: 42, Ax: 1, Ay: 2, Az: 3, Gx: 4, Gy: 5, Gz: 6}
	assert.Equal(t, want, s)
}

func TestParseLineJSONMissingFieldsDefaultZero(t *testing.T) {
	s, err := ParseLine(`{"timestamp_ms":42,"ax":7}`)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.Ax)
	assert.Zero(t, s.Ay)
	assert.Zero(t, s.Gz)
}

func TestParseLineJSONMissingTimestampUsesWallClock(t *testing.T) {
	before := time.Now().UnixMilli()
	s, err := ParseLine(`{"ax":1}`)
	after := time.Now().UnixMilli()

	require.NoError(t, err)
	assert.GreaterOrEqual(t, s.TimestampMS, before)
	assert.LessOrEqual(t, s.TimestampMS, after)
}

func TestParseLineMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too few fields", "1,2,3"},
		{"non-integer field", "1,2,3,x,5,6,7"},
		{"float field", "1,2.5,3,4,5,6,7"},
		{"broken json", `{"ax":`},
		{"json with string axis", `{"ax":"fast"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine(tt.line)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedLine), "error should wrap ErrMalformedLine")
		})
	}
}

func TestConvert(t *testing.T) {
	p := Convert(RawSample{TimestampMS: 99, Ax: 16384, Ay: -8192, Az: 0, Gx: 131, Gy: -262, Gz: 0})

	assert.Equal(t, int64(99), p.TimestampMS)
	assert.Equal(t, 1.0, p.AxG)
	assert.Equal(t, -0.5, p.AyG)
	assert.Equal(t, 0.0, p.AzG)
	assert.Equal(t, 1.0, p.GxDPS)
	assert.Equal(t, -2.0, p.GyDPS)
	assert.Equal(t, 0.0, p.GzDPS)
}
