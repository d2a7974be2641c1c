// Package imu defines the sample types produced by an MPU6050 sensor stream
// and the decoder for the two line formats the firmware emits.
package imu

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/vibration.report/internal/units"
)

// ErrMalformedLine is returned when a line cannot be decoded as a sample.
// Callers are expected to skip the line and continue with the stream.
var ErrMalformedLine = errors.New("malformed sample line")

// RawSample is one decoded 6-axis reading in sensor counts.
type RawSample struct {
	TimestampMS int64
	Ax, Ay, Az  int64
	Gx, Gy, Gz  int64
}

// PhysicalSample is a RawSample converted to physical units: acceleration in
// g and angular rate in degrees per second.
type PhysicalSample struct {
	TimestampMS int64   `json:"timestamp_ms"`
	AxG         float64 `json:"ax_g"`
	AyG         float64 `json:"ay_g"`
	AzG         float64 `json:"az_g"`
	GxDPS       float64 `json:"gx_dps"`
	GyDPS       float64 `json:"gy_dps"`
	GzDPS       float64 `json:"gz_dps"`
}

// Convert maps a raw sample to physical units using the fixed MPU6050 scale
// factors.
func Convert(r RawSample) PhysicalSample {
	return PhysicalSample{
		TimestampMS: r.TimestampMS,
		AxG:         units.ToG(r.Ax),
		AyG:         units.ToG(r.Ay),
		AzG:         units.ToG(r.Az),
		GxDPS:       units.ToDPS(r.Gx),
		GyDPS:       units.ToDPS(r.Gy),
		GzDPS:       units.ToDPS(r.Gz),
	}
}

// jsonLine mirrors the JSON object format emitted by the firmware. The
// timestamp is a pointer so a missing field can be distinguished from zero.
type jsonLine struct {
	TimestampMS *int64 `json:"timestamp_ms"`
	Ax          int64  `json:"ax"`
	Ay          int64  `json:"ay"`
	Az          int64  `json:"az"`
	Gx          int64  `json:"gx"`
	Gy          int64  `json:"gy"`
	Gz          int64  `json:"gz"`
}

// ParseLine decodes one line of sensor output. Two encodings are accepted: a
// JSON object with named integer fields, where missing axis fields default to
// zero and a missing timestamp is filled with the current wall clock in
// milliseconds, and a flat comma-separated record
// "timestamp_ms,ax,ay,az,gx,gy,gz" which requires all seven fields.
func ParseLine(line string) (RawSample, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return RawSample{}, fmt.Errorf("%w: empty line", ErrMalformedLine)
	}

	if strings.HasPrefix(line, "{") {
		var j jsonLine
		if err := json.Unmarshal([]byte(line), &j); err != nil {
			return RawSample{}, fmt.Errorf("%w: %v", ErrMalformedLine, err)
		}
		s := RawSample{
			Ax: j.Ax, Ay: j.Ay, Az: j.Az,
			Gx: j.Gx, Gy: j.Gy, Gz: j.Gz,
		}
		if j.TimestampMS != nil {
			s.TimestampMS = *j.TimestampMS
		} else {
			s.TimestampMS = time.Now().UnixMilli()
		}
		return s, nil
	}

	parts := strings.Split(line, ",")
	if len(parts) < 7 {
		return RawSample{}, fmt.Errorf("%w: got %d fields, want 7", ErrMalformedLine, len(parts))
	}
	fields := make([]int64, 7)
	for i := 0; i < 7; i++ {
		v, err := strconv.ParseInt(strings.TrimSpace(parts[i]), 10, 64)
		if err != nil {
			return RawSample{}, fmt.Errorf("%w: field %d: %v", ErrMalformedLine, i, err)
		}
		fields[i] = v
	}
	return RawSample{
		TimestampMS: fields[0],
		Ax:          fields[1],
		Ay:          fields[2],
		Az:          fields[3],
		Gx:          fields[4],
		Gy:          fields[5],
		Gz:          fields[6],
	}, nil
}
