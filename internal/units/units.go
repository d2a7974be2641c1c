// Package units provides calibration constants and conversion helpers for the
// MPU6050 inertial sensor.
package units

// Sensor scale factors for the configured measurement ranges. These are fixed
// properties of the MPU6050 register configuration, not runtime-tunable.
const (
	// AccelScale is the accelerometer sensitivity in LSB per g at the ±2g range.
	AccelScale = 16384.0

	// GyroScale is the gyroscope sensitivity in LSB per °/s at the ±250°/s range.
	GyroScale = 131.0
)

// ToG converts a raw accelerometer count to acceleration in g.
func ToG(raw int64) float64 {
	return float64(raw) / AccelScale
}

// ToDPS converts a raw gyroscope count to angular rate in degrees per second.
func ToDPS(raw int64) float64 {
	return float64(raw) / GyroScale
}
