// Package imu defines the accelerometer/gyro sample exchanged between sensor
// drivers and the angle estimator.
package imu

import "tiltpaddle/internal/fixed"

// Axis indexes into Sample vectors.
const (
	X = 0
	Y = 1
	Z = 2
)

// Sample is one synchronized accel+gyro reading.
type Sample struct {
	// Accel in g.
	Accel [3]fixed.Q16
	// Gyro in deg/s.
	Gyro [3]fixed.Q16
}

// Source returns the most recent reading. Implementations must not block
// for longer than one bus transaction.
type Source interface {
	ReadRawSample() (Sample, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (Sample, error)

func (f SourceFunc) ReadRawSample() (Sample, error) { return f() }
