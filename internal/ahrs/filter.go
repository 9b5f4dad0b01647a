// Package ahrs estimates a single hinge angle from accel+gyro readings with a
// fixed-point complementary filter.
package ahrs

import (
	"math"

	"tiltpaddle/internal/fixed"
	"tiltpaddle/internal/imu"
)

var (
	// TickPeriod is the gyro integration step in seconds.
	TickPeriod = fixed.FromFloat(0.001)

	// AccelWeight and GyroWeight blend the two angle sources. GyroWeight is
	// derived so the pair sums to exactly fixed.One.
	AccelWeight = fixed.FromFloat(0.001)
	GyroWeight  = fixed.One - AccelWeight

	DegPerRad = fixed.FromFloat(180 / math.Pi)

	MinAngle = fixed.FromInt(0)
	MaxAngle = fixed.FromInt(180)
)

// Axis assignment for a board mounted with the hinge along X.
const (
	axisA    = imu.Z
	axisB    = imu.Y
	axisGyro = imu.X
)

// LowPassShift gives the 1/16 smoothing coefficient used for both the
// accelerometer axes and the fused angle.
const LowPassShift = 4

// LowPass is a single-pole IIR filter y += (x - y) * k with k = 2^-Shift.
//
// The coefficient is a power of two, so Mul by it equals an arithmetic right
// shift of the difference: negative differences round toward -inf.
type LowPass struct {
	Shift uint
	Y     fixed.Q16
}

func (f LowPass) Coefficient() fixed.Q16 {
	return fixed.One.Shr(f.Shift)
}

func (f *LowPass) Update(x fixed.Q16) fixed.Q16 {
	f.Y = fixed.Add(f.Y, fixed.Mul(fixed.Sub(x, f.Y), f.Coefficient()))
	return f.Y
}

// State is the filter's per-tick working set. It belongs to the task that
// calls Update and is never shared.
type State struct {
	FilteredA     fixed.Q16
	FilteredB     fixed.Q16
	AccelAngle    fixed.Q16
	GyroDelta     fixed.Q16
	Complementary fixed.Q16
	Angle         fixed.Q16
}

// Filter is not safe for concurrent use.
type Filter struct {
	a, b LowPass
	out  LowPass
	st   State
}

func NewFilter() *Filter {
	return &Filter{
		a:   LowPass{Shift: LowPassShift},
		b:   LowPass{Shift: LowPassShift},
		out: LowPass{Shift: LowPassShift},
	}
}

// State returns a copy of the current working set.
func (f *Filter) State() State {
	return f.st
}

// Angle returns the last clamped output in degrees.
func (f *Filter) Angle() fixed.Q16 {
	return f.st.Angle
}

// Update folds one sample into the estimate and returns the clamped angle in
// degrees, within [0, 180]. Each step reads the value the previous step just
// wrote.
func (f *Filter) Update(s imu.Sample) fixed.Q16 {
	f.st.FilteredA = f.a.Update(s.Accel[axisA])
	f.st.FilteredB = f.b.Update(s.Accel[axisB])

	f.st.AccelAngle = AccelAngle(f.st.FilteredA, f.st.FilteredB)

	f.st.GyroDelta = fixed.Mul(s.Gyro[axisGyro], TickPeriod)

	f.st.Complementary = fixed.Add(
		fixed.Mul(fixed.Add(f.st.Complementary, f.st.GyroDelta), GyroWeight),
		fixed.Mul(f.st.AccelAngle, AccelWeight),
	)

	// The hinge has end-stops: clamp the filter's own history, not just
	// the returned value.
	f.out.Y = f.out.Update(f.st.Complementary).Clamp(MinAngle, MaxAngle)
	f.st.Angle = f.out.Y
	return f.st.Angle
}

// AccelAngle returns atan2(-a, b) shifted by +pi, in degrees, so the result
// lies in [0, 360]. atan2(0, 0) is defined as 0, giving 180.
func AccelAngle(a, b fixed.Q16) fixed.Q16 {
	theta := 0.0
	if a != 0 || b != 0 {
		theta = math.Atan2(a.Neg().Float(), b.Float())
	}
	return fixed.Mul(fixed.FromFloat(theta+math.Pi), DegPerRad)
}
