package sim

import (
	"math"
	"time"

	"tiltpaddle/internal/fixed"
	"tiltpaddle/internal/imu"
)

// TiltSim swings a hinge around level (90 deg) and reports the accel/gyro
// readings an IMU strapped to it would produce.
type TiltSim struct {
	Period       time.Duration
	AmplitudeDeg float64
}

func (s TiltSim) period() time.Duration {
	if s.Period <= 0 {
		return 4 * time.Second
	}
	return s.Period
}

// Kinematics returns the hinge angle in degrees and its rate in deg/s.
//
// angle = 90 + A*sin(w), rate is its derivative.
func (s TiltSim) Kinematics(now time.Time) (angleDeg, rateDegPerSec float64) {
	p := s.period()
	phase := float64(now.UnixNano()%p.Nanoseconds()) / float64(p.Nanoseconds())
	w := 2 * math.Pi * phase

	angleDeg = 90 + s.AmplitudeDeg*math.Sin(w)
	rateDegPerSec = s.AmplitudeDeg * (2 * math.Pi / p.Seconds()) * math.Cos(w)
	return angleDeg, rateDegPerSec
}

// SampleAt builds the reading for time now. Gravity is projected onto the
// Y/Z axes so that atan2(-az, ay)+pi recovers the hinge angle, and the hinge
// rotates about X.
func (s TiltSim) SampleAt(now time.Time) imu.Sample {
	angleDeg, rate := s.Kinematics(now)
	th := angleDeg * math.Pi / 180

	var out imu.Sample
	out.Accel[imu.Y] = fixed.FromFloat(-math.Cos(th))
	out.Accel[imu.Z] = fixed.FromFloat(math.Sin(th))
	out.Gyro[imu.X] = fixed.FromFloat(rate)
	return out
}

// Source adapts a TiltSim to imu.Source using a wall clock.
type Source struct {
	Sim TiltSim
	Now func() time.Time
}

func NewSource(s TiltSim) *Source {
	return &Source{Sim: s, Now: time.Now}
}

func (s *Source) ReadRawSample() (imu.Sample, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return s.Sim.SampleAt(now()), nil
}

var _ imu.Source = (*Source)(nil)
