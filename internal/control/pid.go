package control

import (
	"tiltpaddle/internal/fixed"
	"tiltpaddle/internal/state"
)

// PID is a fixed-point PID law whose gains and setpoint are read from
// Tunables on every call, so they can be retuned while running.
//
// error = level - angle (classic setpoint - measurement), so with a positive
// Kp, tilting past level drives the paddle up. The integral and derivative
// use the fixed estimator tick as dt. Output is clamped to +-limit.
//
// Not safe for concurrent use.
type PID struct {
	t     *state.Tunables
	limit fixed.Q16
	dt    fixed.Q16

	integral  fixed.Q16
	prevError fixed.Q16
	havePrev  bool
	lastLevel fixed.Q16
	haveLevel bool
}

func NewPID(t *state.Tunables, limit, dt fixed.Q16) *PID {
	return &PID{t: t, limit: limit.Abs(), dt: dt}
}

// Reset drops integral and derivative history.
func (p *PID) Reset() {
	p.integral = 0
	p.prevError = 0
	p.havePrev = false
}

func (p *PID) Velocity(angle fixed.Q16) fixed.Q16 {
	kp := p.t.Kp.Load()
	ki := p.t.Ki.Load()
	kd := p.t.Kd.Load()
	level := p.t.Level.Load()

	// A new setpoint starts from clean history.
	if p.haveLevel && level != p.lastLevel {
		p.Reset()
	}
	p.lastLevel = level
	p.haveLevel = true

	err := fixed.Sub(level, angle)
	p.integral = fixed.Add(p.integral, fixed.Mul(err, p.dt))

	derivative := fixed.Q16(0)
	if p.havePrev {
		derivative = fixed.Div(fixed.Sub(err, p.prevError), p.dt)
	}
	p.prevError = err
	p.havePrev = true

	out := fixed.Add(
		fixed.Add(fixed.Mul(kp, err), fixed.Mul(ki, p.integral)),
		fixed.Mul(kd, derivative),
	)
	return out.Clamp(p.limit.Neg(), p.limit)
}
