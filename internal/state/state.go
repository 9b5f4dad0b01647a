// Package state is the only state shared between tasks. Every field has
// exactly one writer, named on the field; everyone else only loads.
package state

import (
	"sync/atomic"
	"time"

	"tiltpaddle/internal/fixed"
)

// Board publishes what the paddle tasks computed this tick.
type Board struct {
	// Angle is the clamped filtered angle in degrees. Writer: tracker task.
	Angle fixed.Atomic
	// Paddle1 is the angle-driven paddle's Y. Writer: tracker task.
	Paddle1 fixed.Atomic
	// Paddle2 is the bouncing paddle's Y. Writer: bouncer task.
	Paddle2 fixed.Atomic
}

// BoardSnapshot is a point-in-time read of a Board. Fields are loaded one
// at a time, so a snapshot may mix ticks.
type BoardSnapshot struct {
	Angle   fixed.Q16
	Paddle1 fixed.Q16
	Paddle2 fixed.Q16
}

func (b *Board) Snapshot() BoardSnapshot {
	return BoardSnapshot{
		Angle:   b.Angle.Load(),
		Paddle1: b.Paddle1.Load(),
		Paddle2: b.Paddle2.Load(),
	}
}

// Tunables are live control parameters. Writer: command task (initial
// values are stored before any worker starts).
type Tunables struct {
	Kp    fixed.Atomic
	Ki    fixed.Atomic
	Kd    fixed.Atomic
	Level fixed.Atomic

	// threshold is the draw-speed yield delay in microseconds.
	threshold atomic.Int32
}

func (t *Tunables) Threshold() time.Duration {
	return time.Duration(t.threshold.Load()) * time.Microsecond
}

func (t *Tunables) SetThresholdMicros(us int32) {
	if us < 0 {
		us = 0
	}
	t.threshold.Store(us)
}

func (t *Tunables) ThresholdMicros() int32 {
	return t.threshold.Load()
}
