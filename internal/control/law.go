// Package control maps the filtered hinge angle to a paddle velocity.
package control

import (
	"tiltpaddle/internal/fixed"
)

// Law turns an angle in degrees into a velocity in pixels per tick.
type Law interface {
	Velocity(angle fixed.Q16) fixed.Q16
}

var (
	// LevelAngle is the angle at which RateLaw commands zero velocity.
	LevelAngle = fixed.FromInt(90)
	// DegreesPerPixel is how much tilt adds one pixel per tick of speed.
	DegreesPerPixel = fixed.FromInt(10)
)

// RateLaw is (angle - 90) / 10: level holds still, 10 deg of tilt is one
// pixel per tick, tilting past level toward 180 moves the paddle down.
type RateLaw struct{}

func (RateLaw) Velocity(angle fixed.Q16) fixed.Q16 {
	return fixed.Div(fixed.Sub(angle, LevelAngle), DegreesPerPixel)
}
