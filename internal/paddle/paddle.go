// Package paddle holds the screen geometry and the two paddle update rules:
// angle-driven tracking with hard clamps, and a bang-bang bounce.
package paddle

import (
	"fmt"

	"tiltpaddle/internal/fixed"
)

// Geometry is fixed for the life of the process.
type Geometry struct {
	Width        int
	Height       int
	PaddleLength int
	PaddleWidth  int
	LeftX        int
	RightX       int
}

func DefaultGeometry() Geometry {
	return Geometry{
		Width:        640,
		Height:       480,
		PaddleLength: 40,
		PaddleWidth:  10,
		LeftX:        40,
		RightX:       590,
	}
}

func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("paddle: screen %dx%d must be positive", g.Width, g.Height)
	}
	if g.PaddleLength <= 0 || g.PaddleLength > g.Height {
		return fmt.Errorf("paddle: length %d must be in (0, %d]", g.PaddleLength, g.Height)
	}
	if g.PaddleWidth <= 0 {
		return fmt.Errorf("paddle: width %d must be positive", g.PaddleWidth)
	}
	for _, x := range []int{g.LeftX, g.RightX} {
		if x < 0 || x+g.PaddleWidth > g.Width {
			return fmt.Errorf("paddle: x=%d does not fit a %d-wide paddle on a %d-wide screen", x, g.PaddleWidth, g.Width)
		}
	}
	return nil
}

// Bottom is the largest legal Y: the paddle's lower edge on the screen edge.
func (g Geometry) Bottom() fixed.Q16 {
	return fixed.FromInt(g.Height - g.PaddleLength)
}

// Center is the Y that puts the paddle's top edge at mid-screen.
func (g Geometry) Center() fixed.Q16 {
	return fixed.FromInt(g.Height / 2)
}

// State is one paddle's vertical position (top edge) and velocity in
// pixels per tick.
type State struct {
	Y  fixed.Q16
	VY fixed.Q16
}

// Track sets the velocity from the control law and moves by it, clamping
// against the pre-update position: Y+v at or above the top edge pins to 0,
// Y+v+length at or past the bottom pins the lower edge to the screen edge.
func (g Geometry) Track(s *State, v fixed.Q16) {
	s.VY = v
	next := fixed.Add(s.Y, v)
	switch {
	case next <= 0:
		s.Y = 0
	case fixed.Add(next, fixed.FromInt(g.PaddleLength)) >= fixed.FromInt(g.Height):
		s.Y = g.Bottom()
	default:
		s.Y = next
	}
}

// Bounce reverses direction on contact with either edge and then moves by
// the velocity. speed is the magnitude used after a reversal; between
// contacts the velocity is left as is.
//
// The move itself is committed through the same bounds as Track, so a step
// that would overshoot lands exactly on the edge and reverses next tick.
func (g Geometry) Bounce(s *State, speed fixed.Q16) {
	speed = speed.Abs()
	if s.Y <= 0 {
		s.VY = speed
	}
	if fixed.Add(s.Y, fixed.FromInt(g.PaddleLength)) >= fixed.FromInt(g.Height) {
		s.VY = speed.Neg()
	}
	s.Y = fixed.Add(s.Y, s.VY).Clamp(0, g.Bottom())
}

// InBounds reports whether the paddle lies fully on screen.
func (g Geometry) InBounds(s State) bool {
	return s.Y >= 0 && fixed.Add(s.Y, fixed.FromInt(g.PaddleLength)) <= fixed.FromInt(g.Height)
}
