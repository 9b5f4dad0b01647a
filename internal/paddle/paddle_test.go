package paddle

import (
	"math/rand"
	"testing"

	"tiltpaddle/internal/fixed"
)

func TestDefaultGeometry_Valid(t *testing.T) {
	g := DefaultGeometry()
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if g.Bottom() != fixed.FromInt(440) {
		t.Fatalf("bottom=%v want 440", g.Bottom())
	}
}

func TestGeometry_ValidateRejects(t *testing.T) {
	bad := []Geometry{
		{Width: 0, Height: 480, PaddleLength: 40, PaddleWidth: 10},
		{Width: 640, Height: 480, PaddleLength: 500, PaddleWidth: 10},
		{Width: 640, Height: 480, PaddleLength: 40, PaddleWidth: 0},
		{Width: 640, Height: 480, PaddleLength: 40, PaddleWidth: 10, LeftX: 40, RightX: 635},
	}
	for i, g := range bad {
		if err := g.Validate(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestTrack_ThreeWayClamp(t *testing.T) {
	g := DefaultGeometry()
	cases := []struct {
		name  string
		y, v  fixed.Q16
		wantY fixed.Q16
	}{
		{"free move", fixed.FromInt(240), fixed.FromFloat(2.5), fixed.FromFloat(242.5)},
		{"top clamp", fixed.FromInt(3), fixed.FromInt(-9), 0},
		{"top exact", fixed.FromInt(3), fixed.FromInt(-3), 0},
		{"bottom clamp", fixed.FromInt(435), fixed.FromInt(9), fixed.FromInt(440)},
		{"bottom exact", fixed.FromInt(430), fixed.FromInt(10), fixed.FromInt(440)},
		{"at rest", fixed.FromInt(100), 0, fixed.FromInt(100)},
	}
	for _, tc := range cases {
		s := State{Y: tc.y}
		g.Track(&s, tc.v)
		if s.Y != tc.wantY {
			t.Fatalf("%s: y=%v want %v", tc.name, s.Y, tc.wantY)
		}
		if s.VY != tc.v {
			t.Fatalf("%s: vy=%v want %v", tc.name, s.VY, tc.v)
		}
	}
}

func TestTrack_InvariantForAnyStartAndVelocity(t *testing.T) {
	g := DefaultGeometry()
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		s := State{Y: fixed.Q16(r.Int31n(int32(g.Bottom()) + 1))}
		v := fixed.Q16(r.Int31() - r.Int31())
		if i%50 == 0 {
			v = fixed.MaxQ16
		}
		if i%50 == 1 {
			v = fixed.MinQ16
		}
		g.Track(&s, v)
		if !g.InBounds(s) {
			t.Fatalf("y=%v v=%v out of bounds", s.Y, v)
		}
	}
}

func TestBounce_FromTopWithNegativeVelocity(t *testing.T) {
	g := DefaultGeometry()
	speed := fixed.FromInt(5)
	s := State{Y: 0, VY: speed.Neg()}
	g.Bounce(&s, speed)
	if s.VY != speed {
		t.Fatalf("vy=%v want %v", s.VY, speed)
	}
	if s.Y <= 0 {
		t.Fatalf("y=%v did not move away from 0", s.Y)
	}
}

func TestBounce_ReversesAtBottom(t *testing.T) {
	g := DefaultGeometry()
	speed := fixed.FromInt(5)
	s := State{Y: g.Bottom(), VY: speed}
	g.Bounce(&s, speed)
	if s.VY != speed.Neg() {
		t.Fatalf("vy=%v want -5", s.VY)
	}
	if s.Y != fixed.FromInt(435) {
		t.Fatalf("y=%v want 435", s.Y)
	}
}

func TestBounce_KeepsVelocityBetweenEdges(t *testing.T) {
	g := DefaultGeometry()
	s := State{Y: fixed.FromInt(240), VY: fixed.FromFloat(-0.5)}
	g.Bounce(&s, fixed.FromInt(5))
	if s.VY != fixed.FromFloat(-0.5) {
		t.Fatalf("vy=%v want -0.5", s.VY)
	}
	if s.Y != fixed.FromFloat(239.5) {
		t.Fatalf("y=%v want 239.5", s.Y)
	}
}

func TestBounce_OscillatesWithinBounds(t *testing.T) {
	g := DefaultGeometry()
	speed := fixed.FromInt(7)
	s := State{}
	var reversals int
	prev := s.VY
	for i := 0; i < 2000; i++ {
		g.Bounce(&s, speed)
		if !g.InBounds(s) {
			t.Fatalf("tick %d: y=%v out of bounds", i, s.Y)
		}
		if s.VY != prev {
			reversals++
			prev = s.VY
		}
	}
	if reversals < 10 {
		t.Fatalf("reversals=%d want many", reversals)
	}
}
