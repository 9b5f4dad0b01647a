package control

import (
	"testing"

	"tiltpaddle/internal/fixed"
)

func TestRateLaw(t *testing.T) {
	cases := []struct {
		angle, want fixed.Q16
	}{
		{fixed.FromInt(90), 0},
		{fixed.FromInt(100), fixed.One},
		{fixed.FromInt(80), -fixed.One},
		{fixed.FromInt(180), fixed.FromInt(9)},
		{0, fixed.FromInt(-9)},
		{fixed.FromInt(95), fixed.FromFloat(0.5)},
	}
	var law RateLaw
	for _, tc := range cases {
		if got := law.Velocity(tc.angle); got != tc.want {
			t.Fatalf("angle=%v got=%v want %v", tc.angle, got, tc.want)
		}
	}
}

func TestRateLaw_NearLevelIsNearlyStill(t *testing.T) {
	var law RateLaw
	v := law.Velocity(fixed.FromFloat(89.985))
	if v.Abs() > fixed.FromFloat(0.01) {
		t.Fatalf("v=%v want ~0", v)
	}
}
