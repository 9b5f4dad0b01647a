package web

import (
	"time"
)

// StatusSnapshot is what /api/status returns.
type StatusSnapshot struct {
	Service   string `json:"service"`
	NowUTC    string `json:"now_utc"`
	UptimeSec int64  `json:"uptime_sec"`

	Board BoardSnapshot `json:"board"`

	Kp          float64 `json:"kp"`
	Ki          float64 `json:"ki"`
	Kd          float64 `json:"kd"`
	LevelDeg    float64 `json:"level_deg"`
	ThresholdUS int32   `json:"threshold_us"`

	Frames  uint64            `json:"frames"`
	Workers map[string]uint64 `json:"worker_steps,omitempty"`
}

// BoardSnapshot is the published paddle state in degrees and pixels.
type BoardSnapshot struct {
	Seq      uint64  `json:"seq"`
	AngleDeg float64 `json:"angle_deg"`
	Paddle1Y float64 `json:"paddle1_y"`
	Paddle2Y float64 `json:"paddle2_y"`
}

// StatusFunc produces a snapshot on demand. It must be safe to call from
// any goroutine.
type StatusFunc func(now time.Time) StatusSnapshot
