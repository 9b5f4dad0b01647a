// Package telemetry publishes board snapshots as JSON datagrams.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"

	"tiltpaddle/internal/sched"
	"tiltpaddle/internal/state"
)

type Sender interface {
	Send(payload []byte) error
}

// Frame is one datagram. Values are in degrees and pixels.
type Frame struct {
	Seq         uint64  `json:"seq"`
	AngleDeg    float64 `json:"angle_deg"`
	Paddle1Y    float64 `json:"paddle1_y"`
	Paddle2Y    float64 `json:"paddle2_y"`
	Kp          float64 `json:"kp"`
	Ki          float64 `json:"ki"`
	Kd          float64 `json:"kd"`
	LevelDeg    float64 `json:"level_deg"`
	ThresholdUS int32   `json:"threshold_us"`
}

// Task reads only published fields and never writes shared state. Wrap it
// in sched.Paced to set the send rate.
type Task struct {
	board *state.Board
	tun   *state.Tunables
	out   Sender

	seq     uint64
	failing bool

	sent   atomic.Uint64
	errors atomic.Uint64
}

func NewTask(board *state.Board, tun *state.Tunables, out Sender) *Task {
	return &Task{board: board, tun: tun, out: out}
}

func (t *Task) Name() string { return "telemetry" }

func (t *Task) Sent() uint64   { return t.sent.Load() }
func (t *Task) Errors() uint64 { return t.errors.Load() }

func (t *Task) Snapshot() Frame {
	b := t.board.Snapshot()
	f := Frame{
		Seq:      t.seq,
		AngleDeg: b.Angle.Float(),
		Paddle1Y: b.Paddle1.Float(),
		Paddle2Y: b.Paddle2.Float(),
	}
	if t.tun != nil {
		f.Kp = t.tun.Kp.Load().Float()
		f.Ki = t.tun.Ki.Load().Float()
		f.Kd = t.tun.Kd.Load().Float()
		f.LevelDeg = t.tun.Level.Load().Float()
		f.ThresholdUS = t.tun.ThresholdMicros()
	}
	return f
}

func Encode(f Frame) ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("telemetry: encode: %w", err)
	}
	return b, nil
}

// Step sends one frame. A send failure is counted and logged once per
// outage; it never stops the task.
func (t *Task) Step(ctx context.Context) sched.Status {
	payload, err := Encode(t.Snapshot())
	t.seq++
	if err == nil {
		err = t.out.Send(payload)
	}
	if err != nil {
		t.errors.Add(1)
		if !t.failing {
			log.Printf("telemetry: %v", err)
		}
		t.failing = true
		return sched.Yield
	}
	if t.failing {
		log.Printf("telemetry: sending again after %d errors", t.errors.Load())
	}
	t.failing = false
	t.sent.Add(1)
	return sched.Yield
}
