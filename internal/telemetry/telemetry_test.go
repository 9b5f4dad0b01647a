package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tiltpaddle/internal/fixed"
	"tiltpaddle/internal/sched"
	"tiltpaddle/internal/state"
)

type fakeSender struct {
	payloads [][]byte
	err      error
}

func (s *fakeSender) Send(p []byte) error {
	if s.err != nil {
		return s.err
	}
	s.payloads = append(s.payloads, append([]byte(nil), p...))
	return nil
}

func TestTask_SendsSnapshot(t *testing.T) {
	var board state.Board
	board.Angle.Store(fixed.FromInt(90))
	board.Paddle1.Store(fixed.FromInt(100))
	board.Paddle2.Store(fixed.FromFloat(12.5))
	tun := &state.Tunables{}
	tun.Kp.Store(fixed.FromFloat(0.5))
	tun.Level.Store(fixed.FromInt(90))
	tun.SetThresholdMicros(10)

	out := &fakeSender{}
	task := NewTask(&board, tun, out)

	for i := 0; i < 2; i++ {
		if st := task.Step(context.Background()); st != sched.Yield {
			t.Fatalf("status=%v want yield", st)
		}
	}
	if len(out.payloads) != 2 || task.Sent() != 2 {
		t.Fatalf("payloads=%d sent=%d want 2", len(out.payloads), task.Sent())
	}

	var f Frame
	if err := json.Unmarshal(out.payloads[1], &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := Frame{Seq: 1, AngleDeg: 90, Paddle1Y: 100, Paddle2Y: 12.5, Kp: 0.5, LevelDeg: 90, ThresholdUS: 10}
	if f != want {
		t.Fatalf("frame=%+v want %+v", f, want)
	}

	var raw map[string]any
	if err := json.Unmarshal(out.payloads[0], &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"seq", "angle_deg", "paddle1_y", "paddle2_y"} {
		if _, ok := raw[k]; !ok {
			t.Fatalf("missing key %q in %s", k, out.payloads[0])
		}
	}
}

func TestTask_SendErrorKeepsRunning(t *testing.T) {
	var board state.Board
	out := &fakeSender{err: errors.New("unreachable")}
	task := NewTask(&board, nil, out)

	for i := 0; i < 3; i++ {
		if st := task.Step(context.Background()); st != sched.Yield {
			t.Fatalf("status=%v want yield", st)
		}
	}
	if task.Errors() != 3 || task.Sent() != 0 {
		t.Fatalf("errors=%d sent=%d", task.Errors(), task.Sent())
	}

	out.err = nil
	task.Step(context.Background())
	if task.Sent() != 1 {
		t.Fatalf("sent=%d want 1", task.Sent())
	}
	var f Frame
	if err := json.Unmarshal(out.payloads[0], &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Seq != 3 {
		t.Fatalf("seq=%d want 3 (failed sends still consume a number)", f.Seq)
	}
}

func TestTask_PacedSendsOncePerInterval(t *testing.T) {
	var board state.Board
	out := &fakeSender{}
	paced := sched.Paced(NewTask(&board, nil, out), func() time.Duration { return time.Hour })

	if st := paced.Step(context.Background()); st != sched.Yield {
		t.Fatalf("first status=%v want yield", st)
	}
	for i := 0; i < 5; i++ {
		if st := paced.Step(context.Background()); st != sched.Blocked {
			t.Fatalf("status=%v want blocked", st)
		}
	}
	if len(out.payloads) != 1 {
		t.Fatalf("payloads=%d want 1", len(out.payloads))
	}
}
