// Package game holds the two paddle tasks. Each step is one whole
// erase, recompute, publish, redraw cycle; nothing yields mid-cycle.
package game

import (
	"context"
	"log"
	"sync/atomic"

	"tiltpaddle/internal/ahrs"
	"tiltpaddle/internal/control"
	"tiltpaddle/internal/display"
	"tiltpaddle/internal/fixed"
	"tiltpaddle/internal/imu"
	"tiltpaddle/internal/paddle"
	"tiltpaddle/internal/sched"
	"tiltpaddle/internal/state"
)

// Tracker moves the left paddle from the filtered tilt angle. It is the
// only writer of Board.Angle and Board.Paddle1.
type Tracker struct {
	geom   paddle.Geometry
	src    imu.Source
	filter *ahrs.Filter
	law    control.Law
	draw   display.Driver
	board  *state.Board

	st         paddle.State
	readFailed bool

	ticks    atomic.Uint64
	readErrs atomic.Uint64
}

func NewTracker(geom paddle.Geometry, src imu.Source, law control.Law, draw display.Driver, board *state.Board) *Tracker {
	t := &Tracker{
		geom:   geom,
		src:    src,
		filter: ahrs.NewFilter(),
		law:    law,
		draw:   draw,
		board:  board,
		st:     paddle.State{Y: geom.Center()},
	}
	t.publish(t.filter.Angle())
	return t
}

func (t *Tracker) Name() string { return "tracker" }

// Ticks counts completed cycles.
func (t *Tracker) Ticks() uint64 { return t.ticks.Load() }

// ReadErrors counts sensor reads that failed.
func (t *Tracker) ReadErrors() uint64 { return t.readErrs.Load() }

func (t *Tracker) State() paddle.State { return t.st }

func (t *Tracker) Filter() *ahrs.Filter { return t.filter }

func (t *Tracker) Step(ctx context.Context) sched.Status {
	t.drawPaddle(display.Black)

	angle := t.filter.Angle()
	sample, err := t.src.ReadRawSample()
	if err != nil {
		t.readErrs.Add(1)
		if !t.readFailed {
			log.Printf("tracker: sensor read failed, holding %s deg: %v", angle, err)
		}
		t.readFailed = true
	} else {
		if t.readFailed {
			log.Printf("tracker: sensor read recovered after %d errors", t.readErrs.Load())
		}
		t.readFailed = false
		angle = t.filter.Update(sample)
	}

	t.geom.Track(&t.st, t.law.Velocity(angle))
	t.publish(angle)
	t.drawPaddle(display.White)

	t.ticks.Add(1)
	return sched.Yield
}

func (t *Tracker) publish(angle fixed.Q16) {
	t.board.Angle.Store(angle)
	t.board.Paddle1.Store(t.st.Y)
}

func (t *Tracker) drawPaddle(c display.Color) {
	t.draw.DrawRect(t.geom.LeftX, t.st.Y.Int(), t.geom.PaddleWidth, t.geom.PaddleLength, c)
}
