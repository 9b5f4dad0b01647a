package game

import (
	"context"
	"sync/atomic"

	"tiltpaddle/internal/display"
	"tiltpaddle/internal/fixed"
	"tiltpaddle/internal/paddle"
	"tiltpaddle/internal/sched"
	"tiltpaddle/internal/state"
)

// Bouncer runs the right paddle between the screen edges at a constant
// speed. It is the only writer of Board.Paddle2.
type Bouncer struct {
	geom  paddle.Geometry
	speed fixed.Q16
	draw  display.Driver
	board *state.Board

	st    paddle.State
	ticks atomic.Uint64
}

// NewBouncer starts the paddle mid-screen heading down.
func NewBouncer(geom paddle.Geometry, speed fixed.Q16, draw display.Driver, board *state.Board) *Bouncer {
	speed = speed.Abs()
	b := &Bouncer{
		geom:  geom,
		speed: speed,
		draw:  draw,
		board: board,
		st:    paddle.State{Y: geom.Center(), VY: speed},
	}
	b.board.Paddle2.Store(b.st.Y)
	return b
}

func (b *Bouncer) Name() string { return "bouncer" }

func (b *Bouncer) Ticks() uint64 { return b.ticks.Load() }

func (b *Bouncer) State() paddle.State { return b.st }

func (b *Bouncer) Step(ctx context.Context) sched.Status {
	b.drawPaddle(display.Black)
	b.geom.Bounce(&b.st, b.speed)
	b.board.Paddle2.Store(b.st.Y)
	b.drawPaddle(display.White)
	b.ticks.Add(1)
	return sched.Yield
}

func (b *Bouncer) drawPaddle(c display.Color) {
	b.draw.DrawRect(b.geom.RightX, b.st.Y.Int(), b.geom.PaddleWidth, b.geom.PaddleLength, c)
}
