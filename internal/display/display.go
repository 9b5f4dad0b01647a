// Package display is the boundary to whatever draws the paddles: a raster
// driver that fills rectangles, and a source of frame boundaries.
package display

import "sync/atomic"

type Color uint8

const (
	Black Color = iota
	White
)

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Driver fills opaque rectangles in logical raster coordinates. It must be
// safe to call from more than one worker.
type Driver interface {
	DrawRect(x, y, w, h int, c Color)
}

// Null discards drawing. It is the headless backend.
type Null struct {
	rects atomic.Uint64
}

func (n *Null) DrawRect(x, y, w, h int, c Color) {
	n.rects.Add(1)
}

// Rects counts DrawRect calls.
func (n *Null) Rects() uint64 {
	return n.rects.Load()
}
