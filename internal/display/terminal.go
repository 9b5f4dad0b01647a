package display

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
)

// cellScreen is the part of tcell.Screen that drawing needs.
type cellScreen interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (int, int)
	Show()
}

var (
	styleWhite  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	styleBlack  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorBlack)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorGreen).Background(tcell.ColorBlack)
)

// Terminal renders the logical raster onto a terminal, scaled to whatever
// size the terminal currently has.
type Terminal struct {
	scr    tcell.Screen
	cells  cellScreen
	width  int
	height int

	// Guards the status row; cells are locked inside tcell.
	statusMu sync.Mutex
	status   string
}

// NewTerminal takes over the controlling terminal. width and height are the
// logical raster size paddles are drawn in.
func NewTerminal(width, height int) (*Terminal, error) {
	scr, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("display: terminal: %w", err)
	}
	return newTerminal(scr, width, height)
}

func newTerminal(scr tcell.Screen, width, height int) (*Terminal, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("display: raster %dx%d must be positive", width, height)
	}
	if err := scr.Init(); err != nil {
		return nil, fmt.Errorf("display: terminal init: %w", err)
	}
	scr.HideCursor()
	scr.SetStyle(styleBlack)
	scr.Clear()
	return &Terminal{scr: scr, cells: scr, width: width, height: height}, nil
}

// cellSpan maps the pixel interval [p, p+n) onto cells, never returning an
// empty span for a non-empty input.
func cellSpan(p, n, pixels, cells int) (int, int) {
	c0 := p * cells / pixels
	c1 := ((p+n)*cells + pixels - 1) / pixels
	if c1 <= c0 {
		c1 = c0 + 1
	}
	if c0 < 0 {
		c0 = 0
	}
	if c1 > cells {
		c1 = cells
	}
	return c0, c1
}

func (t *Terminal) DrawRect(x, y, w, h int, c Color) {
	if w <= 0 || h <= 0 {
		return
	}
	cols, rows := t.cells.Size()
	// Row 0 is the status line.
	rows--
	if cols <= 0 || rows <= 0 {
		return
	}
	x0, x1 := cellSpan(x, w, t.width, cols)
	y0, y1 := cellSpan(y, h, t.height, rows)

	r, st := ' ', styleBlack
	if c == White {
		r, st = '█', styleWhite
	}
	for cy := y0; cy < y1; cy++ {
		for cx := x0; cx < x1; cx++ {
			t.cells.SetContent(cx, cy+1, r, nil, st)
		}
	}
}

// SetStatus replaces the text shown on the top row at the next frame.
func (t *Terminal) SetStatus(s string) {
	t.statusMu.Lock()
	t.status = s
	t.statusMu.Unlock()
}

func (t *Terminal) drawStatus() {
	t.statusMu.Lock()
	s := t.status
	t.statusMu.Unlock()

	cols, _ := t.cells.Size()
	rs := []rune(s)
	for x := 0; x < cols; x++ {
		r := ' '
		if x < len(rs) {
			r = rs[x]
		}
		t.cells.SetContent(x, 0, r, nil, styleStatus)
	}
}

// Frame pushes the current contents to the terminal.
func (t *Terminal) Frame() {
	t.drawStatus()
	t.cells.Show()
}

// Run shows a frame every interval and signals frames (if non-nil) after
// each one. status, if non-nil, is polled once per frame for the top row.
// Escape or Ctrl-C calls quit. Run returns when ctx ends.
func (t *Terminal) Run(ctx context.Context, interval time.Duration, frames *Frames, status func() string, quit func()) error {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}

	go t.pollEvents(quit)

	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			if status != nil {
				t.SetStatus(status())
			}
			t.Frame()
			if frames != nil {
				frames.Signal()
			}
		}
	}
}

func (t *Terminal) pollEvents(quit func()) {
	for {
		ev := t.scr.PollEvent()
		if ev == nil {
			// Screen finalized.
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				if quit != nil {
					quit()
				}
			}
		case *tcell.EventResize:
			t.scr.Clear()
			t.scr.Sync()
		}
	}
}

// Close restores the terminal.
func (t *Terminal) Close() {
	if t == nil || t.scr == nil {
		return
	}
	t.scr.Fini()
}
