package display

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

type fakeCells struct {
	mu    sync.Mutex
	w, h  int
	cells map[[2]int]rune
	shows int
}

func newFakeCells(w, h int) *fakeCells {
	return &fakeCells{w: w, h: h, cells: make(map[[2]int]rune)}
}

func (f *fakeCells) SetContent(x, y int, primary rune, combining []rune, style tcell.Style) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		panic("write outside screen")
	}
	f.cells[[2]int{x, y}] = primary
}

func (f *fakeCells) Size() (int, int) { return f.w, f.h }

func (f *fakeCells) Show() {
	f.mu.Lock()
	f.shows++
	f.mu.Unlock()
}

func (f *fakeCells) at(x, y int) rune {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cells[[2]int{x, y}]
}

func (f *fakeCells) count(r rune) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.cells {
		if v == r {
			n++
		}
	}
	return n
}

func TestCellSpan(t *testing.T) {
	cases := []struct {
		p, n, pixels, cells int
		want0, want1        int
	}{
		{0, 640, 640, 64, 0, 64},
		{40, 10, 640, 64, 4, 5},
		{590, 10, 640, 64, 59, 60},
		{3, 1, 640, 64, 0, 1},
		{240, 40, 480, 48, 24, 28},
		{479, 40, 480, 48, 47, 48},
	}
	for _, tc := range cases {
		c0, c1 := cellSpan(tc.p, tc.n, tc.pixels, tc.cells)
		if c0 != tc.want0 || c1 != tc.want1 {
			t.Fatalf("cellSpan(%d,%d,%d,%d)=(%d,%d) want (%d,%d)", tc.p, tc.n, tc.pixels, tc.cells, c0, c1, tc.want0, tc.want1)
		}
	}
}

func TestTerminal_DrawRectScalesBelowStatusRow(t *testing.T) {
	cells := newFakeCells(64, 49)
	term := &Terminal{cells: cells, width: 640, height: 480}

	term.DrawRect(40, 240, 10, 40, White)
	// 40px tall over 480px -> 4 of 48 rows, shifted down by the status row.
	if got := cells.count('█'); got != 4 {
		t.Fatalf("filled=%d want 4", got)
	}
	for y := 25; y < 29; y++ {
		if cells.at(4, y) != '█' {
			t.Fatalf("cell (4,%d) not filled", y)
		}
	}

	term.DrawRect(40, 240, 10, 40, Black)
	if got := cells.count('█'); got != 0 {
		t.Fatalf("filled=%d want 0 after erase", got)
	}
}

func TestTerminal_DrawRectIgnoresEmptyAndTinyScreens(t *testing.T) {
	cells := newFakeCells(1, 1)
	term := &Terminal{cells: cells, width: 640, height: 480}
	term.DrawRect(0, 0, 10, 10, White)
	term.DrawRect(0, 0, 0, 10, White)
	if got := cells.count('█'); got != 0 {
		t.Fatalf("filled=%d want 0", got)
	}
}

func TestTerminal_FrameDrawsStatus(t *testing.T) {
	cells := newFakeCells(20, 10)
	term := &Terminal{cells: cells, width: 640, height: 480}
	term.SetStatus("angle=90")
	term.Frame()

	want := "angle=90"
	for i, r := range want {
		if got := cells.at(i, 0); got != r {
			t.Fatalf("status[%d]=%q want %q", i, got, r)
		}
	}
	if cells.at(len(want), 0) != ' ' {
		t.Fatalf("status not padded")
	}
	if cells.shows != 1 {
		t.Fatalf("shows=%d want 1", cells.shows)
	}
}

func TestTerminal_ConcurrentDraws(t *testing.T) {
	cells := newFakeCells(64, 49)
	term := &Terminal{cells: cells, width: 640, height: 480}

	var wg sync.WaitGroup
	for _, x := range []int{40, 590} {
		wg.Add(1)
		go func(x int) {
			defer wg.Done()
			for y := 0; y < 440; y += 5 {
				term.DrawRect(x, y, 10, 40, White)
				term.DrawRect(x, y, 10, 40, Black)
			}
		}(x)
	}
	wg.Wait()
}

func TestNewTerminal_SimulationScreen(t *testing.T) {
	scr := tcell.NewSimulationScreen("UTF-8")
	if _, err := newTerminal(scr, 0, 480); err == nil {
		t.Fatalf("expected error for empty raster")
	}

	scr = tcell.NewSimulationScreen("UTF-8")
	term, err := newTerminal(scr, 640, 480)
	if err != nil {
		t.Fatalf("newTerminal: %v", err)
	}
	defer term.Close()
	scr.SetSize(80, 25)

	frames := NewFrames()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	calls := 0
	err = term.Run(ctx, 5*time.Millisecond, frames, func() string { calls++; return "ok" }, nil)
	if err != context.DeadlineExceeded {
		t.Fatalf("err=%v want deadline exceeded", err)
	}
	if frames.Count() == 0 || calls == 0 {
		t.Fatalf("frames=%d status calls=%d want > 0", frames.Count(), calls)
	}
}

func TestFrames_FanOut(t *testing.T) {
	f := NewFrames()
	a := f.Subscribe()
	b := f.Subscribe()

	f.Signal()
	f.Signal()
	if f.Count() != 2 {
		t.Fatalf("count=%d want 2", f.Count())
	}
	for name, s := range map[string]interface{ TryAcquire() bool }{"a": a, "b": b} {
		if !s.TryAcquire() {
			t.Fatalf("%s: no token", name)
		}
		if s.TryAcquire() {
			t.Fatalf("%s: tokens piled up", name)
		}
	}
}

func TestFrames_Tick(t *testing.T) {
	f := NewFrames()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if err := f.Tick(ctx, 5*time.Millisecond); err != context.DeadlineExceeded {
		t.Fatalf("err=%v", err)
	}
	if f.Count() == 0 {
		t.Fatalf("no frames")
	}
}

func TestNull_CountsRects(t *testing.T) {
	var n Null
	var d Driver = &n
	d.DrawRect(0, 0, 1, 1, White)
	d.DrawRect(0, 0, 1, 1, Black)
	if n.Rects() != 2 {
		t.Fatalf("rects=%d want 2", n.Rects())
	}
	if White.String() != "white" || Black.String() != "black" {
		t.Fatalf("color names")
	}
}
