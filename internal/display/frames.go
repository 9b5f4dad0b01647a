package display

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"tiltpaddle/internal/sched"
)

// Frames fans each frame boundary out to every subscribed semaphore.
type Frames struct {
	mu    sync.Mutex
	subs  []*sched.Semaphore
	count atomic.Uint64
}

func NewFrames() *Frames {
	return &Frames{}
}

// Subscribe returns a semaphore that gains one token per frame. Tokens do
// not pile up: a task that misses frames still draws once per frame at most.
func (f *Frames) Subscribe() *sched.Semaphore {
	s := sched.NewSemaphore(1)
	f.mu.Lock()
	f.subs = append(f.subs, s)
	f.mu.Unlock()
	return s
}

// Signal marks a frame boundary.
func (f *Frames) Signal() {
	f.count.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		s.Signal()
	}
}

func (f *Frames) Count() uint64 {
	return f.count.Load()
}

// Tick signals a frame every interval until ctx ends. It stands in for a
// vertical sync when the backend has none.
func (f *Frames) Tick(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			f.Signal()
		}
	}
}
