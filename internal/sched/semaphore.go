package sched

import "sync/atomic"

// Semaphore is a non-blocking counting signal. The producer (a display
// driver at each frame boundary) calls Signal; a cooperative task polls
// TryAcquire and yields Blocked when it fails.
//
// The count starts at zero. With a positive max the count saturates there,
// so a task that falls behind catches up by at most max steps.
type Semaphore struct {
	n   atomic.Int32
	max int32
}

func NewSemaphore(max int32) *Semaphore {
	if max < 0 {
		max = 0
	}
	return &Semaphore{max: max}
}

func (s *Semaphore) Signal() {
	for {
		v := s.n.Load()
		if s.max > 0 && v >= s.max {
			return
		}
		if s.n.CompareAndSwap(v, v+1) {
			return
		}
	}
}

func (s *Semaphore) TryAcquire() bool {
	for {
		v := s.n.Load()
		if v <= 0 {
			return false
		}
		if s.n.CompareAndSwap(v, v-1) {
			return true
		}
	}
}

func (s *Semaphore) Count() int32 {
	return s.n.Load()
}
