package web

import (
	"context"
	"sync"

	"tiltpaddle/internal/sched"
	"tiltpaddle/internal/state"
)

// BoardBroadcaster fans board snapshots out to stream listeners. It keeps
// the most recent value so new subscribers get an immediate sample. Slow
// listeners miss updates rather than holding up the publisher.
type BoardBroadcaster struct {
	mu       sync.RWMutex
	subs     map[int]chan BoardSnapshot
	nextID   int
	last     BoardSnapshot
	haveLast bool
}

func NewBoardBroadcaster() *BoardBroadcaster {
	return &BoardBroadcaster{subs: make(map[int]chan BoardSnapshot)}
}

func (b *BoardBroadcaster) Subscribe(buffer int) (int, <-chan BoardSnapshot) {
	if buffer <= 0 {
		buffer = 2
	}
	ch := make(chan BoardSnapshot, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	last, have := b.last, b.haveLast
	b.mu.Unlock()
	if have {
		select {
		case ch <- last:
		default:
		}
	}
	return id, ch
}

func (b *BoardBroadcaster) Unsubscribe(id int) {
	b.mu.Lock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *BoardBroadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *BoardBroadcaster) Last() (BoardSnapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.haveLast
}

func (b *BoardBroadcaster) Publish(s BoardSnapshot) {
	// Held for the sends too, so Unsubscribe cannot close a channel
	// mid-send.
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = s
	b.haveLast = true
	for _, ch := range b.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// PublishTask copies the board into a broadcaster once per step. It only
// reads shared state. Wrap it in sched.Paced to set the rate.
type PublishTask struct {
	board *state.Board
	out   *BoardBroadcaster
	seq   uint64
}

func NewPublishTask(board *state.Board, out *BoardBroadcaster) *PublishTask {
	return &PublishTask{board: board, out: out}
}

func (t *PublishTask) Name() string { return "web" }

func (t *PublishTask) Step(ctx context.Context) sched.Status {
	s := t.board.Snapshot()
	t.out.Publish(BoardSnapshot{
		Seq:      t.seq,
		AngleDeg: s.Angle.Float(),
		Paddle1Y: s.Paddle1.Float(),
		Paddle2Y: s.Paddle2.Float(),
	})
	t.seq++
	return sched.Yield
}
