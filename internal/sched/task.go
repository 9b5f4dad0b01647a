// Package sched runs cooperative tasks on statically assigned workers.
//
// A worker is one goroutine locked to one OS thread. It calls Step on each
// of its tasks in turn; returning from Step is the task's yield point, so a
// step is never interleaved with another task on the same worker. Tasks on
// different workers share nothing but the single-writer fields in package
// state.
package sched

import (
	"context"
	"time"
)

// Status is how a task left its step.
type Status int

const (
	// Yield means the task did one unit of work and can run again.
	Yield Status = iota
	// Blocked means the task is waiting (for a frame, input, or its next
	// pacing deadline) and did nothing.
	Blocked
)

func (s Status) String() string {
	switch s {
	case Yield:
		return "yield"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Task is a never-ending cooperative routine broken into steps.
type Task interface {
	Name() string
	Step(ctx context.Context) Status
}

type funcTask struct {
	name string
	fn   func(context.Context) Status
}

func (t *funcTask) Name() string                    { return t.name }
func (t *funcTask) Step(ctx context.Context) Status { return t.fn(ctx) }

// Func wraps fn as a Task.
func Func(name string, fn func(context.Context) Status) Task {
	return &funcTask{name: name, fn: fn}
}

type pacedTask struct {
	Task
	interval func() time.Duration
	now      func() time.Time
	next     time.Time
}

// Paced holds t Blocked until interval() has passed since its last
// productive step. interval is re-read after every step, so it may change
// while running.
func Paced(t Task, interval func() time.Duration) Task {
	return &pacedTask{Task: t, interval: interval, now: time.Now}
}

func (p *pacedTask) Step(ctx context.Context) Status {
	now := p.now()
	if now.Before(p.next) {
		return Blocked
	}
	st := p.Task.Step(ctx)
	if st == Yield {
		p.next = now.Add(p.interval())
	}
	return st
}

type gatedTask struct {
	Task
	sem *Semaphore
}

// Gated holds t Blocked until sem can be acquired; each acquired token buys
// exactly one step.
func Gated(t Task, sem *Semaphore) Task {
	if sem == nil {
		return t
	}
	return &gatedTask{Task: t, sem: sem}
}

func (g *gatedTask) Step(ctx context.Context) Status {
	if !g.sem.TryAcquire() {
		return Blocked
	}
	return g.Task.Step(ctx)
}
