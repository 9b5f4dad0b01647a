package sched

import (
	"context"
	"log"
	"runtime"
	"sync/atomic"
	"time"
)

const defaultIdle = 500 * time.Microsecond

// Worker is one execution context. Tasks are fixed at construction time and
// never migrate.
type Worker struct {
	name  string
	tasks []Task
	idle  time.Duration

	steps   atomic.Uint64
	idles   atomic.Uint64
	running atomic.Bool
}

// NewWorker creates a worker that sleeps idle between rounds in which no
// task made progress.
func NewWorker(name string, idle time.Duration, tasks ...Task) *Worker {
	if idle <= 0 {
		idle = defaultIdle
	}
	return &Worker{name: name, tasks: tasks, idle: idle}
}

func (w *Worker) Name() string { return w.name }

// Steps counts productive steps across all tasks.
func (w *Worker) Steps() uint64 { return w.steps.Load() }

// Idles counts rounds in which every task was blocked.
func (w *Worker) Idles() uint64 { return w.idles.Load() }

func (w *Worker) Tasks() []string {
	names := make([]string, 0, len(w.tasks))
	for _, t := range w.tasks {
		names = append(names, t.Name())
	}
	return names
}

// RunOnce gives every task one step, in order, and reports whether any of
// them yielded work.
func (w *Worker) RunOnce(ctx context.Context) bool {
	progress := false
	for _, t := range w.tasks {
		if ctx.Err() != nil {
			return progress
		}
		if t.Step(ctx) == Yield {
			w.steps.Add(1)
			progress = true
		}
	}
	return progress
}

// Run loops over the tasks until ctx ends. It pins the calling goroutine
// to its OS thread for the duration.
func (w *Worker) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return nil
	}
	defer w.running.Store(false)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	log.Printf("worker %s: started tasks=%v", w.name, w.Tasks())

	timer := time.NewTimer(w.idle)
	defer timer.Stop()

	for {
		if err := ctx.Err(); err != nil {
			log.Printf("worker %s: stopped after %d steps", w.name, w.Steps())
			return err
		}
		if w.RunOnce(ctx) {
			continue
		}
		w.idles.Add(1)
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.idle)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
}
