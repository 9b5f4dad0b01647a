package command

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"tiltpaddle/internal/sched"
	"tiltpaddle/internal/state"
)

const classifierPrompt = "Input a classifier, 'p' for proportion, 'i' for integral, 'd' for derivative, 'a' for angle and 't' for draw speed: "

type stage int

const (
	awaitClassifier stage = iota
	awaitValue
)

// Task is the cooperative input handler. One step either writes a prompt
// or consumes one line; it never waits for input.
//
// It is the only writer of the tunables it is given.
type Task struct {
	lines <-chan string
	out   io.Writer
	t     *state.Tunables

	stage    stage
	pending  Classifier
	prompted bool

	applied  atomic.Uint64
	rejected atomic.Uint64
}

func NewTask(lines <-chan string, out io.Writer, t *state.Tunables) *Task {
	if out == nil {
		out = io.Discard
	}
	return &Task{lines: lines, out: out, t: t}
}

func (c *Task) Name() string { return "command" }

func (c *Task) Applied() uint64  { return c.applied.Load() }
func (c *Task) Rejected() uint64 { return c.rejected.Load() }

func (c *Task) Step(ctx context.Context) sched.Status {
	if !c.prompted {
		c.prompt()
		return sched.Yield
	}
	if c.lines == nil {
		return sched.Blocked
	}
	select {
	case line, ok := <-c.lines:
		if !ok {
			log.Printf("command: input closed")
			c.lines = nil
			return sched.Blocked
		}
		c.handle(line)
		return sched.Yield
	default:
		return sched.Blocked
	}
}

func (c *Task) prompt() {
	c.prompted = true
	switch c.stage {
	case awaitValue:
		fmt.Fprintf(c.out, "Input a value for %s: ", c.pending)
	default:
		fmt.Fprint(c.out, classifierPrompt)
	}
}

// handle consumes one line and arranges for the next prompt. Bad input is
// reported and dropped; the dialogue restarts at the classifier.
func (c *Task) handle(line string) {
	c.prompted = false

	if c.stage == awaitValue {
		c.stage = awaitClassifier
		c.apply(c.pending, line)
		return
	}

	cls, rest, err := ParseClassifier(line)
	if err != nil {
		c.reject(err)
		return
	}
	if rest != "" {
		c.apply(cls, rest)
		return
	}
	c.pending = cls
	c.stage = awaitValue
}

func (c *Task) apply(cls Classifier, s string) {
	v, err := ParseValue(cls, s)
	if err != nil {
		c.reject(err)
		return
	}
	v.Apply(c.t)
	c.applied.Add(1)
	log.Printf("command: set %s", v)
	fmt.Fprintf(c.out, "\r\nset %s\r\n", v)
}

func (c *Task) reject(err error) {
	c.rejected.Add(1)
	log.Printf("%v", err)
	fmt.Fprintf(c.out, "\r\n%v\r\n", err)
}
