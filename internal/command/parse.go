// Package command reads operator input (a one-letter classifier then a
// number) and stores the value into the live tunables.
package command

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"tiltpaddle/internal/fixed"
	"tiltpaddle/internal/state"
)

type Classifier byte

const (
	Proportional Classifier = 'p'
	Integral     Classifier = 'i'
	Derivative   Classifier = 'd'
	Angle        Classifier = 'a'
	Threshold    Classifier = 't'
)

var (
	ErrUnknownClassifier = errors.New("command: unknown classifier")
	ErrBadValue          = errors.New("command: bad value")
)

const (
	maxGain            = 1000.0
	maxThresholdMicros = 1_000_000
)

func (c Classifier) Valid() bool {
	switch c {
	case Proportional, Integral, Derivative, Angle, Threshold:
		return true
	}
	return false
}

func (c Classifier) String() string {
	switch c {
	case Proportional:
		return "proportion"
	case Integral:
		return "integral"
	case Derivative:
		return "derivative"
	case Angle:
		return "angle"
	case Threshold:
		return "draw speed"
	}
	return fmt.Sprintf("classifier(%q)", byte(c))
}

// ParseClassifier reads the leading classifier letter. Anything after it on
// the same line is returned as rest, so "p 0.01" can be handled in one go.
func ParseClassifier(line string) (c Classifier, rest string, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, "", fmt.Errorf("%w: empty input", ErrUnknownClassifier)
	}
	c = Classifier(line[0])
	if !c.Valid() {
		return 0, "", fmt.Errorf("%w: %q", ErrUnknownClassifier, line[:1])
	}
	rest = strings.TrimSpace(line[1:])
	if rest != "" && !isValueStart(rest[0]) {
		// "pid" or "angle": a word, not a classifier.
		return 0, "", fmt.Errorf("%w: %q", ErrUnknownClassifier, line)
	}
	return c, rest, nil
}

func isValueStart(b byte) bool {
	return b == '-' || b == '+' || b == '.' || (b >= '0' && b <= '9')
}

// Value is a parsed, range-checked setting.
type Value struct {
	Classifier Classifier
	Q          fixed.Q16
	Micros     int32
}

func ParseValue(c Classifier, s string) (Value, error) {
	s = strings.TrimSpace(s)
	if !c.Valid() {
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownClassifier, byte(c))
	}
	if c == Threshold {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s %q: want whole microseconds", ErrBadValue, c, s)
		}
		if n < 0 || n > maxThresholdMicros {
			return Value{}, fmt.Errorf("%w: %s %d out of [0, %d]", ErrBadValue, c, n, maxThresholdMicros)
		}
		return Value{Classifier: c, Micros: int32(n)}, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("%w: %s %q", ErrBadValue, c, s)
	}
	if c == Angle {
		if f < 0 || f > 180 {
			return Value{}, fmt.Errorf("%w: %s %v out of [0, 180]", ErrBadValue, c, f)
		}
	} else if math.Abs(f) > maxGain {
		return Value{}, fmt.Errorf("%w: %s %v out of [-%v, %v]", ErrBadValue, c, f, maxGain, maxGain)
	}
	return Value{Classifier: c, Q: fixed.FromFloat(f)}, nil
}

// Apply stores v into t.
func (v Value) Apply(t *state.Tunables) {
	switch v.Classifier {
	case Proportional:
		t.Kp.Store(v.Q)
	case Integral:
		t.Ki.Store(v.Q)
	case Derivative:
		t.Kd.Store(v.Q)
	case Angle:
		t.Level.Store(v.Q)
	case Threshold:
		t.SetThresholdMicros(v.Micros)
	}
}

func (v Value) String() string {
	if v.Classifier == Threshold {
		return fmt.Sprintf("%s=%dus", v.Classifier, v.Micros)
	}
	return fmt.Sprintf("%s=%s", v.Classifier, v.Q)
}
