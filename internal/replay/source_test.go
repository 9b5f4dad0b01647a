package replay

import (
	"errors"
	"testing"
	"time"

	"tiltpaddle/internal/imu"
)

func TestNewSource_RequiresSamples(t *testing.T) {
	if _, err := NewSource([]Record{{Start: true}}, true); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSource_LoopWraps(t *testing.T) {
	recs := []Record{
		{Start: true},
		{At: 0, Sample: sample(0, 0, 1, 0)},
		{Start: true},
		{At: time.Second, Sample: sample(0, 1, 0, 0)},
	}
	s, err := NewSource(recs, true)
	if err != nil {
		t.Fatalf("NewSource() error: %v", err)
	}
	want := []imu.Sample{recs[1].Sample, recs[3].Sample, recs[1].Sample, recs[3].Sample, recs[1].Sample}
	for i, w := range want {
		got, err := s.ReadRawSample()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if got != w {
			t.Fatalf("read %d=%+v want %+v", i, got, w)
		}
	}
}

func TestRecorder_PassesErrorsThroughWithoutRecording(t *testing.T) {
	out := &nopWriteCloser{}
	w, err := NewWriter(out, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("NewWriter() error: %v", err)
	}
	readErr := errors.New("bus error")
	rec := NewRecorder(&sliceSource{err: readErr}, w)
	rec.Now = func() time.Time { return time.Unix(0, 0) }

	if _, err := rec.ReadRawSample(); !errors.Is(err, readErr) {
		t.Fatalf("err=%v want %v", err, readErr)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if got := out.String(); got != "START\n" {
		t.Fatalf("log=%q want only START", got)
	}
}
