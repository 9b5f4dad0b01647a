package replay

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tiltpaddle/internal/fixed"
	"tiltpaddle/internal/imu"
)

func sample(ax, ay, az, gx float64) imu.Sample {
	var s imu.Sample
	s.Accel[imu.X] = fixed.FromFloat(ax)
	s.Accel[imu.Y] = fixed.FromFloat(ay)
	s.Accel[imu.Z] = fixed.FromFloat(az)
	s.Gyro[imu.X] = fixed.FromFloat(gx)
	return s
}

func TestEncodeDecodeSample(t *testing.T) {
	in := sample(-0.25, 1, -1, -123.5)
	in.Gyro[imu.Z] = fixed.MinQ16
	b := EncodeSample(in)
	if len(b) != 24 {
		t.Fatalf("len=%d want 24", len(b))
	}
	out, err := DecodeSample(b)
	if err != nil {
		t.Fatalf("DecodeSample() error: %v", err)
	}
	if out != in {
		t.Fatalf("got %+v want %+v", out, in)
	}
	if _, err := DecodeSample(b[:23]); err == nil {
		t.Fatalf("expected length error")
	}
}

func TestReaderReadAll(t *testing.T) {
	one := EncodeSample(sample(0, 0, 1, 0))
	in := strings.NewReader("\n# comment\n\nSTART\n0, " + hexOf(one) + "\n1000000,00000000 00000000 00010000 00000000 00000000 00000000\n")

	recs, err := NewReader(in).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if !recs[0].Start {
		t.Fatalf("expected START marker first")
	}
	if recs[1].At != 0 || recs[1].Sample.Accel[imu.Z] != fixed.One {
		t.Fatalf("record 1=%+v", recs[1])
	}
	if recs[2].At != time.Millisecond || recs[2].Sample.Accel[imu.Z] != fixed.One {
		t.Fatalf("record 2=%+v", recs[2])
	}
}

func hexOf(b []byte) string {
	const digits = "0123456789abcdef"
	var sb strings.Builder
	for _, c := range b {
		sb.WriteByte(digits[c>>4])
		sb.WriteByte(digits[c&0x0f])
	}
	return sb.String()
}

func TestReaderReadAll_InvalidLines(t *testing.T) {
	cases := []string{
		"not-a-valid-line\n",
		"-1," + strings.Repeat("00", 24) + "\n",
		"x," + strings.Repeat("00", 24) + "\n",
		"0,zz\n",
		"0,0011\n",
		"0,\n",
	}
	for _, in := range cases {
		if _, err := NewReader(strings.NewReader(in)).ReadAll(); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
}

type nopWriteCloser struct {
	strings.Builder
	closed bool
}

func (n *nopWriteCloser) Close() error {
	n.closed = true
	return nil
}

func TestWriter_WritesRelativeTimestamps(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	out := &nopWriteCloser{}
	w, err := NewWriter(out, start)
	if err != nil {
		t.Fatalf("NewWriter() error: %v", err)
	}
	if err := w.WriteSample(start.Add(2*time.Millisecond), sample(0, 0, 1, 0)); err != nil {
		t.Fatalf("WriteSample() error: %v", err)
	}
	if err := w.WriteSample(start.Add(-time.Second), sample(0, 0, 1, 0)); err != nil {
		t.Fatalf("WriteSample() error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !out.closed {
		t.Fatalf("underlying writer not closed")
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 || lines[0] != "START" {
		t.Fatalf("lines=%q", lines)
	}
	if !strings.HasPrefix(lines[1], "2000000,") || !strings.HasPrefix(lines[2], "0,") {
		t.Fatalf("timestamps not relative/clamped: %q", lines)
	}

	if err := w.WriteSample(start, imu.Sample{}); err == nil {
		t.Fatalf("expected error after Close")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
}

func TestRecordReplay_RoundTripSamplesInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.log")
	w, err := CreateWriter(path)
	if err != nil {
		t.Fatalf("CreateWriter() error: %v", err)
	}

	in := []imu.Sample{sample(0, 0, 1, 0), sample(0, -0.5, 0.866, 10), sample(0, 1, 0, -3.25)}
	src := &sliceSource{samples: in}
	rec := NewRecorder(src, w)
	for range in {
		if _, err := rec.ReadRawSample(); err != nil {
			t.Fatalf("ReadRawSample() error: %v", err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	recs, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	play, err := NewSource(recs, false)
	if err != nil {
		t.Fatalf("NewSource() error: %v", err)
	}
	if play.Len() != len(in) {
		t.Fatalf("len=%d want %d", play.Len(), len(in))
	}
	for i, want := range in {
		got, err := play.ReadRawSample()
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("sample %d=%+v want %+v", i, got, want)
		}
	}
	if _, err := play.ReadRawSample(); !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v want EOF", err)
	}
}

type sliceSource struct {
	samples []imu.Sample
	i       int
	err     error
}

func (s *sliceSource) ReadRawSample() (imu.Sample, error) {
	if s.err != nil {
		return imu.Sample{}, s.err
	}
	out := s.samples[s.i%len(s.samples)]
	s.i++
	return out, nil
}
