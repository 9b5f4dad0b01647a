// Package replay records sensor samples to a text log and plays them back
// as an imu.Source.
package replay

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"tiltpaddle/internal/fixed"
	"tiltpaddle/internal/imu"
)

// Log format: line-oriented text.
//
// - Blank lines ignored.
// - Lines starting with '#' ignored.
// - Line "START" marks the beginning of a recording session.
// - Data lines are: <t_ns>,<hex>
//   where t_ns is nanoseconds since START and hex is the sample as six
//   big-endian Q16.16 words: accel X, Y, Z then gyro X, Y, Z.

const sampleLen = 6 * 4

type Record struct {
	At time.Duration
	// Start marks a session boundary; Sample is unset.
	Start  bool
	Sample imu.Sample
}

func EncodeSample(s imu.Sample) []byte {
	b := make([]byte, sampleLen)
	for i := 0; i < 3; i++ {
		binary.BigEndian.PutUint32(b[i*4:], uint32(s.Accel[i]))
		binary.BigEndian.PutUint32(b[12+i*4:], uint32(s.Gyro[i]))
	}
	return b
}

func DecodeSample(b []byte) (imu.Sample, error) {
	var s imu.Sample
	if len(b) != sampleLen {
		return s, fmt.Errorf("replay: sample is %d bytes, want %d", len(b), sampleLen)
	}
	for i := 0; i < 3; i++ {
		s.Accel[i] = fixed.Q16(int32(binary.BigEndian.Uint32(b[i*4:])))
		s.Gyro[i] = fixed.Q16(int32(binary.BigEndian.Uint32(b[12+i*4:])))
	}
	return s, nil
}

type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (rr *Reader) ReadAll() ([]Record, error) {
	s := bufio.NewScanner(rr.r)

	recs := make([]Record, 0, 1024)
	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "START" {
			recs = append(recs, Record{Start: true})
			continue
		}

		comma := strings.IndexByte(line, ',')
		if comma < 0 {
			return nil, fmt.Errorf("replay: line %d: missing comma: %q", lineNo, line)
		}
		tsStr := strings.TrimSpace(line[:comma])
		hexStr := strings.ReplaceAll(strings.TrimSpace(line[comma+1:]), " ", "")
		if tsStr == "" || hexStr == "" {
			return nil, fmt.Errorf("replay: line %d: empty field: %q", lineNo, line)
		}

		tsNs, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("replay: line %d: timestamp %q: %w", lineNo, tsStr, err)
		}
		if tsNs < 0 {
			return nil, fmt.Errorf("replay: line %d: negative timestamp %d", lineNo, tsNs)
		}
		b, err := hex.DecodeString(hexStr)
		if err != nil {
			return nil, fmt.Errorf("replay: line %d: %w", lineNo, err)
		}
		sample, err := DecodeSample(b)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		recs = append(recs, Record{At: time.Duration(tsNs), Sample: sample})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// ReadFile loads every record in path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewReader(f).ReadAll()
}

type Writer struct {
	c      io.Closer
	w      *bufio.Writer
	start  time.Time
	closed bool
}

func CreateWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, time.Now())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// NewWriter starts a session on wc with its origin at start.
func NewWriter(wc io.WriteCloser, start time.Time) (*Writer, error) {
	bw := bufio.NewWriterSize(wc, 64*1024)
	if _, err := bw.WriteString("START\n"); err != nil {
		return nil, err
	}
	return &Writer{c: wc, w: bw, start: start}, nil
}

func (ww *Writer) WriteSample(now time.Time, s imu.Sample) error {
	if ww.closed {
		return errors.New("replay: writer is closed")
	}
	d := now.Sub(ww.start)
	if d < 0 {
		d = 0
	}
	_, err := fmt.Fprintf(ww.w, "%d,%s\n", d.Nanoseconds(), hex.EncodeToString(EncodeSample(s)))
	return err
}

func (ww *Writer) Flush() error {
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.w.Flush(); err != nil {
		_ = ww.c.Close()
		return err
	}
	return ww.c.Close()
}
