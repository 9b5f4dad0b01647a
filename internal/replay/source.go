package replay

import (
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"tiltpaddle/internal/imu"
)

// Source plays recorded samples back one per read, ignoring their
// timestamps: the reader's tick rate sets the pace, which keeps a replay
// bit-for-bit reproducible. After the last sample it returns io.EOF, or
// starts over when Loop is set.
type Source struct {
	mu      sync.Mutex
	samples []imu.Sample
	next    int
	loop    bool
}

func NewSource(records []Record, loop bool) (*Source, error) {
	var samples []imu.Sample
	for _, r := range records {
		if !r.Start {
			samples = append(samples, r.Sample)
		}
	}
	if len(samples) == 0 {
		return nil, errors.New("replay: no samples")
	}
	return &Source{samples: samples, loop: loop}, nil
}

func (s *Source) Len() int { return len(s.samples) }

func (s *Source) ReadRawSample() (imu.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.samples) {
		if !s.loop {
			return imu.Sample{}, io.EOF
		}
		s.next = 0
	}
	out := s.samples[s.next]
	s.next++
	return out, nil
}

// Recorder passes samples through from Src and appends each good one to W.
// A write failure is logged once and recording stops; reads carry on.
type Recorder struct {
	Src imu.Source
	W   *Writer
	Now func() time.Time

	failed bool
}

func NewRecorder(src imu.Source, w *Writer) *Recorder {
	return &Recorder{Src: src, W: w, Now: time.Now}
}

func (r *Recorder) ReadRawSample() (imu.Sample, error) {
	s, err := r.Src.ReadRawSample()
	if err != nil || r.failed {
		return s, err
	}
	if werr := r.W.WriteSample(r.Now(), s); werr != nil {
		log.Printf("replay: recording stopped: %v", werr)
		r.failed = true
	}
	return s, nil
}

func (r *Recorder) Close() error {
	return r.W.Close()
}
