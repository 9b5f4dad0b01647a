//go:build linux

package display

import (
	"testing"

	"github.com/warthog618/go-gpiocdev"
)

func TestVSyncHandler_SignalsOnRisingEdge(t *testing.T) {
	f := NewFrames()
	sem := f.Subscribe()
	h := vsyncHandler(f)

	h(gpiocdev.LineEvent{Type: gpiocdev.LineEventFallingEdge})
	if f.Count() != 0 || sem.TryAcquire() {
		t.Fatalf("falling edge signalled a frame")
	}
	h(gpiocdev.LineEvent{Type: gpiocdev.LineEventRisingEdge})
	if f.Count() != 1 || !sem.TryAcquire() {
		t.Fatalf("rising edge did not signal a frame")
	}
}

func TestWatchVSync_NilFrames(t *testing.T) {
	if _, err := WatchVSync(VSyncConfig{}, nil); err == nil {
		t.Fatalf("expected error")
	}
}
