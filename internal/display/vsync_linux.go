//go:build linux

package display

import (
	"fmt"
	"io"

	"github.com/warthog618/go-gpiocdev"
)

// VSyncConfig names the GPIO line wired to the video sync output.
type VSyncConfig struct {
	// Chip is a gpiochip name or path, e.g. "gpiochip0".
	Chip string
	// LineName, if set, is looked up on Chip (e.g. "GPIO17") and wins over
	// Offset.
	LineName string
	Offset   int
}

// WatchVSync signals frames on every rising edge of the sync line. Close
// the returned line to stop.
func WatchVSync(cfg VSyncConfig, frames *Frames) (io.Closer, error) {
	if frames == nil {
		return nil, fmt.Errorf("display: vsync: frames is nil")
	}
	chipName := cfg.Chip
	if chipName == "" {
		chipName = "gpiochip0"
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("display: vsync: open %s: %w", chipName, err)
	}
	defer chip.Close()

	offset := cfg.Offset
	if cfg.LineName != "" {
		offset, err = chip.FindLine(cfg.LineName)
		if err != nil {
			return nil, fmt.Errorf("display: vsync: line %q not found on %s: %w", cfg.LineName, chipName, err)
		}
	}

	line, err := chip.RequestLine(offset,
		gpiocdev.AsInput,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithConsumer("tiltpaddle-vsync"),
		gpiocdev.WithEventHandler(vsyncHandler(frames)),
	)
	if err != nil {
		return nil, fmt.Errorf("display: vsync: request %s:%d: %w", chipName, offset, err)
	}
	return line, nil
}

func vsyncHandler(frames *Frames) func(gpiocdev.LineEvent) {
	return func(ev gpiocdev.LineEvent) {
		if ev.Type == gpiocdev.LineEventRisingEdge {
			frames.Signal()
		}
	}
}
