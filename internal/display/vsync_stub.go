//go:build !linux

package display

import (
	"fmt"
	"io"
)

type VSyncConfig struct {
	Chip     string
	LineName string
	Offset   int
}

func WatchVSync(cfg VSyncConfig, frames *Frames) (io.Closer, error) {
	return nil, fmt.Errorf("display: vsync unsupported on this platform")
}
