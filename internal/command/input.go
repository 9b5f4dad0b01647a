package command

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"

	"go.bug.st/serial"
)

// ReadLines feeds r into a channel one line at a time until EOF or ctx
// ends, then closes the channel. Lines may end in "\n", "\r" or "\r\n";
// blank lines are dropped.
func ReadLines(ctx context.Context, r io.Reader, buffer int) <-chan string {
	if buffer <= 0 {
		buffer = 8
	}
	out := make(chan string, buffer)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		sc.Split(scanAnyEOL)
		for sc.Scan() {
			line := sc.Text()
			if line == "" {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil && ctx.Err() == nil {
			log.Printf("command: read: %v", err)
		}
	}()
	return out
}

func scanAnyEOL(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// OpenSerial opens a UART for the command dialogue (8N1).
func OpenSerial(device string, baud int) (serial.Port, error) {
	if device == "" {
		return nil, fmt.Errorf("command: serial device is required")
	}
	if baud <= 0 {
		baud = 115200
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("command: open %s: %w", device, err)
	}
	return port, nil
}
