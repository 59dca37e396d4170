//go:build !windows

// Package stderr diverts writes to file descriptor 2 into a line channel.
// The C-backed decoders and the ALSA client under beep write diagnostics
// straight to fd 2, bypassing os.Stderr, which would interleave raw noise
// with the playback event log on a terminal.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"syscall"
)

var (
	origFd    int
	pipeRead  *os.File
	pipeWrite *os.File
	lines     chan string
)

// Capture redirects fd 2 into a pipe and returns a channel of captured
// lines. Call it before any audio initialization. On failure the program
// can continue; diagnostics just stay on the original stderr. Calling it
// twice returns the same channel.
func Capture() (<-chan string, error) {
	if lines != nil {
		return lines, nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	origFd, err = syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return nil, err
	}

	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(origFd)
		r.Close()
		w.Close()
		return nil, err
	}

	pipeRead = r
	pipeWrite = w
	lines = make(chan string, 100)

	go func(out chan<- string) {
		scanner := bufio.NewScanner(pipeRead)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case out <- line:
			default:
				// Channel full, drop rather than block the reader.
			}
		}
	}(lines)

	return lines, nil
}

// Bypass writes directly to the original stderr, skipping capture.
// For fatal errors that must stay visible.
func Bypass(msg string) {
	if origFd > 0 {
		_, _ = syscall.Write(origFd, []byte(msg))
	}
}

// Restore puts the original stderr back and closes the line channel.
func Restore() {
	if lines == nil {
		return
	}

	_ = syscall.Dup2(origFd, int(os.Stderr.Fd()))
	_ = syscall.Close(origFd)

	pipeWrite.Close()
	pipeRead.Close()

	close(lines)
	lines = nil
}
