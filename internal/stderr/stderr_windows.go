//go:build windows

// Package stderr is a no-op on Windows: the audio backends there do not
// write diagnostics to fd 2 the way ALSA does.
package stderr

import "os"

// Capture is a no-op on Windows. The returned channel never receives.
func Capture() (<-chan string, error) {
	return make(chan string), nil
}

// Bypass writes to stderr.
func Bypass(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// Restore is a no-op on Windows.
func Restore() {}
