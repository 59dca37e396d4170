package player

import "time"

// Interface defines the uniform native-player surface used by the engine
// layer, for dependency injection and testing. Implementations hold at
// most one decoded track at a time.
type Interface interface {
	// Load decodes the file and leaves it paused at position 0 with the
	// currently set volume. It does not start playback.
	Load(path string) error
	Play()
	Pause()
	Stop()
	State() State
	Position() time.Duration
	Duration() time.Duration
	SeekTo(pos time.Duration)
	SetVolume(level float64)
	Volume() float64
	SetMuted(muted bool)
	Muted() bool
	// FinishedChan signals end-of-stream for the loaded track.
	FinishedChan() <-chan struct{}
	// Close releases the player permanently.
	Close()
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
