package engine

import "time"

// State represents the engine playback state machine.
//
// Transitions:
//   - Idle      → Preparing (load begins: async resolve + native prepare)
//   - Preparing → Ready     (resolved and prepared; Playing instead if
//     autoplay was requested while preparing)
//   - Preparing → Error     (resolve or prepare failed; no auto-retry)
//   - Ready     → Playing   (play)
//   - Playing   → Paused    (pause)
//   - Paused    → Playing   (play)
//   - any       → Ended     (native end-of-stream, then queue advance)
//   - any       → Idle      (stop; playback resources released, the
//     playlist and index are retained)
//   - any       → Error     (fatal native fault; back to Idle on next load)
type State int

const (
	Idle State = iota
	Preparing
	Ready
	Playing
	Paused
	Ended
	Errored
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Preparing:
		return "Preparing"
	case Ready:
		return "Ready"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Ended:
		return "Ended"
	case Errored:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsActive returns true if playback is active (playing or paused).
func (s State) IsActive() bool {
	return s == Playing || s == Paused
}

// stateChangeDebounce is the window within which a second native-reported
// state change is ignored. Some native engines emit transient intermediate
// states during seeks; only the first state in a burst is honored.
const stateChangeDebounce = 100 * time.Millisecond
