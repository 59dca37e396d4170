package player

// State represents the native player state machine.
//
// Valid transitions:
//   - Stopped → Ready   (via Load: decoded, paused, not yet audible)
//   - Ready   → Playing (via Play)
//   - Playing → Paused  (via Pause)
//   - Paused  → Playing (via Play)
//   - any     → Stopped (via Stop: releases decode resources)
//
// Invalid transitions are handled gracefully as no-ops: the engine layer
// above reconciles intent with what the player actually reports.
type State int

const (
	Stopped State = iota
	Ready
	Playing
	Paused
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Ready:
		return "Ready"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if playback is active (Playing or Paused).
func (s State) IsActive() bool {
	return s == Playing || s == Paused
}

// IsLoaded returns true if a track is decoded and seekable.
func (s State) IsLoaded() bool {
	return s != Stopped
}
