package engine

import "fmt"

// ErrorCode is a stable machine-readable code carried on player errors.
type ErrorCode string

const (
	// CodeResolveFailed means no playable source was found for a track.
	CodeResolveFailed ErrorCode = "resolve_failed"
	// CodePrepareFailed means the native engine rejected a resolved source.
	CodePrepareFailed ErrorCode = "prepare_failed"
	// CodePlaybackFault is a transient, non-fatal native playback fault.
	CodePlaybackFault ErrorCode = "playback_fault"
)

// Error is a player error surfaced through the event subscription.
type Error struct {
	Code    ErrorCode
	TrackID string
	Err     error
}

func (e *Error) Error() string {
	if e.TrackID == "" {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("%s (track %s): %v", e.Code, e.TrackID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error put the engine into the Error state.
// Transient faults pause playback but leave the state machine intact.
func (e *Error) Fatal() bool {
	return e.Code != CodePlaybackFault
}
