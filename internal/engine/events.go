package engine

import "github.com/llehouerou/segue/internal/playlist"

// TransitionReason explains why the current track changed.
type TransitionReason string

const (
	// ReasonAuto: the previous track reached end-of-stream and the queue
	// advanced on its own.
	ReasonAuto TransitionReason = "auto"
	// ReasonSeek: an explicit next/previous/jump call.
	ReasonSeek TransitionReason = "seek"
	// ReasonRepeat: the same track restarted under repeat-one.
	ReasonRepeat TransitionReason = "repeat"
	// ReasonPlaylistChanged: a queue edit displaced the current track.
	ReasonPlaylistChanged TransitionReason = "playlist_changed"
)

// StateChange is emitted when the engine state changes.
type StateChange struct {
	Previous State
	Current  State
}

// PlayingChange is emitted when the audible/not-audible flag flips.
type PlayingChange struct {
	IsPlaying bool
}

// TrackChange is emitted when playback moves to a different track (or the
// same track restarts under repeat-one).
type TrackChange struct {
	Previous      *playlist.Track
	Current       *playlist.Track
	PreviousIndex int
	Index         int
	Reason        TransitionReason
}

// TimelineChange is emitted when the queue contents or their playback
// order change. Tracks are in playback order.
type TimelineChange struct {
	Tracks []playlist.Track
	Index  int
	Reason TransitionReason
}

// ModeChange is emitted when repeat or shuffle mode changes. Tracks carry
// the resulting playback-order timeline.
type ModeChange struct {
	RepeatMode playlist.RepeatMode
	Shuffle    bool
	Tracks     []playlist.Track
}

// LoadingChange is emitted when background resolve/prepare work starts or
// finishes.
type LoadingChange struct {
	IsLoading bool
}

// VolumeChange is emitted when the engine volume level changes.
type VolumeChange struct {
	Level float64
}

// ErrorEvent is emitted when a playback error is surfaced.
type ErrorEvent struct {
	Err *Error
}
