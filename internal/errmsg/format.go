// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"
	OpTrackResolve  Op = "resolve track source"
	OpTrackPrepare  Op = "prepare track"

	// Queue operations
	OpQueueLoad    Op = "load queue"
	OpQueueSave    Op = "save queue"
	OpQueueAdd     Op = "add to queue"
	OpQueueRefill  Op = "refill queue"
	OpQueueRestore Op = "restore saved queue"

	// Crossfade operations
	OpCrossfadePrepare Op = "prepare crossfade"
	OpCrossfadeRun     Op = "run crossfade"

	// Config/state operations
	OpConfigLoad Op = "load configuration"
	OpStateOpen  Op = "open state store"
	OpVolumeSave Op = "save volume"

	// Initialization
	OpInitialize Op = "initialize playback engine"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
