// Package resolver turns opaque track identifiers into playable sources.
// Resolution may be slow (disk or network), so every call takes a context
// and must observe cancellation.
package resolver

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no playable source exists for a track ID.
var ErrNotFound = errors.New("no playable source found")

// Source is a resolved playable locator plus display metadata.
type Source struct {
	TrackID     string
	Path        string
	Title       string
	Artist      string
	Album       string
	TrackNumber int
	Duration    time.Duration
}

// Resolver resolves a track identifier to a playable source.
type Resolver interface {
	Resolve(ctx context.Context, trackID string) (*Source, error)
}
