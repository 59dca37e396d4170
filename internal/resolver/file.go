package resolver

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// FileResolver resolves track IDs that are paths to local audio files,
// optionally relative to a root directory. Display metadata is read from
// embedded tags; a missing or unreadable tag block falls back to the
// file name.
type FileResolver struct {
	Root string
}

var _ Resolver = (*FileResolver)(nil)

// NewFileResolver creates a resolver rooted at dir ("" means absolute
// paths only).
func NewFileResolver(dir string) *FileResolver {
	return &FileResolver{Root: dir}
}

// Resolve maps the track ID to a file path and reads its metadata.
func (r *FileResolver) Resolve(ctx context.Context, trackID string) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := trackID
	if r.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(r.Root, path)
	}

	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return nil, ErrNotFound
	}

	src := &Source{
		TrackID: trackID,
		Path:    path,
		Title:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	readFileTags(path, src)
	return src, nil
}

// readFileTags fills in display metadata from embedded tags, best effort.
func readFileTags(path string, src *Source) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return
	}

	if title := m.Title(); title != "" {
		src.Title = title
	}
	src.Artist = m.Artist()
	src.Album = m.Album()
	src.TrackNumber, _ = m.Track()
}
