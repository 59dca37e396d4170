package playlist

// RepeatMode defines the repeat behavior of a playing queue.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatAll:
		return "All"
	case RepeatOne:
		return "One"
	default:
		return "Unknown"
	}
}

// PlayingQueue wraps a Playlist with playback position, repeat mode and
// an optional shuffle order.
//
// Invariant: 0 <= currentIndex < Len whenever the queue is non-empty,
// currentIndex == -1 iff empty. All mutating operations treat out-of-range
// indices as "nothing to do" since queue edits can race with rapid user
// actions.
type PlayingQueue struct {
	playlist     *Playlist
	currentIndex int // -1 if nothing playing
	repeatMode   RepeatMode
	shuffle      *ShuffleOrder
	shuffleOn    bool
}

// NewQueue creates a new empty playing queue.
func NewQueue() *PlayingQueue {
	return &PlayingQueue{
		playlist:     NewPlaylist(),
		currentIndex: -1,
		shuffle:      NewShuffleOrder(),
	}
}

// Current returns the currently playing track, or nil if none.
func (q *PlayingQueue) Current() *Track {
	if q.currentIndex < 0 || q.currentIndex >= q.playlist.Len() {
		return nil
	}
	return q.playlist.Track(q.currentIndex)
}

// CurrentIndex returns the index of the currently playing track (-1 if none).
func (q *PlayingQueue) CurrentIndex() int {
	return q.currentIndex
}

// Track returns the track at the given original index, or nil if out of bounds.
func (q *PlayingQueue) Track(index int) *Track {
	return q.playlist.Track(index)
}

// RepeatMode returns the current repeat mode.
func (q *PlayingQueue) RepeatMode() RepeatMode {
	return q.repeatMode
}

// SetRepeatMode sets the repeat mode.
func (q *PlayingQueue) SetRepeatMode(mode RepeatMode) {
	q.repeatMode = mode
}

// Shuffle returns whether shuffle is enabled.
func (q *PlayingQueue) Shuffle() bool {
	return q.shuffleOn
}

// SetShuffle enables or disables shuffle. Enabling (re)creates the shuffle
// order anchored at the current index; disabling discards it.
func (q *PlayingQueue) SetShuffle(enabled bool) {
	q.shuffleOn = enabled
	if enabled {
		q.rebuildShuffle()
	} else {
		q.shuffle.Clear()
	}
}

// ShuffleOrder exposes the underlying shuffle order (read-mostly; used for
// timeline building and tests).
func (q *PlayingQueue) ShuffleOrder() *ShuffleOrder {
	return q.shuffle
}

// rebuildShuffle recreates the shuffle order anchored at the current index.
func (q *PlayingQueue) rebuildShuffle() {
	if !q.shuffleOn || q.playlist.Len() == 0 || q.currentIndex < 0 {
		q.shuffle.Clear()
		return
	}
	q.shuffle.Create(q.playlist.Len(), q.currentIndex)
}

// NextIndex returns the index that "next" would move to, honoring repeat
// mode and shuffle order, or -1 if there is no next track.
func (q *PlayingQueue) NextIndex() int {
	n := q.playlist.Len()
	if n == 0 || q.currentIndex < 0 {
		return -1
	}
	if q.repeatMode == RepeatOne {
		return q.currentIndex
	}

	if q.shuffleOn && !q.shuffle.IsEmpty() {
		pos := q.shuffle.PositionOf(q.currentIndex)
		if pos < 0 {
			return -1
		}
		if pos+1 < q.shuffle.Len() {
			return q.shuffle.OriginalAt(pos + 1)
		}
		if q.repeatMode == RepeatAll {
			return q.shuffle.OriginalAt(0)
		}
		return -1
	}

	if q.currentIndex+1 < n {
		return q.currentIndex + 1
	}
	if q.repeatMode == RepeatAll {
		return 0
	}
	return -1
}

// PreviousIndex returns the index that "previous" would move to, or -1.
func (q *PlayingQueue) PreviousIndex() int {
	n := q.playlist.Len()
	if n == 0 || q.currentIndex < 0 {
		return -1
	}
	if q.repeatMode == RepeatOne {
		return q.currentIndex
	}

	if q.shuffleOn && !q.shuffle.IsEmpty() {
		pos := q.shuffle.PositionOf(q.currentIndex)
		if pos < 0 {
			return -1
		}
		if pos > 0 {
			return q.shuffle.OriginalAt(pos - 1)
		}
		if q.repeatMode == RepeatAll {
			return q.shuffle.OriginalAt(q.shuffle.Len() - 1)
		}
		return -1
	}

	if q.currentIndex > 0 {
		return q.currentIndex - 1
	}
	if q.repeatMode == RepeatAll {
		return n - 1
	}
	return -1
}

// HasNext returns true if there is a track after the current one.
// RepeatOne and RepeatAll always report true on a non-empty queue.
func (q *PlayingQueue) HasNext() bool {
	if q.playlist.Len() == 0 {
		return false
	}
	if q.repeatMode == RepeatOne || q.repeatMode == RepeatAll {
		return true
	}
	return q.NextIndex() != -1
}

// HasPrevious returns true if there is a track before the current one.
func (q *PlayingQueue) HasPrevious() bool {
	if q.playlist.Len() == 0 {
		return false
	}
	if q.repeatMode == RepeatOne || q.repeatMode == RepeatAll {
		return true
	}
	return q.PreviousIndex() != -1
}

// Advance moves the current position forward (respecting modes) and
// returns the new current track, or nil if there is no next track.
func (q *PlayingQueue) Advance() *Track {
	next := q.NextIndex()
	if next == -1 {
		return nil
	}
	q.currentIndex = next
	return q.Current()
}

// JumpTo sets the current index to the specified original position.
// Returns the track at that position, or nil if invalid.
func (q *PlayingQueue) JumpTo(index int) *Track {
	if index < 0 || index >= q.playlist.Len() {
		return nil
	}
	q.currentIndex = index
	return q.Current()
}

// Add appends tracks to the queue without changing playback. The shuffle
// order, if active, is rebuilt to cover the new slots.
func (q *PlayingQueue) Add(tracks ...Track) {
	if len(tracks) == 0 {
		return
	}
	q.playlist.Add(tracks...)
	if q.currentIndex == -1 {
		q.currentIndex = 0
	}
	q.rebuildShuffle()
}

// Insert splices one track at the given index. If the insertion lands
// immediately after the current track, the shuffle order is patched in
// place ("play next" keeps the shuffled tail); otherwise it is rebuilt.
// Returns false on an out-of-range index.
func (q *PlayingQueue) Insert(index int, track Track) bool {
	if !q.playlist.Insert(index, track) {
		return false
	}
	if index <= q.currentIndex {
		q.currentIndex++
	}
	if q.shuffleOn {
		if index == q.currentIndex+1 && !q.shuffle.IsEmpty() {
			q.shuffle.InsertAfterCurrent(index, q.shuffle.PositionOf(q.currentIndex))
		} else {
			q.rebuildShuffle()
		}
	}
	return true
}

// Replace clears the queue, adds tracks, and sets index to 0.
// Returns the first track to play, or nil if tracks is empty.
func (q *PlayingQueue) Replace(tracks ...Track) *Track {
	q.playlist.Clear()
	q.currentIndex = -1
	if len(tracks) == 0 {
		q.shuffle.Clear()
		return nil
	}
	q.playlist.Add(tracks...)
	q.currentIndex = 0
	q.rebuildShuffle()
	return q.Current()
}

// RemoveAt removes the track at the given index, patching the shuffle
// order and adjusting currentIndex. Returns false on an out-of-range index.
//
// Removing the current track leaves currentIndex pointing at the slot that
// now holds the following track (clamped to the end).
func (q *PlayingQueue) RemoveAt(index int) bool {
	if !q.playlist.Remove(index) {
		return false
	}

	if q.shuffleOn {
		q.shuffle.RemoveOriginal(index)
	}

	if q.currentIndex > index {
		q.currentIndex--
	} else if q.currentIndex == index {
		if q.currentIndex >= q.playlist.Len() {
			q.currentIndex = q.playlist.Len() - 1
		}
	}
	return true
}

// Move repositions the track at from to to and re-derives currentIndex.
// A move invalidates the shuffled lookahead, so the shuffle order is fully
// rebuilt. Returns false on an out-of-range index.
func (q *PlayingQueue) Move(from, to int) bool {
	if !q.playlist.Move(from, to) {
		return false
	}

	switch {
	case q.currentIndex == from:
		q.currentIndex = to
	case from < q.currentIndex && to >= q.currentIndex:
		q.currentIndex--
	case from > q.currentIndex && to <= q.currentIndex:
		q.currentIndex++
	}

	q.rebuildShuffle()
	return true
}

// Clear removes all tracks and resets playback.
func (q *PlayingQueue) Clear() {
	q.playlist.Clear()
	q.currentIndex = -1
	q.shuffle.Clear()
}

// Tracks returns all tracks in original order.
func (q *PlayingQueue) Tracks() []Track {
	return q.playlist.Tracks()
}

// Timeline returns the tracks in playback order: shuffled order when
// shuffle is enabled, original order otherwise.
func (q *PlayingQueue) Timeline() []Track {
	if !q.shuffleOn || q.shuffle.IsEmpty() {
		return q.playlist.Tracks()
	}
	result := make([]Track, 0, q.playlist.Len())
	for pos := range q.shuffle.Len() {
		if t := q.playlist.Track(q.shuffle.OriginalAt(pos)); t != nil {
			result = append(result, *t)
		}
	}
	return result
}

// UpcomingIndices returns up to count original indices that follow the
// current one in playback order, honoring repeat mode (wrapping for
// RepeatAll). The current index is never included; RepeatOne yields none.
func (q *PlayingQueue) UpcomingIndices(count int) []int {
	if count <= 0 || q.playlist.Len() == 0 || q.currentIndex < 0 {
		return nil
	}
	if q.repeatMode == RepeatOne {
		return nil
	}

	var result []int
	seen := map[int]bool{q.currentIndex: true}
	idx := q.currentIndex
	for len(result) < count {
		idx = q.nextAfter(idx)
		if idx == -1 || seen[idx] {
			break
		}
		seen[idx] = true
		result = append(result, idx)
	}
	return result
}

// nextAfter computes the playback successor of an arbitrary index,
// honoring shuffle and RepeatAll wrapping (but not RepeatOne).
func (q *PlayingQueue) nextAfter(index int) int {
	n := q.playlist.Len()
	if q.shuffleOn && !q.shuffle.IsEmpty() {
		pos := q.shuffle.PositionOf(index)
		if pos < 0 {
			return -1
		}
		if pos+1 < q.shuffle.Len() {
			return q.shuffle.OriginalAt(pos + 1)
		}
		if q.repeatMode == RepeatAll {
			return q.shuffle.OriginalAt(0)
		}
		return -1
	}
	if index+1 < n {
		return index + 1
	}
	if q.repeatMode == RepeatAll {
		return 0
	}
	return -1
}

// Len returns the number of tracks in the queue.
func (q *PlayingQueue) Len() int {
	return q.playlist.Len()
}

// IsEmpty returns true if the queue has no tracks.
func (q *PlayingQueue) IsEmpty() bool {
	return q.playlist.Len() == 0
}
