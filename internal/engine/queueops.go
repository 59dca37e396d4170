package engine

import "github.com/llehouerou/segue/internal/playlist"

// timelineEventLocked snapshots the playback-order timeline for emission.
func (e *Engine) timelineEventLocked(reason TransitionReason) subEvent {
	tracks := e.queue.Timeline()
	idx := e.queue.CurrentIndex()
	return func(sub *Subscription) {
		sub.sendTimeline(TimelineChange{Tracks: tracks, Index: idx, Reason: reason})
	}
}

// CurrentTrack returns a copy of the current track, or nil if none.
func (e *Engine) CurrentTrack() *playlist.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.queue.Current()
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

// CurrentIndex returns the current queue index (-1 if none).
func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.CurrentIndex()
}

// Tracks returns the queue in original order.
func (e *Engine) Tracks() []playlist.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Tracks()
}

// Timeline returns the queue in playback order (shuffled when shuffle is
// enabled, original order otherwise).
func (e *Engine) Timeline() []playlist.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Timeline()
}

// QueueLen returns the number of queued tracks.
func (e *Engine) QueueLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Len()
}

// PeekNext returns a copy of the track that "next" would play, or nil.
func (e *Engine) PeekNext() *playlist.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.queue.NextIndex()
	if idx == -1 {
		return nil
	}
	t := e.queue.Track(idx)
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

// HasNext reports whether navigation forward is possible. Repeat-one and
// repeat-all always report true on a non-empty queue.
func (e *Engine) HasNext() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.queue.HasNext() {
		return true
	}
	return e.endless && e.source != nil && !e.queue.IsEmpty()
}

// HasPrevious reports whether navigation backward is possible.
func (e *Engine) HasPrevious() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.HasPrevious()
}

// Next moves to the next track (honoring repeat and shuffle) and keeps
// the current play/pause posture. No-op if there is no next track.
func (e *Engine) Next() {
	e.mu.Lock()
	prev := copyTrack(e.queue.Current())
	prevIdx := e.queue.CurrentIndex()
	next := e.queue.Advance()
	if next == nil {
		e.mu.Unlock()
		return
	}
	evs := e.loadCurrentLocked(e.wantsPlaybackLocked(), ReasonSeek, prev, prevIdx)
	e.mu.Unlock()
	e.publish(evs...)
}

// Previous moves to the previous track (honoring repeat and shuffle).
func (e *Engine) Previous() {
	e.mu.Lock()
	prevIdx := e.queue.CurrentIndex()
	idx := e.queue.PreviousIndex()
	if idx == -1 {
		e.mu.Unlock()
		return
	}
	prev := copyTrack(e.queue.Current())
	e.queue.JumpTo(idx)
	evs := e.loadCurrentLocked(e.wantsPlaybackLocked(), ReasonSeek, prev, prevIdx)
	e.mu.Unlock()
	e.publish(evs...)
}

// JumpTo moves to an arbitrary queue index. Silent no-op when out of range.
func (e *Engine) JumpTo(index int) {
	e.mu.Lock()
	prev := copyTrack(e.queue.Current())
	prevIdx := e.queue.CurrentIndex()
	if e.queue.JumpTo(index) == nil {
		e.mu.Unlock()
		return
	}
	evs := e.loadCurrentLocked(e.wantsPlaybackLocked(), ReasonSeek, prev, prevIdx)
	e.mu.Unlock()
	e.publish(evs...)
}

// wantsPlaybackLocked reports whether a navigation should keep playing:
// either audio is playing now or a pending load was going to autoplay.
func (e *Engine) wantsPlaybackLocked() bool {
	return e.state == Playing || (e.state == Preparing && e.autoplay)
}

// SetTrack clears the queue, sets it to this single track and begins
// loading it. Playback continues automatically if audio was playing.
func (e *Engine) SetTrack(track playlist.Track) {
	e.mu.Lock()
	autoplay := e.wantsPlaybackLocked()
	prev := copyTrack(e.queue.Current())
	prevIdx := e.queue.CurrentIndex()
	e.queue.Replace(track)
	e.precache.Clear()
	evs := []subEvent{e.timelineEventLocked(ReasonPlaylistChanged)}
	evs = append(evs, e.loadCurrentLocked(autoplay, ReasonPlaylistChanged, prev, prevIdx)...)
	e.mu.Unlock()
	e.publish(evs...)
}

// ReplaceQueue replaces the whole queue and begins loading the first
// track (paused unless audio was playing).
func (e *Engine) ReplaceQueue(tracks ...playlist.Track) {
	e.mu.Lock()
	autoplay := e.wantsPlaybackLocked()
	prev := copyTrack(e.queue.Current())
	prevIdx := e.queue.CurrentIndex()
	e.queue.Replace(tracks...)
	e.precache.Clear()
	evs := []subEvent{e.timelineEventLocked(ReasonPlaylistChanged)}
	if len(tracks) == 0 {
		e.loadGen++
		e.player.Stop()
		evs = append(evs, e.setStateLocked(Idle)...)
	} else {
		evs = append(evs, e.loadCurrentLocked(autoplay, ReasonPlaylistChanged, prev, prevIdx)...)
	}
	e.mu.Unlock()
	e.publish(evs...)
}

// AddTrack appends the track, or splices it at index when one is given.
// An insertion adjacent to the current track patches the shuffle order in
// place instead of rebuilding it. Out-of-range indices are silent no-ops.
func (e *Engine) AddTrack(track playlist.Track, index ...int) {
	e.mu.Lock()
	if len(index) > 0 {
		if !e.queue.Insert(index[0], track) {
			e.mu.Unlock()
			return
		}
	} else {
		e.queue.Add(track)
	}
	evs := []subEvent{e.timelineEventLocked(ReasonPlaylistChanged)}
	e.schedulePrecacheLocked()
	e.mu.Unlock()
	e.publish(evs...)
}

// RemoveTrack removes the queue slot and any matching precache entry.
// Removing the current track loads whatever now occupies its slot, or
// stops if the queue became empty. Silent no-op when out of range.
func (e *Engine) RemoveTrack(index int) {
	e.mu.Lock()
	removed := e.queue.Track(index)
	if removed == nil {
		e.mu.Unlock()
		return
	}
	removedTrack := *removed
	wasCurrent := index == e.queue.CurrentIndex()
	autoplay := e.wantsPlaybackLocked()

	e.queue.RemoveAt(index)
	e.precache.Remove(removedTrack.ID)

	evs := []subEvent{e.timelineEventLocked(ReasonPlaylistChanged)}
	switch {
	case wasCurrent && e.queue.IsEmpty():
		e.loadGen++
		e.player.Stop()
		evs = append(evs, e.setStateLocked(Idle)...)
	case wasCurrent:
		evs = append(evs, e.loadCurrentLocked(autoplay, ReasonPlaylistChanged, &removedTrack, index)...)
	default:
		e.schedulePrecacheLocked()
	}
	e.mu.Unlock()
	e.publish(evs...)
}

// MoveTrack repositions a queue slot. The shuffle order is fully rebuilt.
// Silent no-op when out of range.
func (e *Engine) MoveTrack(from, to int) {
	e.mu.Lock()
	if !e.queue.Move(from, to) {
		e.mu.Unlock()
		return
	}
	evs := []subEvent{e.timelineEventLocked(ReasonPlaylistChanged)}
	e.schedulePrecacheLocked()
	e.mu.Unlock()
	e.publish(evs...)
}

// ClearQueue stops playback and empties the queue and precache pool.
func (e *Engine) ClearQueue() {
	e.mu.Lock()
	e.loadGen++
	e.player.Stop()
	e.queue.Clear()
	e.precache.Clear()
	evs := e.setStateLocked(Idle)
	evs = append(evs, e.timelineEventLocked(ReasonPlaylistChanged))
	e.mu.Unlock()
	e.publish(evs...)
}

// RepeatMode returns the current repeat mode.
func (e *Engine) RepeatMode() playlist.RepeatMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.RepeatMode()
}

// SetRepeatMode sets the repeat mode and re-evaluates the lookahead.
func (e *Engine) SetRepeatMode(mode playlist.RepeatMode) {
	e.mu.Lock()
	if e.queue.RepeatMode() == mode {
		e.mu.Unlock()
		return
	}
	e.queue.SetRepeatMode(mode)
	evs := []subEvent{e.modeEventLocked()}
	e.schedulePrecacheLocked()
	e.mu.Unlock()
	e.publish(evs...)
}

// Shuffle returns whether shuffle is enabled.
func (e *Engine) Shuffle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Shuffle()
}

// SetShuffle enables or disables shuffle. Enabling anchors the current
// track at shuffled position 0; disabling restores original order.
func (e *Engine) SetShuffle(enabled bool) {
	e.mu.Lock()
	if e.queue.Shuffle() == enabled {
		e.mu.Unlock()
		return
	}
	e.queue.SetShuffle(enabled)
	evs := []subEvent{e.modeEventLocked()}
	e.schedulePrecacheLocked()
	e.mu.Unlock()
	e.publish(evs...)
}

// modeEventLocked snapshots repeat/shuffle mode with the resulting
// playback-order timeline.
func (e *Engine) modeEventLocked() subEvent {
	mode := e.queue.RepeatMode()
	shuffle := e.queue.Shuffle()
	tracks := e.queue.Timeline()
	return func(sub *Subscription) {
		sub.sendMode(ModeChange{RepeatMode: mode, Shuffle: shuffle, Tracks: tracks})
	}
}

// AdoptTimeline splices history tracks before the current one and future
// tracks after the existing tail, keeping the current track current. Used
// during a crossfade swap to transfer playlist continuity from the old
// master: the auxiliary engine starts with only the upcoming track and
// adopts the full timeline the moment it becomes master.
func (e *Engine) AdoptTimeline(history, future []playlist.Track) {
	e.mu.Lock()
	cur := e.queue.CurrentIndex()
	if cur < 0 {
		e.mu.Unlock()
		return
	}
	shuffleOn := e.queue.Shuffle()

	all := make([]playlist.Track, 0, len(history)+e.queue.Len()+len(future))
	all = append(all, history...)
	all = append(all, e.queue.Tracks()...)
	all = append(all, future...)

	e.queue.Replace(all...)
	e.queue.JumpTo(len(history) + cur)
	e.queue.SetShuffle(shuffleOn)

	evs := []subEvent{e.timelineEventLocked(ReasonPlaylistChanged)}
	e.schedulePrecacheLocked()
	e.mu.Unlock()
	e.publish(evs...)
}

func copyTrack(t *playlist.Track) *playlist.Track {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
