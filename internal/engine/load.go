package engine

import (
	"context"
	"time"

	"github.com/llehouerou/segue/internal/playlist"
)

// precachePacing is the inter-item delay of a precache pass, bounding the
// I/O burst rate.
const precachePacing = 100 * time.Millisecond

// loadCurrentLocked begins playback preparation of the queue's current
// track and returns the events to publish. A reason of "" suppresses the
// track-transition event (plain resume from Idle).
//
// The precache pool is consulted first: a prepared player is promoted
// straight to the active slot, skipping the resolve+prepare latency.
func (e *Engine) loadCurrentLocked(autoplay bool, reason TransitionReason, prev *playlist.Track, prevIndex int) []subEvent {
	track := e.queue.Current()
	if track == nil {
		return nil
	}

	e.loadGen++
	gen := e.loadGen
	e.autoplay = autoplay

	var evs []subEvent
	if reason != "" {
		cur := *track
		idx := e.queue.CurrentIndex()
		r := reason
		p := prev
		pi := prevIndex
		evs = append(evs, func(sub *Subscription) {
			sub.sendTrack(TrackChange{
				Previous:      p,
				Current:       &cur,
				PreviousIndex: pi,
				Index:         idx,
				Reason:        r,
			})
		})
	}

	if entry, ok := e.precache.Take(track.ID); ok {
		old := e.player
		e.player = entry.Player
		old.Stop()
		e.player.SetVolume(e.volumeLevel)
		if e.autoplay {
			e.player.Play()
			evs = append(evs, e.setStateLocked(Playing)...)
		} else {
			evs = append(evs, e.setStateLocked(Ready)...)
		}
		e.schedulePrecacheLocked()
		return evs
	}

	evs = append(evs, e.setStateLocked(Preparing)...)
	evs = append(evs, func(sub *Subscription) {
		sub.sendLoading(LoadingChange{IsLoading: true})
	})

	go e.resolveAndPrepare(gen, *track)
	return evs
}

// resolveAndPrepare runs the slow half of a load off the engine task:
// source resolution (possibly network) and native prepare. The result is
// discarded if another load superseded this one.
func (e *Engine) resolveAndPrepare(gen int, track playlist.Track) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-e.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	src, err := e.res.Resolve(ctx, track.ID)

	e.mu.Lock()
	if gen != e.loadGen || e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		evs := e.failLoadLocked(&Error{Code: CodeResolveFailed, TrackID: track.ID, Err: err})
		e.mu.Unlock()
		e.publish(evs...)
		return
	}
	pl := e.player
	e.mu.Unlock()

	loadErr := pl.Load(src.Path)

	e.mu.Lock()
	if gen != e.loadGen || e.closed {
		e.mu.Unlock()
		return
	}
	var evs []subEvent
	if loadErr != nil {
		evs = e.failLoadLocked(&Error{Code: CodePrepareFailed, TrackID: track.ID, Err: loadErr})
	} else {
		e.player.SetVolume(e.volumeLevel)
		if e.autoplay {
			e.player.Play()
			evs = e.setStateLocked(Playing)
		} else {
			evs = e.setStateLocked(Ready)
		}
		evs = append(evs, func(sub *Subscription) {
			sub.sendLoading(LoadingChange{IsLoading: false})
		})
		e.schedulePrecacheLocked()
	}
	e.mu.Unlock()
	e.publish(evs...)
}

// failLoadLocked moves the engine to the Error state and returns the
// events carrying the player error. Playback is not advanced and there is
// no automatic retry; the state is recoverable via a fresh load.
func (e *Engine) failLoadLocked(perr *Error) []subEvent {
	e.player.Stop()
	evs := e.setStateLocked(Errored)
	evs = append(evs,
		func(sub *Subscription) { sub.sendLoading(LoadingChange{IsLoading: false}) },
		func(sub *Subscription) { sub.sendError(ErrorEvent{Err: perr}) },
	)
	return evs
}

// onNativeFinished applies the queue-advance policy after a native
// end-of-stream report. Reports arriving within the debounce window of
// the previous one are ignored.
func (e *Engine) onNativeFinished() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if time.Since(e.lastNativeReport) < stateChangeDebounce {
		e.mu.Unlock()
		return
	}
	e.lastNativeReport = time.Now()

	evs := e.setStateLocked(Ended)

	if e.pauseAtEnd {
		// Safety net armed: halt at the boundary, the transition
		// orchestrator owns what happens next.
		e.mu.Unlock()
		e.publish(evs...)
		return
	}

	prev := e.queue.Current()
	prevIdx := e.queue.CurrentIndex()

	if e.queue.RepeatMode() == playlist.RepeatOne {
		evs = append(evs, e.loadCurrentLocked(true, ReasonRepeat, prev, prevIdx)...)
		e.mu.Unlock()
		e.publish(evs...)
		return
	}

	if next := e.queue.Advance(); next != nil {
		evs = append(evs, e.loadCurrentLocked(true, ReasonAuto, prev, prevIdx)...)
		e.mu.Unlock()
		e.publish(evs...)
		return
	}

	if e.endless && e.source != nil {
		gen := e.loadGen
		e.mu.Unlock()
		e.publish(evs...)
		e.refillAndContinue(gen, prev, prevIdx)
		return
	}

	// End of queue with repeat off: stay Ended, release the player.
	e.player.Stop()
	e.mu.Unlock()
	e.publish(evs...)
}

// refillAndContinue asks the queue source for more tracks and, if any
// arrive, appends them and continues playback.
func (e *Engine) refillAndContinue(gen int, prev *playlist.Track, prevIdx int) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracks, err := e.source.NextTracks(ctx, refillCount)

	e.mu.Lock()
	if e.closed || gen != e.loadGen || len(tracks) == 0 || err != nil {
		e.player.Stop()
		e.mu.Unlock()
		return
	}
	e.queue.Add(tracks...)
	var evs []subEvent
	evs = append(evs, e.timelineEventLocked(ReasonAuto))
	if next := e.queue.Advance(); next != nil {
		evs = append(evs, e.loadCurrentLocked(true, ReasonAuto, prev, prevIdx)...)
	}
	e.mu.Unlock()
	e.publish(evs...)
}

// precacheTarget is one track a precache pass should prepare.
type precacheTarget struct {
	track    playlist.Track
	priority int
}

// schedulePrecacheLocked reconciles the pool with the current lookahead
// window and starts a background pass for whatever is missing. Any
// previous pass is cancelled first.
func (e *Engine) schedulePrecacheLocked() {
	if e.precacheCancel != nil {
		e.precacheCancel()
		e.precacheCancel = nil
	}
	if e.closed {
		return
	}

	upcoming := e.queue.UpcomingIndices(e.precache.Max())
	wanted := make(map[string]int, len(upcoming))
	var targets []precacheTarget
	for prio, idx := range upcoming {
		t := e.queue.Track(idx)
		if t == nil {
			continue
		}
		wanted[t.ID] = prio
		if !e.precache.Has(t.ID) {
			targets = append(targets, precacheTarget{track: *t, priority: prio})
		}
	}

	// Evict entries that no longer match the lookahead window.
	e.precache.SyncWith(wanted)

	if len(targets) == 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.precacheCancel = cancel
	go e.precachePass(ctx, targets)
}

// precachePass resolves and prepares upcoming tracks one by one, pacing
// the I/O and observing cancellation at every step. A failed candidate is
// skipped, never surfaced: the fallback is a normal prepare cycle when
// the track actually becomes current.
func (e *Engine) precachePass(ctx context.Context, targets []precacheTarget) {
	for i, tgt := range targets {
		if i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(precachePacing):
			}
		}
		if ctx.Err() != nil {
			return
		}

		src, err := e.res.Resolve(ctx, tgt.track.ID)
		if err != nil {
			continue
		}

		pl := e.newPlayer()
		if err := pl.Load(src.Path); err != nil {
			pl.Close()
			continue
		}
		pl.SetVolume(0)

		e.mu.Lock()
		cur := e.queue.Current()
		wanted := ctx.Err() == nil && (cur == nil || cur.ID != tgt.track.ID)
		e.mu.Unlock()
		if !wanted {
			pl.Close()
			continue
		}

		tgt.track.Path = src.Path
		e.precache.Put(PrecacheEntry{Track: tgt.track, Player: pl}, tgt.priority)
	}
}
