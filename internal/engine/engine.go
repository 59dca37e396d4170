// Package engine implements the playback engine: a state machine wrapping
// one native player, the playing queue with shuffle support, a precache
// pool for upcoming tracks, and channel-based event subscriptions.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/llehouerou/segue/internal/player"
	"github.com/llehouerou/segue/internal/playlist"
	"github.com/llehouerou/segue/internal/resolver"
)

// QueueSource supplies more tracks when the endless queue runs dry.
type QueueSource interface {
	NextTracks(ctx context.Context, count int) ([]playlist.Track, error)
}

// refillCount is how many tracks an endless-queue refill asks for.
const refillCount = 10

// Options configures an Engine.
type Options struct {
	// MaxPrecache bounds the precache pool (default 2).
	MaxPrecache int
	// Endless requests a queue refill from Source instead of stopping
	// when the last track ends with repeat off.
	Endless bool
	// Source is the endless-queue collaborator (required when Endless).
	Source QueueSource
	// NewPlayer constructs native players for the precache pool.
	// Defaults to the beep-backed player.
	NewPlayer func() player.Interface
}

// Engine drives playback of a queue through one native player instance.
// All mutations are funneled through its mutex; events are delivered on
// subscriber channels after the mutating call completes.
type Engine struct {
	mu sync.Mutex

	player    player.Interface
	newPlayer func() player.Interface
	res       resolver.Resolver
	queue     *playlist.PlayingQueue
	precache  *PrecachePool

	state            State
	lastNativeReport time.Time
	volumeLevel      float64
	autoplay         bool // play as soon as the pending load is ready
	pauseAtEnd       bool
	endless          bool
	source           QueueSource

	// loadGen invalidates in-flight resolve/prepare tasks: a task only
	// applies its result if the generation still matches.
	loadGen        int
	precacheCancel context.CancelFunc

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	closed bool
}

// New creates an engine around the given native player and resolver.
func New(p player.Interface, res resolver.Resolver, opts Options) *Engine {
	newPlayer := opts.NewPlayer
	if newPlayer == nil {
		newPlayer = func() player.Interface { return player.New() }
	}
	e := &Engine{
		player:      p,
		newPlayer:   newPlayer,
		res:         res,
		queue:       playlist.NewQueue(),
		precache:    NewPrecachePool(opts.MaxPrecache),
		state:       Idle,
		volumeLevel: 1,
		endless:     opts.Endless,
		source:      opts.Source,
		done:        make(chan struct{}),
	}
	go e.watchNative()
	return e
}

// watchNative translates native end-of-stream signals into the
// queue-advance policy. The player reference is re-read every cycle since
// promotion from the precache pool swaps it.
func (e *Engine) watchNative() {
	for {
		e.mu.Lock()
		pl := e.player
		e.mu.Unlock()

		select {
		case <-e.done:
			return
		case <-pl.FinishedChan():
			e.onNativeFinished()
		case <-time.After(200 * time.Millisecond):
			// Re-check player identity.
		}
	}
}

// State returns the current engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsPlaying returns true if the engine is audibly playing.
func (e *Engine) IsPlaying() bool {
	return e.State() == Playing
}

// Position returns the current playback position.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	pl := e.player
	e.mu.Unlock()
	return pl.Position()
}

// Duration returns the current track duration as reported by the native
// player (0 until the track is prepared).
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	pl := e.player
	e.mu.Unlock()
	return pl.Duration()
}

// Player exposes the active native player (volume ramps during
// crossfades go straight to the player, bypassing engine volume events).
func (e *Engine) Player() player.Interface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.player
}

// Play starts or resumes playback. During a pending load it records the
// autoplay intent instead, so the load surfaces Playing rather than Ready.
// From Idle/Ended/Error with a non-empty queue it begins a fresh load.
func (e *Engine) Play() {
	e.mu.Lock()
	var evs []subEvent

	switch e.state {
	case Ready, Paused:
		e.player.Play()
		evs = e.setStateLocked(Playing)
	case Preparing:
		e.autoplay = true
	case Idle, Ended, Errored:
		if e.queue.Current() != nil {
			evs = e.loadCurrentLocked(true, "", nil, -1)
		}
	case Playing:
		// Already playing.
	}

	e.mu.Unlock()
	e.publish(evs...)
}

// Pause pauses playback.
func (e *Engine) Pause() {
	e.mu.Lock()
	var evs []subEvent
	if e.state == Playing {
		e.player.Pause()
		evs = e.setStateLocked(Paused)
	}
	e.mu.Unlock()
	e.publish(evs...)
}

// Stop releases native playback resources but retains the playlist and
// index. Any in-flight load is abandoned.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.loadGen++
	e.autoplay = false
	e.player.Stop()
	evs := e.setStateLocked(Idle)
	e.mu.Unlock()
	e.publish(evs...)
}

// SeekTo moves playback to an absolute position in the current track.
func (e *Engine) SeekTo(pos time.Duration) {
	e.mu.Lock()
	pl := e.player
	st := e.state
	e.mu.Unlock()
	if st.IsActive() || st == Ready {
		pl.SeekTo(pos)
	}
}

// SetVolume sets the engine volume level (0.0 to 1.0).
func (e *Engine) SetVolume(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	e.mu.Lock()
	e.volumeLevel = level
	e.player.SetVolume(level)
	e.mu.Unlock()
	e.publish(func(s *Subscription) { s.sendVolume(VolumeChange{Level: level}) })
}

// Volume returns the engine volume level.
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volumeLevel
}

// SetPauseAtEnd toggles the safety net that halts playback at the track
// boundary instead of advancing. Used as a fallback when a timed
// crossfade trigger is missed.
func (e *Engine) SetPauseAtEnd(enabled bool) {
	e.mu.Lock()
	e.pauseAtEnd = enabled
	e.mu.Unlock()
}

// PauseAtEnd reports whether the pause-at-end safety net is armed.
func (e *Engine) PauseAtEnd() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pauseAtEnd
}

// Precache exposes the precache pool (read-mostly; used by tests and
// status surfaces).
func (e *Engine) Precache() *PrecachePool {
	return e.precache
}

// Subscribe creates a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	sub := newSubscription()
	e.subs = append(e.subs, sub)
	return sub
}

// Unsubscribe detaches and closes a subscription.
func (e *Engine) Unsubscribe(sub *Subscription) {
	e.subsMu.Lock()
	for i, s := range e.subs {
		if s == sub {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			sub.close()
			break
		}
	}
	e.subsMu.Unlock()
}

// Close shuts down the engine and releases all native resources.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.loadGen++
	if e.precacheCancel != nil {
		e.precacheCancel()
		e.precacheCancel = nil
	}
	close(e.done)
	e.player.Close()
	e.state = Idle
	e.mu.Unlock()

	e.precache.Clear()

	e.subsMu.Lock()
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.subsMu.Unlock()
	return nil
}

// subEvent delivers one event to one subscriber.
type subEvent func(*Subscription)

// publish fans events out to every subscriber, in order.
func (e *Engine) publish(evs ...subEvent) {
	if len(evs) == 0 {
		return
	}
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		for _, ev := range evs {
			ev(sub)
		}
	}
}

// setStateLocked transitions the state machine and returns the events to
// publish once the lock is dropped.
func (e *Engine) setStateLocked(s State) []subEvent {
	if s == e.state {
		return nil
	}
	prev := e.state
	e.state = s

	evs := []subEvent{func(sub *Subscription) {
		sub.sendState(StateChange{Previous: prev, Current: s})
	}}
	if (prev == Playing) != (s == Playing) {
		playing := s == Playing
		evs = append(evs, func(sub *Subscription) {
			sub.sendPlaying(PlayingChange{IsPlaying: playing})
		})
	}
	return evs
}
