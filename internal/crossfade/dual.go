// Package crossfade overlaps the end of the current track with the start
// of the next one. A DualEngine keeps two playback engines: the master is
// audible and externally visible, the auxiliary is a private preparation
// target. A transition ramps the auxiliary in and the master out along
// configurable envelope curves, swapping the two roles at the perceptual
// start of the fade. A Scheduler decides when transitions happen.
package crossfade

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/llehouerou/segue/internal/engine"
	"github.com/llehouerou/segue/internal/focus"
	"github.com/llehouerou/segue/internal/playlist"
)

const (
	// minFadeDuration is the shortest fade worth running.
	minFadeDuration = 500 * time.Millisecond
	// guardWindow keeps the fade from running into the hard end of the
	// outgoing track.
	guardWindow = 150 * time.Millisecond
	// envelopeStep is the volume-ramp update interval.
	envelopeStep = 16 * time.Millisecond
	// warmUpDelay lets the incoming track become perceptible before the
	// ramp starts.
	warmUpDelay = 30 * time.Millisecond

	readyWaitTimeout   = 3 * time.Second
	audibleWaitTimeout = 2 * time.Second
	pollInterval       = 50 * time.Millisecond
)

// DualEngine owns a master/auxiliary engine pair and runs the
// prepare/fade/swap choreography between them. All control traffic from
// the outside goes through Master(); the auxiliary engine is never
// exposed while a track is being prepared on it.
type DualEngine struct {
	mu        sync.Mutex
	master    *engine.Engine
	aux       *engine.Engine
	newEngine func() *engine.Engine

	running bool
	cancel  context.CancelFunc

	nextID    string
	nextStart time.Duration

	swapFns []func(*engine.Engine)

	arbiter     *focus.Arbiter
	handle      *focus.Handle
	focusSub    *engine.Subscription
	focusDip    bool
	resumeAfter bool

	closed bool
}

// New builds a dual engine. newEngine constructs one playback engine
// wired to the shared resolver and player factory; it is called twice up
// front and once more after every completed transition to replace the
// retired auxiliary. arbiter may be nil to disable focus handling.
func New(newEngine func() *engine.Engine, arbiter *focus.Arbiter) *DualEngine {
	d := &DualEngine{
		master:    newEngine(),
		aux:       newEngine(),
		newEngine: newEngine,
		arbiter:   arbiter,
	}
	d.attachFocus(d.master)
	return d
}

// Master returns the currently audible, externally visible engine. The
// returned pointer changes when a transition swaps roles; subscribers
// learn about swaps via OnSwap or their subscription's Done channel.
func (d *DualEngine) Master() *engine.Engine {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.master
}

// OnSwap registers fn to run after each ownership swap with the new
// master engine.
func (d *DualEngine) OnSwap(fn func(newMaster *engine.Engine)) {
	d.mu.Lock()
	d.swapFns = append(d.swapFns, fn)
	d.mu.Unlock()
}

// TransitionRunning reports whether a fade is in flight.
func (d *DualEngine) TransitionRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// NextPrepared returns the track ID loaded on the auxiliary engine, or
// "" when nothing is prepared.
func (d *DualEngine) NextPrepared() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nextID
}

// PrepareNext loads track on the auxiliary engine, paused at zero volume,
// to be started at startPos during the transition. No-op while a
// transition is running.
func (d *DualEngine) PrepareNext(track playlist.Track, startPos time.Duration) {
	d.mu.Lock()
	if d.closed || d.running {
		d.mu.Unlock()
		return
	}
	aux := d.aux
	if d.nextID == track.ID {
		d.nextStart = startPos
		d.mu.Unlock()
		return
	}
	d.nextID = track.ID
	d.nextStart = startPos
	d.mu.Unlock()

	aux.Stop()
	aux.SetVolume(0)
	aux.SetTrack(track)
}

// CancelNext abandons the prepared track. A running transition is
// cancelled and cleans up through its own exit path; otherwise the
// auxiliary engine is cleared, the master's volume restored and the
// pause-at-end safety net disarmed.
func (d *DualEngine) CancelNext() {
	d.mu.Lock()
	cancel := d.cancel
	running := d.running
	master, aux := d.master, d.aux
	d.nextID = ""
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if running {
		return
	}
	aux.Stop()
	aux.ClearQueue()
	master.SetVolume(1)
	master.SetPauseAtEnd(false)
}

// PerformTransition launches the fade sequence as a background task.
// Returns false if a transition is already running or nothing is
// prepared. transitionRunning is guaranteed to clear on every exit path.
func (d *DualEngine) PerformTransition(settings Settings) bool {
	d.mu.Lock()
	if d.closed || d.running || d.nextID == "" {
		d.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.running = true
	d.cancel = cancel
	d.mu.Unlock()

	go d.runTransition(ctx, cancel, settings)
	return true
}

// Close releases both engines and any in-flight transition.
func (d *DualEngine) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	cancel := d.cancel
	master, aux := d.master, d.aux
	handle := d.handle
	d.handle = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	handle.Release()
	master.Close()
	aux.Close()
	return nil
}

func (d *DualEngine) runTransition(ctx context.Context, cancel context.CancelFunc, settings Settings) {
	defer func() {
		cancel()
		d.mu.Lock()
		d.running = false
		d.cancel = nil
		d.mu.Unlock()
	}()

	d.mu.Lock()
	master, aux := d.master, d.aux
	startAt := d.nextStart
	d.mu.Unlock()

	// The incoming track must finish preparing before anything audible
	// happens; if it cannot, fall back to a hard cut.
	ready := func() bool {
		s := aux.State()
		return s == engine.Ready || s == engine.Paused
	}
	if !waitUntil(ctx, readyWaitTimeout, ready) {
		d.abort(master, aux)
		return
	}
	if startAt > 0 {
		aux.SeekTo(startAt)
	}

	aux.SetVolume(0)
	aux.Play()
	if !waitUntil(ctx, audibleWaitTimeout, aux.IsPlaying) {
		d.abort(master, aux)
		return
	}
	if !sleepCtx(ctx, warmUpDelay) {
		d.abort(master, aux)
		return
	}

	d.swapOwnership(master, aux)
	// Roles are swapped: aux is the audible master now, master is the
	// retiring auxiliary. Finalization always runs, cancelled or not.
	defer d.finalize(aux, master)

	d.fade(ctx, aux, master, settings)
}

// abort is the pre-swap failure path: the prepared track is dropped and
// the still-master engine restored, so the listener hears a plain track
// change instead of a broken fade.
func (d *DualEngine) abort(master, aux *engine.Engine) {
	d.mu.Lock()
	d.nextID = ""
	d.mu.Unlock()
	aux.Stop()
	master.SetVolume(1)
	master.SetPauseAtEnd(false)
}

// swapOwnership transfers playlist continuity, focus and the master role
// from the outgoing engine to the prepared one, then notifies listeners.
// External observers see the new current track from this moment on, which
// is when the transition becomes audible.
func (d *DualEngine) swapOwnership(oldMaster, next *engine.Engine) {
	cur := oldMaster.CurrentTrack()
	nextCur := next.CurrentTrack()
	timeline := oldMaster.Timeline()

	pos := -1
	if cur != nil {
		for i, t := range timeline {
			if t.ID == cur.ID {
				pos = i
				break
			}
		}
	}
	var history, future []playlist.Track
	if pos >= 0 {
		if nextCur != nil && cur.ID == nextCur.ID {
			// Repeat-one self-loop: the finished playthrough does not
			// join history, the adopted engine already holds the item.
			history = timeline[:pos]
			future = timeline[pos+1:]
		} else {
			history = timeline[:pos+1]
			future = timeline[pos+1:]
			if len(future) > 0 && nextCur != nil && future[0].ID == nextCur.ID {
				future = future[1:]
			}
		}
	}

	// The outgoing engine must not advance its own queue when it hits
	// end-of-stream mid-fade.
	oldMaster.SetPauseAtEnd(true)

	next.AdoptTimeline(history, future)
	next.SetRepeatMode(oldMaster.RepeatMode())
	next.SetShuffle(oldMaster.Shuffle())

	d.mu.Lock()
	d.master, d.aux = next, oldMaster
	d.nextID = ""
	fns := slices.Clone(d.swapFns)
	oldSub := d.focusSub
	d.focusSub = nil
	d.mu.Unlock()

	if oldSub != nil {
		oldMaster.Unsubscribe(oldSub)
	}
	d.attachFocus(next)

	for _, fn := range fns {
		fn(next)
	}
}

// fade ramps the new master in and the retiring engine out. Either
// engine reaching a terminal end-of-stream counts as a clean early
// finish.
func (d *DualEngine) fade(ctx context.Context, master, retiring *engine.Engine, settings Settings) {
	dur := settings.Duration
	if dur < minFadeDuration {
		dur = minFadeDuration
	}
	start := time.Now()
	ticker := time.NewTicker(envelopeStep)
	defer ticker.Stop()

	for {
		p := float64(time.Since(start)) / float64(dur)
		if p >= 1 {
			return
		}
		master.SetVolume(Envelope(p, settings.CurveIn))
		retiring.SetVolume(1 - Envelope(p, settings.CurveOut))

		if master.State() == engine.Ended || retiring.State() == engine.Ended {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// finalize settles volumes at their endpoints, retires the outgoing
// engine and builds a fresh auxiliary in its place. Reconstructing
// instead of reusing keeps native resources from accumulating across
// many transitions.
func (d *DualEngine) finalize(master, retired *engine.Engine) {
	retired.SetVolume(0)
	master.SetVolume(1)
	retired.Stop()
	master.SetPauseAtEnd(false)

	d.mu.Lock()
	replace := !d.closed && d.aux == retired
	var fresh *engine.Engine
	if replace {
		fresh = d.newEngine()
		fresh.SetVolume(0)
		d.aux = fresh
	}
	d.mu.Unlock()

	if replace {
		retired.Close()
	}
}

// attachFocus subscribes to the engine's playing flag and ties it to
// audio-focus requests: focus is taken when playback starts and given up
// when the user pauses, but kept across pauses the arbiter itself caused.
func (d *DualEngine) attachFocus(m *engine.Engine) {
	if d.arbiter == nil {
		return
	}
	sub := m.Subscribe()
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		m.Unsubscribe(sub)
		return
	}
	d.focusSub = sub
	d.mu.Unlock()

	go func() {
		for {
			select {
			case ev := <-sub.PlayingChanged:
				d.onPlayingChanged(m, ev.IsPlaying)
			case <-sub.Done:
				return
			}
		}
	}()
}

func (d *DualEngine) onPlayingChanged(m *engine.Engine, playing bool) {
	d.mu.Lock()
	if m != d.master || d.focusDip {
		d.mu.Unlock()
		return
	}
	handle := d.handle
	if playing && handle == nil {
		d.mu.Unlock()
		h := d.arbiter.Request(d.onFocusLoss, d.onFocusGain)
		d.mu.Lock()
		d.handle = h
		d.mu.Unlock()
		return
	}
	if !playing && handle != nil {
		d.handle = nil
		d.mu.Unlock()
		handle.Release()
		return
	}
	d.mu.Unlock()
}

func (d *DualEngine) onFocusLoss(loss focus.Loss) {
	d.mu.Lock()
	master, aux := d.master, d.aux
	d.focusDip = true
	d.resumeAfter = loss == focus.LossTransient && master.IsPlaying()
	if loss == focus.LossPermanent {
		d.handle = nil
	}
	d.mu.Unlock()

	master.Pause()
	aux.Pause()

	if loss == focus.LossPermanent {
		d.mu.Lock()
		d.focusDip = false
		d.resumeAfter = false
		d.mu.Unlock()
	}
}

func (d *DualEngine) onFocusGain() {
	d.mu.Lock()
	master := d.master
	resume := d.resumeAfter
	d.focusDip = false
	d.resumeAfter = false
	d.mu.Unlock()

	if resume {
		master.Play()
	}
}

func sleepCtx(ctx context.Context, dur time.Duration) bool {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// waitUntil polls cond until it holds, the timeout elapses or ctx is
// cancelled.
func waitUntil(ctx context.Context, timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		if !sleepCtx(ctx, pollInterval) {
			return false
		}
	}
}
