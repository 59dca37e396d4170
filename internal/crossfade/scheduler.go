package crossfade

import (
	"context"
	"sync"
	"time"

	"github.com/llehouerou/segue/internal/engine"
	"github.com/llehouerou/segue/internal/playlist"
)

// Config supplies the crossfade policy knobs. Values are re-read every
// time the scheduler re-arms, so config changes take effect on the next
// track without a restart.
type Config interface {
	CrossfadeEnabled() bool
	CrossfadeDuration() time.Duration
	CrossfadeCurves() (in, out Curve)
}

// durationWaitTimeout bounds how long the scheduler waits for the engine
// to learn the current track's duration.
const durationWaitTimeout = 5 * time.Second

// EffectiveFadeDuration clamps the configured fade to what the outgoing
// track can carry: never longer than the track minus the guard window,
// never shorter than the minimum fade. ok is false when the track is too
// short to crossfade at all.
func EffectiveFadeDuration(configured, trackDuration time.Duration) (time.Duration, bool) {
	if trackDuration < minFadeDuration+guardWindow {
		return 0, false
	}
	maxFade := trackDuration - guardWindow
	if configured > maxFade {
		configured = maxFade
	}
	if configured < minFadeDuration {
		configured = minFadeDuration
	}
	return configured, true
}

// Scheduler watches the master engine and decides when to prepare the
// next track and fire a transition. One arming task exists at a time;
// any event that changes what "next" means or when it arrives (track
// change, resume, queue edit, mode change) replaces it.
type Scheduler struct {
	dual *DualEngine
	cfg  Config

	mu        sync.Mutex
	armCancel context.CancelFunc

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler; call Start to begin watching.
func NewScheduler(d *DualEngine, cfg Config) *Scheduler {
	return &Scheduler{dual: d, cfg: cfg}
}

// Start launches the watch loop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.watch(ctx)
}

// Close stops the watch loop and any armed task.
func (s *Scheduler) Close() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	<-s.done
	s.mu.Lock()
	if s.armCancel != nil {
		s.armCancel()
		s.armCancel = nil
	}
	s.mu.Unlock()
	return nil
}

// watch follows the current master across swaps: a transition retires
// the old master and closes its subscriptions, which drops us out of the
// inner loop to re-subscribe on the new one.
func (s *Scheduler) watch(ctx context.Context) {
	defer close(s.done)
	for {
		if ctx.Err() != nil {
			return
		}
		m := s.dual.Master()
		sub := m.Subscribe()
		s.rearm(ctx)

	inner:
		for {
			select {
			case <-ctx.Done():
				m.Unsubscribe(sub)
				return
			case <-sub.TrackChanged:
				s.rearm(ctx)
			case ev := <-sub.PlayingChanged:
				if ev.IsPlaying {
					s.rearm(ctx)
				}
			case <-sub.TimelineChanged:
				s.rearm(ctx)
			case <-sub.ModeChanged:
				s.rearm(ctx)
			case <-sub.Done:
				break inner
			}
			if s.dual.Master() != m {
				break inner
			}
		}
		m.Unsubscribe(sub)
	}
}

// rearm cancels the previous arming task and starts a fresh one.
func (s *Scheduler) rearm(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	if s.armCancel != nil {
		s.armCancel()
	}
	s.armCancel = cancel
	s.mu.Unlock()
	go s.arm(ctx)
}

// arm runs one scheduling pass: decide whether this track gets a
// crossfade, prepare the next item, then sleep-poll toward the
// transition point and fire.
func (s *Scheduler) arm(ctx context.Context) {
	d := s.dual

	// A fade in flight owns both engines; wait it out.
	for d.TransitionRunning() {
		if !sleepCtx(ctx, pollInterval) {
			return
		}
	}

	m := d.Master()
	configured := s.cfg.CrossfadeDuration()
	if !s.cfg.CrossfadeEnabled() || configured <= 0 {
		m.SetPauseAtEnd(false)
		return
	}

	next := s.nextItem(m)
	if next == nil {
		d.CancelNext()
		return
	}
	d.PrepareNext(*next, 0)

	// Duration may be reported asynchronously by the native engine.
	var trackDur time.Duration
	known := func() bool {
		trackDur = m.Duration()
		return trackDur > 0
	}
	if !waitUntil(ctx, durationWaitTimeout, known) {
		return
	}

	effective, ok := EffectiveFadeDuration(configured, trackDur)
	if !ok {
		// Too short to fade; fall back to a plain gapless advance.
		d.CancelNext()
		return
	}

	m.SetPauseAtEnd(true)
	point := trackDur - effective
	curveIn, curveOut := s.cfg.CrossfadeCurves()

	for {
		if ctx.Err() != nil {
			return
		}
		pos := m.Position()
		remaining := point - pos
		if remaining <= 0 {
			left := trackDur - pos
			if left <= minFadeDuration+guardWindow {
				// Too close to the end for an audible ramp.
				d.CancelNext()
				return
			}
			if left-guardWindow < effective {
				effective = left - guardWindow
			}
			d.PerformTransition(Settings{
				Duration: effective,
				CurveIn:  curveIn,
				CurveOut: curveOut,
			})
			return
		}
		var step time.Duration
		switch {
		case remaining > 2*time.Second:
			step = time.Second
		case remaining > 500*time.Millisecond:
			step = 250 * time.Millisecond
		default:
			step = pollInterval
		}
		if !sleepCtx(ctx, step) {
			return
		}
	}
}

// nextItem picks the track a transition would fade into.
func (s *Scheduler) nextItem(m *engine.Engine) *playlist.Track {
	if m.RepeatMode() == playlist.RepeatOne {
		return m.CurrentTrack()
	}
	return m.PeekNext()
}
