package crossfade

import (
	"testing"
	"time"

	"github.com/llehouerou/segue/internal/engine"
	"github.com/llehouerou/segue/internal/player"
	"github.com/llehouerou/segue/internal/playlist"
)

type stubConfig struct {
	enabled  bool
	duration time.Duration
	in, out  Curve
}

func (c stubConfig) CrossfadeEnabled() bool           { return c.enabled }
func (c stubConfig) CrossfadeDuration() time.Duration { return c.duration }
func (c stubConfig) CrossfadeCurves() (Curve, Curve)  { return c.in, c.out }

func TestEffectiveFadeDuration(t *testing.T) {
	cases := []struct {
		name       string
		configured time.Duration
		track      time.Duration
		want       time.Duration
		ok         bool
	}{
		{"longer than track", 12 * time.Second, 10 * time.Second, 9850 * time.Millisecond, true},
		{"fits", 8 * time.Second, 10 * time.Second, 8 * time.Second, true},
		{"below floor", 100 * time.Millisecond, 10 * time.Second, 500 * time.Millisecond, true},
		{"track too short", 2 * time.Second, 400 * time.Millisecond, 0, false},
		{"track just under threshold", time.Second, 649 * time.Millisecond, 0, false},
	}
	for _, tc := range cases {
		got, ok := EffectiveFadeDuration(tc.configured, tc.track)
		if got != tc.want || ok != tc.ok {
			t.Errorf("%s: EffectiveFadeDuration(%v, %v) = (%v, %v), want (%v, %v)",
				tc.name, tc.configured, tc.track, got, ok, tc.want, tc.ok)
		}
	}
}

func activeMock(m *engine.Engine) *player.Mock {
	return m.Player().(*player.Mock)
}

func startScheduler(t *testing.T, d *DualEngine, cfg Config) *Scheduler {
	t.Helper()
	s := NewScheduler(d, cfg)
	s.Start()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestScheduler_Disabled_DisarmsPauseAtEnd(t *testing.T) {
	d, _, _, tracks := newTestDual(t, 2)
	m := d.Master()
	m.ReplaceQueue(tracks...)
	waitFor(t, "master ready", func() bool { return m.State() == engine.Ready })
	m.SetPauseAtEnd(true)

	startScheduler(t, d, stubConfig{enabled: false, duration: 5 * time.Second})

	waitFor(t, "pause-at-end disarmed", func() bool { return !m.PauseAtEnd() })
	if d.NextPrepared() != "" {
		t.Errorf("NextPrepared() = %q, want nothing prepared while disabled", d.NextPrepared())
	}
}

func TestScheduler_ShortTrack_SkipsCrossfade(t *testing.T) {
	d, _, _, tracks := newTestDual(t, 2)
	m := d.Master()
	m.ReplaceQueue(tracks...)
	waitFor(t, "master ready", func() bool { return m.State() == engine.Ready })
	activeMock(m).SetDuration(400 * time.Millisecond)
	m.Play()

	startScheduler(t, d, stubConfig{enabled: true, duration: 2 * time.Second})

	// The pass prepares the next track, sees the 400 ms duration and
	// backs out entirely.
	time.Sleep(300 * time.Millisecond)
	if m.PauseAtEnd() {
		t.Error("pause-at-end must stay disarmed for a track too short to fade")
	}
	if d.NextPrepared() != "" {
		t.Errorf("NextPrepared() = %q, want empty after skip", d.NextPrepared())
	}
	if d.TransitionRunning() {
		t.Error("no transition should run for a short track")
	}
}

func TestScheduler_ArmsPauseAtEndAndPrepares(t *testing.T) {
	d, _, _, tracks := newTestDual(t, 2)
	m := d.Master()
	m.ReplaceQueue(tracks...)
	waitFor(t, "master ready", func() bool { return m.State() == engine.Ready })
	activeMock(m).SetDuration(60 * time.Second)
	m.Play()

	startScheduler(t, d, stubConfig{enabled: true, duration: 4 * time.Second})

	waitFor(t, "next track prepared", func() bool { return d.NextPrepared() == "b" })
	waitFor(t, "pause-at-end armed", m.PauseAtEnd)
	if d.TransitionRunning() {
		t.Error("transition fired way before the transition point")
	}
}

func TestScheduler_RepeatOne_PreparesCurrentTrack(t *testing.T) {
	d, _, _, tracks := newTestDual(t, 2)
	m := d.Master()
	m.ReplaceQueue(tracks...)
	waitFor(t, "master ready", func() bool { return m.State() == engine.Ready })
	m.SetRepeatMode(playlist.RepeatOne)
	activeMock(m).SetDuration(60 * time.Second)
	m.Play()

	startScheduler(t, d, stubConfig{enabled: true, duration: 4 * time.Second})

	waitFor(t, "current track prepared again", func() bool { return d.NextPrepared() == "a" })
}

func TestScheduler_PastTransitionPoint_FiresImmediately(t *testing.T) {
	d, _, _, tracks := newTestDual(t, 2)
	m := d.Master()
	m.ReplaceQueue(tracks...)
	waitFor(t, "master ready", func() bool { return m.State() == engine.Ready })
	activeMock(m).SetDuration(2 * time.Second)
	activeMock(m).SetPosition(1200 * time.Millisecond)
	m.Play()

	startScheduler(t, d, stubConfig{enabled: true, duration: time.Second})

	waitFor(t, "immediate transition swaps master", func() bool {
		cur := d.Master().CurrentTrack()
		return cur != nil && cur.ID == "b"
	})
	waitFor(t, "transition finishes", func() bool { return !d.TransitionRunning() })
}

func TestScheduler_TooCloseToEnd_SkipsTransition(t *testing.T) {
	d, _, _, tracks := newTestDual(t, 2)
	m := d.Master()
	m.ReplaceQueue(tracks...)
	waitFor(t, "master ready", func() bool { return m.State() == engine.Ready })
	activeMock(m).SetDuration(2 * time.Second)
	activeMock(m).SetPosition(1900 * time.Millisecond)
	m.Play()

	startScheduler(t, d, stubConfig{enabled: true, duration: time.Second})

	time.Sleep(300 * time.Millisecond)
	if d.TransitionRunning() {
		t.Error("transition must not fire this close to the end")
	}
	if got := d.Master(); got != m {
		t.Error("master must not swap when the transition is skipped")
	}
}

func TestScheduler_EndOfQueue_NothingPrepared(t *testing.T) {
	d, _, _, tracks := newTestDual(t, 1)
	m := d.Master()
	m.ReplaceQueue(tracks...)
	waitFor(t, "master ready", func() bool { return m.State() == engine.Ready })
	activeMock(m).SetDuration(60 * time.Second)
	m.Play()

	startScheduler(t, d, stubConfig{enabled: true, duration: 4 * time.Second})

	time.Sleep(200 * time.Millisecond)
	if d.NextPrepared() != "" {
		t.Errorf("NextPrepared() = %q, want empty at end of queue", d.NextPrepared())
	}
}
