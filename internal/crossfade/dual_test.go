package crossfade

import (
	"errors"
	"testing"
	"time"

	"github.com/llehouerou/segue/internal/engine"
	"github.com/llehouerou/segue/internal/focus"
	"github.com/llehouerou/segue/internal/player"
	"github.com/llehouerou/segue/internal/playlist"
	"github.com/llehouerou/segue/internal/resolver"
)

// waitFor polls cond until it holds or the deadline expires.
func waitFor(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// newTestDual builds a dual engine on mocks with n resolvable tracks.
func newTestDual(t *testing.T, n int) (*DualEngine, *focus.Arbiter, *resolver.Mock, []playlist.Track) {
	t.Helper()
	res := resolver.NewMock()
	tracks := make([]playlist.Track, n)
	for i := range n {
		id := string(rune('a' + i))
		tracks[i] = playlist.Track{ID: id, Title: id}
		res.Add(resolver.Source{TrackID: id, Path: "/" + id + ".mp3", Title: id})
	}
	newEngine := func() *engine.Engine {
		return engine.New(player.NewMock(), res, engine.Options{
			NewPlayer: func() player.Interface { return player.NewMock() },
		})
	}
	arb := focus.New()
	d := New(newEngine, arb)
	t.Cleanup(func() { d.Close() })
	return d, arb, res, tracks
}

func TestEnvelope_EndpointsAndMonotonicity(t *testing.T) {
	curves := []Curve{CurveLinear, CurveExponential, CurveLogarithmic, CurveSCurve}
	for _, c := range curves {
		if got := Envelope(0, c); got != 0 {
			t.Errorf("%v: Envelope(0) = %v, want 0", c, got)
		}
		if got := Envelope(1, c); got != 1 {
			t.Errorf("%v: Envelope(1) = %v, want 1", c, got)
		}
		prev := 0.0
		for p := 0.0; p <= 1.0; p += 0.05 {
			v := Envelope(p, c)
			if v < prev {
				t.Fatalf("%v: Envelope not monotonic at p=%v (%v < %v)", c, p, v, prev)
			}
			prev = v
		}
	}
	if got := Envelope(-0.5, CurveLinear); got != 0 {
		t.Errorf("Envelope(-0.5) = %v, want clamped 0", got)
	}
	if got := Envelope(1.5, CurveLinear); got != 1 {
		t.Errorf("Envelope(1.5) = %v, want clamped 1", got)
	}
}

func TestParseCurve(t *testing.T) {
	cases := map[string]Curve{
		"linear":      CurveLinear,
		"exponential": CurveExponential,
		"logarithmic": CurveLogarithmic,
		"s-curve":     CurveSCurve,
		"garbage":     CurveLinear,
	}
	for in, want := range cases {
		if got := ParseCurve(in); got != want {
			t.Errorf("ParseCurve(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDualEngine_PerformTransition_SwapsMaster(t *testing.T) {
	d, _, _, tracks := newTestDual(t, 2)
	m := d.Master()
	m.ReplaceQueue(tracks...)
	waitFor(t, "master ready", func() bool { return m.State() == engine.Ready })
	m.Play()

	var swapped []*engine.Engine
	d.OnSwap(func(nm *engine.Engine) { swapped = append(swapped, nm) })

	d.PrepareNext(tracks[1], 0)
	if !d.PerformTransition(Settings{Duration: 600 * time.Millisecond}) {
		t.Fatal("PerformTransition returned false with a prepared next track")
	}

	waitFor(t, "ownership swap", func() bool {
		cur := d.Master().CurrentTrack()
		return cur != nil && cur.ID == "b"
	})
	waitFor(t, "transition finishes", func() bool { return !d.TransitionRunning() })

	nm := d.Master()
	if nm == m {
		t.Fatal("master pointer did not change")
	}
	if nm.Volume() != 1 {
		t.Errorf("new master volume = %v, want 1", nm.Volume())
	}
	if nm.QueueLen() != 2 || nm.CurrentIndex() != 1 {
		t.Errorf("adopted timeline: len=%d index=%d, want len=2 index=1",
			nm.QueueLen(), nm.CurrentIndex())
	}
	if nm.PauseAtEnd() {
		t.Error("pause-at-end should be disarmed on the new master")
	}
	if len(swapped) != 1 || swapped[0] != nm {
		t.Errorf("swap notifications = %d, want exactly one with the new master", len(swapped))
	}
	if d.NextPrepared() != "" {
		t.Errorf("NextPrepared() = %q after transition, want empty", d.NextPrepared())
	}
}

func TestDualEngine_PerformTransition_NothingPrepared(t *testing.T) {
	d, _, _, tracks := newTestDual(t, 1)
	m := d.Master()
	m.ReplaceQueue(tracks...)

	if d.PerformTransition(Settings{Duration: time.Second}) {
		t.Error("PerformTransition should refuse without a prepared track")
	}
	if d.TransitionRunning() {
		t.Error("TransitionRunning() = true after refused transition")
	}
}

func TestDualEngine_AuxNeverReady_FallsBackToHardCut(t *testing.T) {
	d, _, res, tracks := newTestDual(t, 2)
	m := d.Master()
	m.ReplaceQueue(tracks[0])
	waitFor(t, "master ready", func() bool { return m.State() == engine.Ready })
	m.Play()
	m.SetVolume(0.7)

	res.SetError(errors.New("stream gone"))
	d.PrepareNext(tracks[1], 0)
	d.PerformTransition(Settings{Duration: time.Second})

	waitFor(t, "transition gives up", func() bool { return !d.TransitionRunning() })
	if d.Master() != m {
		t.Error("failed transition must not swap masters")
	}
	waitFor(t, "master volume restored", func() bool { return m.Volume() == 1 })
	if m.PauseAtEnd() {
		t.Error("pause-at-end should be disarmed after the fallback")
	}
}

func TestDualEngine_CancelNext_DuringTransition(t *testing.T) {
	d, _, res, tracks := newTestDual(t, 2)
	m := d.Master()
	m.ReplaceQueue(tracks[0])
	waitFor(t, "master ready", func() bool { return m.State() == engine.Ready })
	m.Play()

	// Hold the next track in resolution so the cancel lands before the
	// ownership swap.
	res.SetDelay(500 * time.Millisecond)
	d.PrepareNext(tracks[1], 0)
	d.PerformTransition(Settings{Duration: 5 * time.Second})
	waitFor(t, "transition starts", func() bool { return d.TransitionRunning() })

	d.CancelNext()

	waitFor(t, "transition aborts", func() bool { return !d.TransitionRunning() })
	if d.Master() != m {
		t.Error("cancelled transition must not swap masters")
	}
	cur := m.CurrentTrack()
	if cur == nil || cur.ID != "a" {
		t.Errorf("current track = %v, want still a", cur)
	}
	waitFor(t, "master volume restored", func() bool { return m.Volume() == 1 })
	if d.NextPrepared() != "" {
		t.Errorf("NextPrepared() = %q after cancel, want empty", d.NextPrepared())
	}
}

func TestDualEngine_CancelNext_Idle(t *testing.T) {
	d, _, _, tracks := newTestDual(t, 2)
	m := d.Master()
	m.ReplaceQueue(tracks[0])
	waitFor(t, "master ready", func() bool { return m.State() == engine.Ready })

	d.PrepareNext(tracks[1], 0)
	waitFor(t, "next prepared", func() bool { return d.NextPrepared() == "b" })

	d.CancelNext()

	if d.NextPrepared() != "" {
		t.Errorf("NextPrepared() = %q, want empty", d.NextPrepared())
	}
	if m.Volume() != 1 {
		t.Errorf("master volume = %v, want 1", m.Volume())
	}
}

func TestDualEngine_TransientFocusLoss_PausesAndResumes(t *testing.T) {
	d, arb, _, tracks := newTestDual(t, 1)
	m := d.Master()
	m.ReplaceQueue(tracks...)
	waitFor(t, "master ready", func() bool { return m.State() == engine.Ready })
	m.Play()
	waitFor(t, "focus acquired", arb.Holder)

	arb.Suspend()
	waitFor(t, "paused on transient loss", func() bool { return !m.IsPlaying() })

	arb.Resume()
	waitFor(t, "resumed on focus regain", m.IsPlaying)
}

func TestDualEngine_PermanentFocusLoss_StaysPaused(t *testing.T) {
	d, arb, _, tracks := newTestDual(t, 1)
	m := d.Master()
	m.ReplaceQueue(tracks...)
	waitFor(t, "master ready", func() bool { return m.State() == engine.Ready })
	m.Play()
	waitFor(t, "focus acquired", arb.Holder)

	arb.Revoke()
	waitFor(t, "paused on permanent loss", func() bool { return !m.IsPlaying() })

	arb.Resume()
	time.Sleep(50 * time.Millisecond)
	if m.IsPlaying() {
		t.Error("permanent loss must not auto-resume")
	}
}
