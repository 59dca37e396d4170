package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/llehouerou/segue/internal/config"
	"github.com/llehouerou/segue/internal/crossfade"
	"github.com/llehouerou/segue/internal/engine"
	"github.com/llehouerou/segue/internal/errmsg"
	"github.com/llehouerou/segue/internal/focus"
	"github.com/llehouerou/segue/internal/player"
	"github.com/llehouerou/segue/internal/playlist"
	"github.com/llehouerou/segue/internal/resolver"
	"github.com/llehouerou/segue/internal/state"
	"github.com/llehouerou/segue/internal/stderr"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// Divert fd 2 before any audio init so ALSA/decoder noise does not
	// interleave with the event log.
	if noise, err := stderr.Capture(); err == nil {
		defer stderr.Restore()
		go func() {
			for line := range noise {
				fmt.Printf("[audio] %s\n", line)
			}
		}()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpConfigLoad, err))
	}

	mgr, err := state.Open()
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpStateOpen, err))
	}
	defer mgr.Close()

	root := cfg.MusicFolder
	if root == "" {
		if root, err = os.Getwd(); err != nil {
			return err
		}
	}
	res := resolver.NewFileResolver(root)

	newEngine := func() *engine.Engine {
		return engine.New(player.New(), res, engine.Options{
			MaxPrecache: cfg.GetMaxPrecacheCount(),
			Endless:     cfg.EndlessQueue,
		})
	}
	dual := crossfade.New(newEngine, focus.New())
	defer dual.Close()

	sched := crossfade.NewScheduler(dual, crossfadeSettings{cfg: cfg})
	sched.Start()
	defer sched.Close()

	m := dual.Master()
	if vol, err := mgr.GetVolume(); err == nil {
		m.SetVolume(vol.Volume)
	}

	if len(args) > 0 {
		tracks := make([]playlist.Track, 0, len(args))
		for _, path := range args {
			tracks = append(tracks, playlist.Track{ID: path, Path: path, Title: path})
		}
		m.ReplaceQueue(tracks...)
		m.Play()
	} else if err := restoreQueue(mgr, m); err != nil {
		fmt.Println(errmsg.Format(errmsg.OpQueueRestore, err))
	}

	if m.QueueLen() == 0 {
		return fmt.Errorf("nothing to play: pass audio files or restore a saved queue")
	}

	done := make(chan struct{})
	go watchEvents(dual, mgr, done)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	close(done)

	m = dual.Master()
	mgr.SaveQueue(snapshotQueue(m))
	if err := mgr.SaveVolume(m.Volume(), false); err != nil {
		fmt.Println(errmsg.Format(errmsg.OpVolumeSave, err))
	}
	return nil
}

// restoreQueue loads the previous session's queue, paused at the saved
// track and position.
func restoreQueue(mgr *state.Manager, m *engine.Engine) error {
	saved, err := mgr.GetQueue()
	if err != nil {
		return err
	}
	if saved == nil || len(saved.Tracks) == 0 {
		return nil
	}

	m.ReplaceQueue(saved.Tracks...)
	m.SetRepeatMode(playlist.RepeatMode(saved.RepeatMode))
	m.SetShuffle(saved.Shuffle)
	if saved.CurrentIndex > 0 {
		m.JumpTo(saved.CurrentIndex)
	}
	if saved.Position > 0 {
		m.SeekTo(saved.Position)
	}
	fmt.Printf("restored queue: %d tracks, track %d\n", len(saved.Tracks), saved.CurrentIndex+1)
	return nil
}

// watchEvents prints playback events and persists queue changes. It
// follows the master engine across crossfade swaps: a swap retires the
// old master and closes its subscriptions, dropping us out to
// re-subscribe on the new one.
func watchEvents(dual *crossfade.DualEngine, mgr *state.Manager, done <-chan struct{}) {
	for {
		m := dual.Master()
		sub := m.Subscribe()

	inner:
		for {
			select {
			case <-done:
				m.Unsubscribe(sub)
				return
			case ev := <-sub.TrackChanged:
				if ev.Current != nil {
					fmt.Printf("[%s] %s — %s\n", ev.Reason, ev.Current.Artist, ev.Current.Title)
				}
				mgr.SaveQueue(snapshotQueue(m))
			case ev := <-sub.StateChanged:
				fmt.Printf("state: %s -> %s\n", ev.Previous, ev.Current)
			case <-sub.TimelineChanged:
				mgr.SaveQueue(snapshotQueue(m))
			case <-sub.ModeChanged:
				mgr.SaveQueue(snapshotQueue(m))
			case ev := <-sub.Error:
				fmt.Println(errmsg.FormatWith(opForError(ev.Err), ev.Err.TrackID, ev.Err.Err))
			case <-sub.Done:
				break inner
			}
			if dual.Master() != m {
				break inner
			}
		}
		m.Unsubscribe(sub)

		select {
		case <-done:
			return
		default:
		}
	}
}

func opForError(err *engine.Error) errmsg.Op {
	switch err.Code {
	case engine.CodeResolveFailed:
		return errmsg.OpTrackResolve
	case engine.CodePrepareFailed:
		return errmsg.OpTrackPrepare
	default:
		return errmsg.OpPlaybackStart
	}
}

func snapshotQueue(m *engine.Engine) state.QueueState {
	var pos time.Duration
	if m.State().IsActive() {
		pos = m.Position()
	}
	return state.QueueState{
		CurrentIndex: m.CurrentIndex(),
		RepeatMode:   int(m.RepeatMode()),
		Shuffle:      m.Shuffle(),
		Position:     pos,
		Tracks:       m.Tracks(),
	}
}

// crossfadeSettings adapts the TOML config to the scheduler's contract.
type crossfadeSettings struct {
	cfg *config.Config
}

func (s crossfadeSettings) CrossfadeEnabled() bool {
	return s.cfg.GetCrossfadeConfig().Enabled
}

func (s crossfadeSettings) CrossfadeDuration() time.Duration {
	return s.cfg.GetCrossfadeConfig().Duration()
}

func (s crossfadeSettings) CrossfadeCurves() (crossfade.Curve, crossfade.Curve) {
	cf := s.cfg.GetCrossfadeConfig()
	return crossfade.ParseCurve(cf.CurveIn), crossfade.ParseCurve(cf.CurveOut)
}
