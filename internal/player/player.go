package player

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extWAV  = ".wav"
	extOGG  = ".ogg"
)

// speakerRate is the mixer sample rate, fixed on first init. Tracks with a
// different native rate are resampled on the way out.
var (
	speakerOnce sync.Once
	speakerRate beep.SampleRate
	speakerErr  error
)

func initSpeaker(rate beep.SampleRate) error {
	speakerOnce.Do(func() {
		speakerRate = rate
		speakerErr = speaker.Init(rate, rate.N(time.Second/10))
	})
	return speakerErr
}

// Player is a beep-backed implementation of Interface. Several players can
// coexist on the shared speaker mixer, which is what allows two tracks to
// overlap during a crossfade.
type Player struct {
	mu sync.Mutex

	state    State
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	stopper  *stopper
	streamer beep.StreamSeekCloser
	format   beep.Format
	file     *os.File
	duration time.Duration

	volumeLevel float64
	muted       bool

	finishedCh chan struct{}
}

// New creates a stopped player at full volume.
func New() *Player {
	return &Player{
		state:       Stopped,
		volumeLevel: 1,
		finishedCh:  make(chan struct{}, 1),
	}
}

// Load decodes the file and parks it on the mixer, paused at position 0.
// The previously loaded track, if any, is released first.
func (p *Player) Load(path string) error {
	p.Stop()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case extMP3, extFLAC, extWAV, extOGG:
	default:
		return fmt.Errorf("unsupported format: %s", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch ext {
	case extMP3:
		streamer, format, err = mp3.Decode(f)
	case extFLAC:
		streamer, format, err = flac.Decode(f)
	case extWAV:
		streamer, format, err = wav.Decode(f)
	case extOGG:
		streamer, format, err = vorbis.Decode(f)
	}
	if err != nil {
		f.Close()
		return err
	}

	if err := initSpeaker(format.SampleRate); err != nil {
		streamer.Close()
		f.Close()
		return err
	}

	// Drain any stale finish signal from the previous track.
	select {
	case <-p.finishedCh:
	default:
	}

	p.mu.Lock()
	p.file = f
	p.streamer = streamer
	p.format = format
	p.duration = format.SampleRate.D(streamer.Len())

	var out beep.Streamer = streamer
	if format.SampleRate != speakerRate {
		out = beep.Resample(4, format.SampleRate, speakerRate, streamer)
	}
	p.ctrl = &beep.Ctrl{Streamer: out, Paused: true}
	p.volume = &effects.Volume{
		Streamer: p.ctrl,
		Base:     2,
		Volume:   levelToVolume(p.volumeLevel),
		Silent:   p.muted || p.volumeLevel <= 0,
	}
	p.stopper = &stopper{streamer: p.volume}
	stop := p.stopper
	p.state = Ready
	p.mu.Unlock()

	speaker.Play(beep.Seq(stop, beep.Callback(func() {
		p.mu.Lock()
		stopped := stop.isStopped()
		if !stopped && p.stopper == stop {
			p.state = Stopped
		}
		p.mu.Unlock()
		if !stopped {
			select {
			case p.finishedCh <- struct{}{}:
			default:
			}
		}
	})))

	return nil
}

// Play starts or resumes playback.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil || p.state == Stopped || p.state == Playing {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	p.state = Playing
}

// Pause pauses playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil || p.state != Playing {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.state = Paused
}

// Stop releases the decoded track. Only this player's slot on the mixer is
// detached; other players keep streaming.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.state == Stopped {
		return
	}

	if p.stopper != nil {
		p.stopper.stop()
		p.stopper = nil
	}
	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}
	p.ctrl = nil
	p.volume = nil
	p.duration = 0
	p.state = Stopped
}

// State returns the current player state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Position returns the current playback position.
// Read without the speaker lock: may be slightly stale but cannot deadlock
// against the audio callback.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Position())
}

// Duration returns the duration of the loaded track (0 if none).
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// SeekTo moves playback to an absolute position, clamped to the track.
// The track is silenced for a moment around the seek to avoid artifacts.
func (p *Player) SeekTo(pos time.Duration) {
	p.mu.Lock()
	if p.streamer == nil || p.state == Stopped {
		p.mu.Unlock()
		return
	}
	streamer := p.streamer
	volume := p.volume
	n := p.format.SampleRate.N(pos)
	n = max(n, 0)
	if maxN := streamer.Len() - 1; n > maxN {
		n = maxN
	}
	p.mu.Unlock()

	speaker.Lock()
	wasSilent := volume.Silent
	volume.Silent = true
	_ = streamer.Seek(n)
	speaker.Unlock()

	// Let the output buffer flush the pre-seek audio before unmuting.
	time.Sleep(50 * time.Millisecond)

	speaker.Lock()
	volume.Silent = wasSilent
	speaker.Unlock()
}

// FinishedChan signals end-of-stream for the loaded track.
func (p *Player) FinishedChan() <-chan struct{} {
	return p.finishedCh
}

// Close releases the player.
func (p *Player) Close() {
	p.Stop()
}

// stopper detaches one player's chain from the shared mixer. Once stopped
// it reports end-of-stream, so the mixer drops it without affecting the
// other players (speaker.Clear would drop them all).
type stopper struct {
	mu       sync.Mutex
	streamer beep.Streamer
	stopped  bool
}

func (s *stopper) Stream(samples [][2]float64) (n int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0, false
	}
	return s.streamer.Stream(samples)
}

func (s *stopper) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.streamer == nil {
		return nil
	}
	return s.streamer.Err()
}

func (s *stopper) stop() {
	s.mu.Lock()
	s.stopped = true
	s.streamer = nil
	s.mu.Unlock()
}

func (s *stopper) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
