package engine

const eventBufferSize = 16

// Subscription provides event channels for a subscriber. Sends never
// block: events are dropped when a subscriber's buffer is full.
type Subscription struct {
	StateChanged    <-chan StateChange
	PlayingChanged  <-chan PlayingChange
	TrackChanged    <-chan TrackChange
	TimelineChanged <-chan TimelineChange
	ModeChanged     <-chan ModeChange
	LoadingChanged  <-chan LoadingChange
	VolumeChanged   <-chan VolumeChange
	Error           <-chan ErrorEvent
	Done            <-chan struct{}

	// Internal write channels
	stateCh    chan StateChange
	playingCh  chan PlayingChange
	trackCh    chan TrackChange
	timelineCh chan TimelineChange
	modeCh     chan ModeChange
	loadingCh  chan LoadingChange
	volumeCh   chan VolumeChange
	errorCh    chan ErrorEvent
	doneCh     chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		stateCh:    make(chan StateChange, eventBufferSize),
		playingCh:  make(chan PlayingChange, eventBufferSize),
		trackCh:    make(chan TrackChange, eventBufferSize),
		timelineCh: make(chan TimelineChange, eventBufferSize),
		modeCh:     make(chan ModeChange, eventBufferSize),
		loadingCh:  make(chan LoadingChange, eventBufferSize),
		volumeCh:   make(chan VolumeChange, eventBufferSize),
		errorCh:    make(chan ErrorEvent, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.PlayingChanged = s.playingCh
	s.TrackChanged = s.trackCh
	s.TimelineChanged = s.timelineCh
	s.ModeChanged = s.modeCh
	s.LoadingChanged = s.loadingCh
	s.VolumeChanged = s.volumeCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

func (s *Subscription) sendState(e StateChange) {
	select {
	case s.stateCh <- e:
	default:
		// Drop if buffer full
	}
}

func (s *Subscription) sendPlaying(e PlayingChange) {
	select {
	case s.playingCh <- e:
	default:
	}
}

func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
	}
}

func (s *Subscription) sendTimeline(e TimelineChange) {
	select {
	case s.timelineCh <- e:
	default:
	}
}

func (s *Subscription) sendMode(e ModeChange) {
	select {
	case s.modeCh <- e:
	default:
	}
}

func (s *Subscription) sendLoading(e LoadingChange) {
	select {
	case s.loadingCh <- e:
	default:
	}
}

func (s *Subscription) sendVolume(e VolumeChange) {
	select {
	case s.volumeCh <- e:
	default:
	}
}

func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
