// Package focus arbitrates exclusive audio focus between playback
// sessions in the same process. Exactly one holder owns focus at a time;
// requesting focus revokes the previous holder with a permanent loss.
// External interruptions (another application, a call) are modelled as
// transient suspensions that pause the holder and hand focus back when
// the interruption ends.
package focus

import "sync"

// Loss classifies why a holder lost focus.
type Loss int

const (
	// LossTransient: a short interruption; the holder may resume when
	// focus is regained.
	LossTransient Loss = iota
	// LossPermanent: focus moved elsewhere for good; the holder must not
	// auto-resume.
	LossPermanent
)

func (l Loss) String() string {
	switch l {
	case LossTransient:
		return "transient"
	case LossPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Handle represents a granted focus request.
type Handle struct {
	arbiter *Arbiter
	id      int
}

// Release gives focus up voluntarily. No loss callback fires.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.arbiter.release(h.id)
}

// Arbiter grants exclusive focus. Callbacks run without arbiter locks
// held, so holders may call back into the arbiter from them.
type Arbiter struct {
	mu        sync.Mutex
	nextID    int
	holderID  int
	onLoss    func(Loss)
	onGain    func()
	suspended bool
}

// New creates an arbiter with no holder.
func New() *Arbiter {
	return &Arbiter{holderID: -1}
}

// Request takes exclusive focus. A current holder, if any, is notified of
// permanent loss first. onGain fires when focus returns after a transient
// suspension; either callback may be nil.
func (a *Arbiter) Request(onLoss func(Loss), onGain func()) *Handle {
	a.mu.Lock()
	evicted := a.onLoss
	a.nextID++
	id := a.nextID
	a.holderID = id
	a.onLoss = onLoss
	a.onGain = onGain
	suspended := a.suspended
	a.mu.Unlock()

	if evicted != nil {
		evicted(LossPermanent)
	}
	if suspended && onLoss != nil {
		// Focus is granted but currently interrupted; the new holder
		// starts paused like everyone else.
		onLoss(LossTransient)
	}
	return &Handle{arbiter: a, id: id}
}

// Holder reports whether any session currently owns focus.
func (a *Arbiter) Holder() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holderID >= 0
}

// Suspend signals a transient external interruption to the holder.
func (a *Arbiter) Suspend() {
	a.mu.Lock()
	if a.suspended {
		a.mu.Unlock()
		return
	}
	a.suspended = true
	onLoss := a.onLoss
	a.mu.Unlock()
	if onLoss != nil {
		onLoss(LossTransient)
	}
}

// Resume ends a transient interruption and notifies the holder.
func (a *Arbiter) Resume() {
	a.mu.Lock()
	if !a.suspended {
		a.mu.Unlock()
		return
	}
	a.suspended = false
	onGain := a.onGain
	a.mu.Unlock()
	if onGain != nil {
		onGain()
	}
}

// Revoke takes focus away from the holder for good, as if another
// application claimed the output device.
func (a *Arbiter) Revoke() {
	a.mu.Lock()
	onLoss := a.onLoss
	a.holderID = -1
	a.onLoss = nil
	a.onGain = nil
	a.mu.Unlock()
	if onLoss != nil {
		onLoss(LossPermanent)
	}
}

func (a *Arbiter) release(id int) {
	a.mu.Lock()
	if a.holderID == id {
		a.holderID = -1
		a.onLoss = nil
		a.onGain = nil
	}
	a.mu.Unlock()
}
