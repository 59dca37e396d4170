package engine

import (
	"sync"

	"github.com/llehouerou/segue/internal/player"
	"github.com/llehouerou/segue/internal/playlist"
)

// defaultPrecacheCount is the default lookahead window.
const defaultPrecacheCount = 2

// PrecacheEntry holds a fully constructed, paused, muted player prepared
// for an upcoming track.
type PrecacheEntry struct {
	Track  playlist.Track
	Player player.Interface
}

// PrecachePool is a bounded map of track ID to prepared player. Entries
// are keyed by track identifier and carry a priority (distance from the
// play cursor); when full, the farthest entry is evicted. Individual
// insert/remove operations are atomic per key so population can race with
// consumption and user-driven queue edits.
//
// The pool never holds an entry for the currently playing track; callers
// enforce that by never offering it.
type PrecachePool struct {
	mu      sync.Mutex
	max     int
	entries map[string]*precacheSlot
}

type precacheSlot struct {
	entry    PrecacheEntry
	priority int // 0 = immediately next
}

// NewPrecachePool creates a pool bounded at max entries (values < 1 fall
// back to the default).
func NewPrecachePool(max int) *PrecachePool {
	if max < 1 {
		max = defaultPrecacheCount
	}
	return &PrecachePool{
		max:     max,
		entries: make(map[string]*precacheSlot),
	}
}

// Max returns the pool capacity.
func (p *PrecachePool) Max() int {
	return p.max
}

// Len returns the number of cached entries.
func (p *PrecachePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Has returns true if a prepared player exists for the track ID.
func (p *PrecachePool) Has(trackID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[trackID]
	return ok
}

// Put stores a prepared player under the track ID. If the pool is full,
// the lowest-priority (farthest) entry is evicted and released; if the
// incoming entry itself is the farthest, it is released instead and Put
// returns false. An existing entry for the same ID is replaced.
func (p *PrecachePool) Put(entry PrecacheEntry, priority int) bool {
	p.mu.Lock()

	if old, ok := p.entries[entry.Track.ID]; ok {
		delete(p.entries, entry.Track.ID)
		p.mu.Unlock()
		old.entry.Player.Close()
		p.mu.Lock()
	}

	var evict *precacheSlot
	if len(p.entries) >= p.max {
		farKey := ""
		for key, slot := range p.entries {
			if evict == nil || slot.priority > evict.priority {
				evict = slot
				farKey = key
			}
		}
		if evict != nil && evict.priority <= priority {
			// Incoming entry is the farthest of them all.
			p.mu.Unlock()
			entry.Player.Close()
			return false
		}
		delete(p.entries, farKey)
	}

	p.entries[entry.Track.ID] = &precacheSlot{entry: entry, priority: priority}
	p.mu.Unlock()

	if evict != nil {
		evict.entry.Player.Close()
	}
	return true
}

// Take removes and returns the entry for the track ID without releasing
// its player; the caller takes ownership (promotion to the active slot).
func (p *PrecachePool) Take(trackID string) (PrecacheEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	slot, ok := p.entries[trackID]
	if !ok {
		return PrecacheEntry{}, false
	}
	delete(p.entries, trackID)
	return slot.entry, true
}

// Remove releases and discards the entry for the track ID, if present.
func (p *PrecachePool) Remove(trackID string) {
	p.mu.Lock()
	slot, ok := p.entries[trackID]
	if ok {
		delete(p.entries, trackID)
	}
	p.mu.Unlock()
	if ok {
		slot.entry.Player.Close()
	}
}

// SyncWith releases every entry whose track ID is not in upcoming and
// refreshes the priorities of those that remain. upcoming maps track ID
// to distance from the cursor.
func (p *PrecachePool) SyncWith(upcoming map[string]int) {
	p.mu.Lock()
	var stale []*precacheSlot
	for key, slot := range p.entries {
		prio, ok := upcoming[key]
		if !ok {
			stale = append(stale, slot)
			delete(p.entries, key)
			continue
		}
		slot.priority = prio
	}
	p.mu.Unlock()

	for _, slot := range stale {
		slot.entry.Player.Close()
	}
}

// Clear releases every entry.
func (p *PrecachePool) Clear() {
	p.SyncWith(nil)
}
