package engine

import (
	"testing"
	"time"

	"github.com/llehouerou/segue/internal/player"
	"github.com/llehouerou/segue/internal/playlist"
)

func poolEntry(id string) PrecacheEntry {
	return PrecacheEntry{
		Track:  playlist.Track{ID: id, Path: "/" + id + ".mp3"},
		Player: player.NewMock(),
	}
}

func TestPrecachePool_PutTake(t *testing.T) {
	p := NewPrecachePool(2)

	if !p.Put(poolEntry("a"), 0) {
		t.Fatal("Put returned false on empty pool")
	}
	if !p.Has("a") {
		t.Error("Has(a) = false after Put")
	}

	entry, ok := p.Take("a")
	if !ok || entry.Track.ID != "a" {
		t.Fatalf("Take(a) = (%v, %v)", entry.Track.ID, ok)
	}
	if p.Has("a") {
		t.Error("entry still present after Take")
	}
}

func TestPrecachePool_NeverExceedsMax(t *testing.T) {
	p := NewPrecachePool(2)

	p.Put(poolEntry("a"), 0)
	p.Put(poolEntry("b"), 1)
	p.Put(poolEntry("c"), 2)
	p.Put(poolEntry("d"), 0)

	if p.Len() > 2 {
		t.Errorf("Len() = %d, want <= 2", p.Len())
	}
}

func TestPrecachePool_EvictsFarthest(t *testing.T) {
	p := NewPrecachePool(2)
	far := poolEntry("far")

	p.Put(poolEntry("next"), 1)
	p.Put(far, 2)
	p.Put(poolEntry("closer"), 0)

	// "far" had the highest priority value in a full pool.
	if p.Has("far") {
		t.Error("farthest entry should have been evicted")
	}
	if !p.Has("next") || !p.Has("closer") {
		t.Error("near entries should have been kept")
	}
	if far.Player.(*player.Mock).State() != player.Stopped {
		t.Error("evicted player should be released")
	}
}

func TestPrecachePool_RejectsFarthestIncoming(t *testing.T) {
	p := NewPrecachePool(1)

	p.Put(poolEntry("next"), 0)
	if p.Put(poolEntry("far"), 5) {
		t.Error("Put should reject an incoming entry farther than all cached")
	}
	if !p.Has("next") {
		t.Error("existing closer entry should survive")
	}
}

func TestPrecachePool_SyncWith_ReleasesStale(t *testing.T) {
	p := NewPrecachePool(3)
	stale := poolEntry("stale")
	p.Put(poolEntry("keep"), 0)
	p.Put(stale, 1)

	p.SyncWith(map[string]int{"keep": 0})

	if p.Has("stale") {
		t.Error("stale entry should be gone")
	}
	if !p.Has("keep") {
		t.Error("kept entry should remain")
	}
	if stale.Player.(*player.Mock).State() != player.Stopped {
		t.Error("stale player should be released")
	}
}

func TestPrecachePool_Clear(t *testing.T) {
	p := NewPrecachePool(2)
	p.Put(poolEntry("a"), 0)
	p.Put(poolEntry("b"), 1)

	p.Clear()

	if p.Len() != 0 {
		t.Errorf("Len() = %d, want 0", p.Len())
	}
}

func TestEngine_Precache_PopulatesLookahead(t *testing.T) {
	e, _, _, tracks := newTestEngine(t, 4)

	e.ReplaceQueue(tracks...)
	waitFor(t, "Ready state", func() bool { return e.State() == Ready })

	waitFor(t, "precache fills", func() bool {
		return e.Precache().Has("b") && e.Precache().Has("c")
	})
	if e.Precache().Len() > e.Precache().Max() {
		t.Errorf("pool size %d exceeds max %d", e.Precache().Len(), e.Precache().Max())
	}
	if e.Precache().Has("a") {
		t.Error("pool must never contain the current track")
	}
}

func TestEngine_Precache_PromotionSkipsResolve(t *testing.T) {
	e, _, res, tracks := newTestEngine(t, 3)
	e.ReplaceQueue(tracks...)
	waitFor(t, "Ready state", func() bool { return e.State() == Ready })
	waitFor(t, "b cached", func() bool { return e.Precache().Has("b") })

	before := len(res.Calls())
	e.Next()
	waitFor(t, "advance to b", func() bool {
		cur := e.CurrentTrack()
		return cur != nil && cur.ID == "b"
	})
	waitFor(t, "Ready after promotion", func() bool { return e.State() == Ready })

	// Promotion must not resolve "b" again (the pass may still resolve
	// new lookahead candidates).
	for _, id := range res.Calls()[before:] {
		if id == "b" {
			t.Error("promoted track was resolved again")
		}
	}
	if e.Precache().Has("b") {
		t.Error("promoted entry should leave the pool")
	}
}

func TestEngine_Precache_EvictedOnRemove(t *testing.T) {
	e, _, _, tracks := newTestEngine(t, 3)
	e.ReplaceQueue(tracks...)
	waitFor(t, "Ready state", func() bool { return e.State() == Ready })
	waitFor(t, "b cached", func() bool { return e.Precache().Has("b") })

	e.RemoveTrack(1)

	if e.Precache().Has("b") {
		t.Error("precache entry for removed track should be released")
	}
}

func TestEngine_Precache_RepeatOne_CachesNothing(t *testing.T) {
	e, _, _, tracks := newTestEngine(t, 3)
	e.ReplaceQueue(tracks...)
	waitFor(t, "Ready state", func() bool { return e.State() == Ready })
	waitFor(t, "b cached", func() bool { return e.Precache().Has("b") })

	e.SetRepeatMode(playlist.RepeatOne)

	waitFor(t, "pool drains", func() bool { return e.Precache().Len() == 0 })
	time.Sleep(50 * time.Millisecond)
	if e.Precache().Len() != 0 {
		t.Errorf("Len() = %d, want 0 under repeat-one", e.Precache().Len())
	}
}
