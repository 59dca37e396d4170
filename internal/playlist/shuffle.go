package playlist

import "math/rand/v2"

// ShuffleOrder is a bidirectional mapping between original playlist
// positions and shuffled playback positions. `order` maps shuffled
// position -> original index, `indices` is its exact inverse.
//
// Immediately after Create, the current item sits at shuffled position 0,
// so "next" always picks a not-yet-played track rather than repeating the
// one that is playing.
type ShuffleOrder struct {
	order   []int // shuffled position -> original index
	indices []int // original index -> shuffled position
}

// NewShuffleOrder creates an empty (cleared) shuffle order.
func NewShuffleOrder() *ShuffleOrder {
	return &ShuffleOrder{}
}

// Create builds a fresh permutation of [0, size): a random permutation of
// all indices except currentIndex, with currentIndex prepended.
// No-op (cleared) if the arguments are out of bounds.
func (s *ShuffleOrder) Create(size, currentIndex int) {
	if size <= 0 || currentIndex < 0 || currentIndex >= size {
		s.Clear()
		return
	}

	rest := make([]int, 0, size-1)
	for i := range size {
		if i != currentIndex {
			rest = append(rest, i)
		}
	}
	rand.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})

	s.order = make([]int, 0, size)
	s.order = append(s.order, currentIndex)
	s.order = append(s.order, rest...)
	s.rebuildIndices()
}

// Clear discards both mappings.
func (s *ShuffleOrder) Clear() {
	s.order = nil
	s.indices = nil
}

// Len returns the number of mapped positions.
func (s *ShuffleOrder) Len() int {
	return len(s.order)
}

// IsEmpty returns true if no mapping exists.
func (s *ShuffleOrder) IsEmpty() bool {
	return len(s.order) == 0
}

// OriginalAt returns the original index at the given shuffled position,
// or -1 if out of bounds.
func (s *ShuffleOrder) OriginalAt(shufflePos int) int {
	if shufflePos < 0 || shufflePos >= len(s.order) {
		return -1
	}
	return s.order[shufflePos]
}

// PositionOf returns the shuffled position of the given original index,
// or -1 if out of bounds.
func (s *ShuffleOrder) PositionOf(originalIndex int) int {
	if originalIndex < 0 || originalIndex >= len(s.indices) {
		return -1
	}
	return s.indices[originalIndex]
}

// Order returns a copy of the shuffled position -> original index mapping.
func (s *ShuffleOrder) Order() []int {
	result := make([]int, len(s.order))
	copy(result, s.order)
	return result
}

// InsertAfterCurrent inserts a new original index immediately after the
// given shuffled position, preserving the rest of the shuffled tail.
// Used for "play next": a full re-randomization on a single-item insert
// would surprise the user.
//
// Every stored original index >= insertedOriginal is shifted up by one
// first, since the playlist insertion displaced them. No-op on bad indices.
func (s *ShuffleOrder) InsertAfterCurrent(insertedOriginal, currentShufflePos int) {
	if insertedOriginal < 0 || insertedOriginal > len(s.order) {
		return
	}
	if currentShufflePos < 0 || currentShufflePos >= len(s.order) {
		return
	}

	for i, orig := range s.order {
		if orig >= insertedOriginal {
			s.order[i] = orig + 1
		}
	}

	at := currentShufflePos + 1
	s.order = append(s.order[:at], append([]int{insertedOriginal}, s.order[at:]...)...)
	s.rebuildIndices()
}

// RemoveOriginal removes the slot for the given original index and shifts
// higher stored indices down. The remaining shuffled order is untouched.
// No-op on bad indices.
func (s *ShuffleOrder) RemoveOriginal(originalIndex int) {
	pos := s.PositionOf(originalIndex)
	if pos < 0 {
		return
	}

	s.order = append(s.order[:pos], s.order[pos+1:]...)
	for i, orig := range s.order {
		if orig > originalIndex {
			s.order[i] = orig - 1
		}
	}
	s.rebuildIndices()
}

// MoveShuffled relocates one slot within the shuffled order without
// re-shuffling anything else. No-op on bad indices.
func (s *ShuffleOrder) MoveShuffled(from, to int) {
	if from < 0 || from >= len(s.order) {
		return
	}
	if to < 0 || to >= len(s.order) {
		return
	}
	if from == to {
		return
	}

	v := s.order[from]
	s.order = append(s.order[:from], s.order[from+1:]...)
	s.order = append(s.order[:to], append([]int{v}, s.order[to:]...)...)
	s.rebuildIndices()
}

// rebuildIndices recomputes the inverse map from order.
func (s *ShuffleOrder) rebuildIndices() {
	s.indices = make([]int, len(s.order))
	for pos, orig := range s.order {
		s.indices[orig] = pos
	}
}
