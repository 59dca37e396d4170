package playlist

import "testing"

// checkInverse verifies that order and indices are exact inverses.
func checkInverse(t *testing.T, s *ShuffleOrder) {
	t.Helper()
	for pos := range s.Len() {
		orig := s.OriginalAt(pos)
		if orig < 0 || orig >= s.Len() {
			t.Fatalf("OriginalAt(%d) = %d, out of range", pos, orig)
		}
		if got := s.PositionOf(orig); got != pos {
			t.Errorf("PositionOf(OriginalAt(%d)) = %d, want %d", pos, got, pos)
		}
	}
}

func TestShuffleOrder_Create_AnchorsCurrent(t *testing.T) {
	for current := range 5 {
		s := NewShuffleOrder()
		s.Create(5, current)

		if s.Len() != 5 {
			t.Fatalf("Len() = %d, want 5", s.Len())
		}
		if got := s.OriginalAt(0); got != current {
			t.Errorf("OriginalAt(0) = %d, want %d", got, current)
		}
		checkInverse(t, s)
	}
}

func TestShuffleOrder_Create_CoversAllIndices(t *testing.T) {
	s := NewShuffleOrder()
	s.Create(10, 3)

	seen := make(map[int]bool)
	for pos := range s.Len() {
		seen[s.OriginalAt(pos)] = true
	}
	if len(seen) != 10 {
		t.Errorf("permutation covers %d indices, want 10", len(seen))
	}
}

func TestShuffleOrder_Create_BadArgs(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		current int
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative current", 5, -1},
		{"current past end", 5, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewShuffleOrder()
			s.Create(tc.size, tc.current)
			if !s.IsEmpty() {
				t.Errorf("Create(%d, %d) should leave order empty", tc.size, tc.current)
			}
		})
	}
}

func TestShuffleOrder_SingleItem(t *testing.T) {
	s := NewShuffleOrder()
	s.Create(1, 0)

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	if got := s.OriginalAt(0); got != 0 {
		t.Errorf("OriginalAt(0) = %d, want 0", got)
	}
}

func TestShuffleOrder_Clear(t *testing.T) {
	s := NewShuffleOrder()
	s.Create(5, 2)
	s.Clear()

	if !s.IsEmpty() {
		t.Error("Clear() should empty the order")
	}
	if got := s.OriginalAt(0); got != -1 {
		t.Errorf("OriginalAt(0) after Clear = %d, want -1", got)
	}
	if got := s.PositionOf(0); got != -1 {
		t.Errorf("PositionOf(0) after Clear = %d, want -1", got)
	}
}

func TestShuffleOrder_InsertAfterCurrent(t *testing.T) {
	s := NewShuffleOrder()
	s.Create(4, 1)
	currentPos := s.PositionOf(1) // 0 by construction

	// Playlist inserted a track at original index 2 ("play next" after
	// current index 1).
	s.InsertAfterCurrent(2, currentPos)

	if s.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", s.Len())
	}
	// The inserted original index must sit right after the current position.
	if got := s.OriginalAt(currentPos + 1); got != 2 {
		t.Errorf("OriginalAt(%d) = %d, want 2", currentPos+1, got)
	}
	// Current anchor is untouched.
	if got := s.OriginalAt(0); got != 1 {
		t.Errorf("OriginalAt(0) = %d, want 1", got)
	}
	checkInverse(t, s)
}

func TestShuffleOrder_InsertAfterCurrent_PreservesTail(t *testing.T) {
	s := NewShuffleOrder()
	s.Create(5, 0)

	// Record the shuffled tail (original indices, shifted for the insert).
	var wantTail []int
	for pos := 1; pos < s.Len(); pos++ {
		orig := s.OriginalAt(pos)
		if orig >= 1 {
			orig++
		}
		wantTail = append(wantTail, orig)
	}

	s.InsertAfterCurrent(1, 0)

	for i, want := range wantTail {
		if got := s.OriginalAt(i + 2); got != want {
			t.Errorf("tail slot %d = %d, want %d", i, got, want)
		}
	}
}

func TestShuffleOrder_InsertAfterCurrent_BadArgs(t *testing.T) {
	s := NewShuffleOrder()
	s.Create(3, 0)
	before := s.Order()

	s.InsertAfterCurrent(-1, 0)
	s.InsertAfterCurrent(5, 0)
	s.InsertAfterCurrent(1, -1)
	s.InsertAfterCurrent(1, 3)

	after := s.Order()
	if len(before) != len(after) {
		t.Fatalf("bad insert args changed length: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("slot %d changed: %d -> %d", i, before[i], after[i])
		}
	}
}

func TestShuffleOrder_RemoveOriginal(t *testing.T) {
	s := NewShuffleOrder()
	s.Create(5, 2)

	s.RemoveOriginal(3)

	if s.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", s.Len())
	}
	checkInverse(t, s)

	// All stored indices are within the shrunken range.
	for pos := range s.Len() {
		if orig := s.OriginalAt(pos); orig < 0 || orig > 3 {
			t.Errorf("OriginalAt(%d) = %d, out of [0,3]", pos, orig)
		}
	}
}

func TestShuffleOrder_RemoveOriginal_BadIndex(t *testing.T) {
	s := NewShuffleOrder()
	s.Create(3, 0)

	s.RemoveOriginal(-1)
	s.RemoveOriginal(3)

	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestShuffleOrder_MoveShuffled(t *testing.T) {
	s := NewShuffleOrder()
	s.Create(5, 0)
	moved := s.OriginalAt(3)

	s.MoveShuffled(3, 1)

	if got := s.OriginalAt(1); got != moved {
		t.Errorf("OriginalAt(1) = %d, want %d", got, moved)
	}
	checkInverse(t, s)
}

func TestShuffleOrder_MoveShuffled_BadIndices(t *testing.T) {
	s := NewShuffleOrder()
	s.Create(3, 0)
	before := s.Order()

	s.MoveShuffled(-1, 0)
	s.MoveShuffled(0, 3)
	s.MoveShuffled(5, 5)

	after := s.Order()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("slot %d changed: %d -> %d", i, before[i], after[i])
		}
	}
}

func TestShuffleOrder_InvariantUnderOperationSequence(t *testing.T) {
	s := NewShuffleOrder()
	s.Create(8, 4)

	ops := []func(){
		func() { s.RemoveOriginal(6) },
		func() { s.MoveShuffled(2, 5) },
		func() { s.InsertAfterCurrent(3, s.PositionOf(s.OriginalAt(0))) },
		func() { s.RemoveOriginal(0) },
		func() { s.MoveShuffled(4, 1) },
		func() { s.RemoveOriginal(2) },
	}
	for i, op := range ops {
		op()
		checkInverse(t, s)
		if t.Failed() {
			t.Fatalf("inverse invariant broken after operation %d", i)
		}
	}
}
