package bitstore

import "testing"

func TestSlotVecBasics(t *testing.T) {
	sv := NewSlotVec(5, 10)
	for i := 0; i < 10; i++ {
		if got := sv.Get(i); got != 0 {
			t.Fatalf("slot %d = %d, want 0", i, got)
		}
	}

	sv.Set(3, 17)
	if got := sv.Get(3); got != 17 {
		t.Fatalf("slot 3 = %d, want 17", got)
	}
	if sv.OccupiedLen() != 1 {
		t.Fatalf("OccupiedLen() = %d, want 1", sv.OccupiedLen())
	}

	sv.Set(3, 0)
	if sv.OccupiedLen() != 0 {
		t.Fatalf("OccupiedLen() after clearing slot = %d, want 0", sv.OccupiedLen())
	}
}

func TestSlotVecStraddlesWordBoundary(t *testing.T) {
	// width=5, slot 12 starts at bit offset 60, which straddles the first
	// 64-bit word boundary — exercises the cross-word read/write path.
	sv := NewSlotVec(5, 20)
	for i := 0; i < 20; i++ {
		v := uint64((i*7 + 3) % 32)
		sv.Set(i, v)
	}
	for i := 0; i < 20; i++ {
		want := uint64((i*7 + 3) % 32)
		if got := sv.Get(i); got != want {
			t.Fatalf("slot %d = %d, want %d", i, got, want)
		}
	}
}

func TestSlotVecOccupiedLenInvariant(t *testing.T) {
	sv := NewSlotVec(8, 16)
	occupied := map[int]bool{}
	set := func(i int, v uint64) {
		sv.Set(i, v)
		occupied[i] = v != 0
	}
	set(0, 5)
	set(1, 0)
	set(2, 200)
	set(0, 0)

	want := 0
	for _, v := range occupied {
		if v {
			want++
		}
	}
	if sv.OccupiedLen() != want {
		t.Fatalf("OccupiedLen() = %d, want %d", sv.OccupiedLen(), want)
	}
}

func TestSlotVecPushPop(t *testing.T) {
	sv := NewSlotVecWithCapacity(6, 4)
	sv.Push(10)
	sv.Push(20)
	sv.Push(30)

	if sv.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", sv.Len())
	}
	if got := sv.Pop(); got != 30 {
		t.Fatalf("Pop() = %d, want 30", got)
	}
	if sv.Len() != 2 {
		t.Fatalf("Len() after pop = %d, want 2", sv.Len())
	}
}

func TestSlotVecPopEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on Pop of empty SlotVec")
		}
	}()
	sv := NewSlotVec(4, 0)
	sv.Pop()
}

func TestSlotVecClear(t *testing.T) {
	sv := NewSlotVec(10, 8)
	sv.Set(0, 5)
	sv.Set(4, 900)
	sv.Clear()
	if sv.OccupiedLen() != 0 {
		t.Fatalf("OccupiedLen() after Clear = %d, want 0", sv.OccupiedLen())
	}
	for i := 0; i < 8; i++ {
		if got := sv.Get(i); got != 0 {
			t.Fatalf("slot %d = %d after Clear, want 0", i, got)
		}
	}
}

func TestSlotVecInvalidWidthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on invalid slot width")
		}
	}()
	NewSlotVec(65, 4)
}

func TestSlotVecMaxWidth64(t *testing.T) {
	sv := NewSlotVec(64, 3)
	sv.Set(1, ^uint64(0))
	if got := sv.Get(1); got != ^uint64(0) {
		t.Fatalf("slot 1 = %d, want max uint64", got)
	}
	if got := sv.Get(0); got != 0 {
		t.Fatalf("slot 0 = %d, want 0", got)
	}
}
