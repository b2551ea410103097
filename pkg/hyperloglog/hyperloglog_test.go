package hyperloglog

import (
	"fmt"
	"math"
	"testing"

	"probsketch/internal/sketchhash"
)

func seededHasher() sketchhash.HasherBuilder {
	return sketchhash.NewSeededHasherBuilder(0)
}

func TestNewPInRange(t *testing.T) {
	s := NewWithHasher(0.01, seededHasher(), nil)
	if s.P() < 4 || s.P() > 16 {
		t.Fatalf("P() = %d, want in [4,16]", s.P())
	}
}

func TestEmptySketch(t *testing.T) {
	s := NewWithHasher(0.01, seededHasher(), nil)
	if !s.IsEmpty() {
		t.Fatal("fresh sketch should be empty")
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %f, want 0", s.Len())
	}
}

func TestInsertRepeatedItemsCountOnce(t *testing.T) {
	s := NewWithHasher(0.01, seededHasher(), nil)
	for i := 0; i < 2; i++ {
		s.Insert([]byte("a"))
		s.Insert([]byte("b"))
		s.Insert([]byte("c"))
	}
	if s.IsEmpty() {
		t.Fatal("sketch should not be empty after inserts")
	}
	got := s.Len()
	if got < 2 || got > 5 {
		t.Fatalf("Len() = %f, want approximately 3 (distinct items a,b,c)", got)
	}
}

func TestEstimateAccuracyOverManyDistinctItems(t *testing.T) {
	s := NewWithHasher(0.02, seededHasher(), nil)
	const n = 5000
	for i := 0; i < n; i++ {
		s.Insert([]byte(fmt.Sprintf("item-%d", i)))
	}
	got := s.Len()
	if math.Abs(got-n)/n > 0.1 {
		t.Fatalf("Len() = %f, want within 10%% of %d", got, n)
	}
}

func TestMerge(t *testing.T) {
	s1 := NewWithHasher(0.01, seededHasher(), nil)
	for _, k := range []string{"0", "1", "2"} {
		s1.Insert([]byte(k))
		s1.Insert([]byte(k))
	}

	s2 := NewWithHasher(0.01, seededHasher(), nil)
	for _, k := range []string{"0", "1", "3"} {
		s2.Insert([]byte(k))
		s2.Insert([]byte(k))
	}

	s1.Merge(s2)
	got := s1.Len()
	if got < 3 || got > 6 {
		t.Fatalf("Len() after merge = %f, want approximately 4 (distinct union {0,1,2,3})", got)
	}
}

func TestMergeMismatchedPPanics(t *testing.T) {
	s1 := NewWithHasher(0.5, seededHasher(), nil)
	s2 := NewWithHasher(0.001, seededHasher(), nil)
	defer func() {
		if recover() == nil {
			t.Fatal("Merge should panic on mismatched p")
		}
	}()
	s1.Merge(s2)
}

func TestClear(t *testing.T) {
	s := NewWithHasher(0.01, seededHasher(), nil)
	s.Insert([]byte("foo"))
	s.Clear()
	if !s.IsEmpty() {
		t.Fatal("sketch should be empty after Clear")
	}
}

func TestNewPanicsOnInvalidErrorProbability(t *testing.T) {
	for _, p := range []float64{0, 1, -0.1, 1.5} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("New(%f) should panic", p)
				}
			}()
			New(p)
		}()
	}
}
