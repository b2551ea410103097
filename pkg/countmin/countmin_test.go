package countmin

import (
	"fmt"
	"testing"

	"probsketch/internal/sketchhash"
)

func seededHasher() *sketchhash.DoubleHasher {
	return sketchhash.NewSeededDoubleHasher(0, 1)
}

func TestNewSizing(t *testing.T) {
	s := NewWithHasher(3, 28, CountMin, seededHasher(), nil)
	if s.Rows() != 3 || s.Cols() != 28 {
		t.Fatalf("Rows()/Cols() = %d/%d, want 3/28", s.Rows(), s.Cols())
	}
	if s.Confidence() > 0.1 {
		t.Fatalf("Confidence() = %f, want <= 0.1", s.Confidence())
	}
	if s.Error() > 0.05 {
		t.Fatalf("Error() = %f, want <= 0.05", s.Error())
	}
}

func TestFromErrorSizing(t *testing.T) {
	s := NewFromErrorWithHasher(0.1, 0.05, CountMin, seededHasher(), nil)
	if s.Rows() != 3 || s.Cols() != 28 {
		t.Fatalf("Rows()/Cols() = %d/%d, want 3/28", s.Rows(), s.Cols())
	}
	if s.Confidence() > 0.1 {
		t.Fatalf("Confidence() = %f, want <= 0.1", s.Confidence())
	}
	if s.Error() > 0.05 {
		t.Fatalf("Error() = %f, want <= 0.05", s.Error())
	}
}

func TestInsertAndCountAllStrategies(t *testing.T) {
	for _, strategy := range []Strategy{CountMin, CountMean, CountMedianBias} {
		s := NewFromErrorWithHasher(0.1, 0.05, strategy, seededHasher(), nil)
		s.Insert([]byte("foo"), 3)
		if got := s.Count([]byte("foo")); got != 3 {
			t.Fatalf("strategy %d: Count(foo) = %d, want 3", strategy, got)
		}
	}
}

func TestRemove(t *testing.T) {
	for _, strategy := range []Strategy{CountMin, CountMean, CountMedianBias} {
		s := NewFromErrorWithHasher(0.1, 0.05, strategy, seededHasher(), nil)
		s.Insert([]byte("foo"), 3)
		s.Remove([]byte("foo"), 3)
		if got := s.Count([]byte("foo")); got != 0 {
			t.Fatalf("strategy %d: Count(foo) after remove = %d, want 0", strategy, got)
		}
	}
}

func TestClear(t *testing.T) {
	s := NewFromErrorWithHasher(0.1, 0.05, CountMin, seededHasher(), nil)
	s.Insert([]byte("foo"), 3)
	s.Clear()
	if got := s.Count([]byte("foo")); got != 0 {
		t.Fatalf("Count(foo) after Clear = %d, want 0", got)
	}
}

func TestCountMinNeverUnderestimatesNonNegativeInserts(t *testing.T) {
	s := NewWithHasher(5, 50, CountMin, seededHasher(), nil)
	items := make([]string, 100)
	for i := range items {
		items[i] = fmt.Sprintf("item-%d", i)
		s.Insert([]byte(items[i]), int64(i+1))
	}
	for i, item := range items {
		if got := s.Count([]byte(item)); got < int64(i+1) {
			t.Fatalf("CountMin underestimated %q: got %d, want >= %d", item, got, i+1)
		}
	}
}

func TestCountMeanToleratesNegativeCounters(t *testing.T) {
	s := NewWithHasher(5, 50, CountMean, seededHasher(), nil)
	s.Insert([]byte("foo"), 10)
	s.Insert([]byte("bar"), 5)
	s.Remove([]byte("bar"), 5)
	if got := s.Count([]byte("bar")); got < -5 || got > 5 {
		t.Fatalf("Count(bar) after full removal = %d, want close to 0", got)
	}
}
