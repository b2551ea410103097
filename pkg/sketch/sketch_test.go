package sketch

import "testing"

func TestNewBloomInsertContains(t *testing.T) {
	f := NewBloom(100, 0.01)
	f.Insert([]byte("foo"))
	if !f.Contains([]byte("foo")) {
		t.Fatal("Bloom filter should contain inserted item")
	}
}

func TestNewPartitionedBloomInsertContains(t *testing.T) {
	f := NewPartitionedBloom(100, 0.01)
	f.Insert([]byte("foo"))
	if !f.Contains([]byte("foo")) {
		t.Fatal("partitioned Bloom filter should contain inserted item")
	}
}

func TestNewScalableBloomGrows(t *testing.T) {
	f := NewScalableBloom(64, 0.01, 2.0, 0.9)
	for i := 0; i < 500; i++ {
		f.Insert([]byte{byte(i), byte(i >> 8)})
	}
	if !f.Contains([]byte{10, 0}) {
		t.Fatal("scalable Bloom filter should contain an inserted item after growth")
	}
}

func TestNewCuckooInsertContainsDelete(t *testing.T) {
	f := NewCuckoo(100)
	f.Insert([]byte("foo"))
	if !f.Contains([]byte("foo")) {
		t.Fatal("Cuckoo filter should contain inserted item")
	}
	f.Remove([]byte("foo"))
	if f.Contains([]byte("foo")) {
		t.Fatal("Cuckoo filter should not contain removed item")
	}
}

func TestNewScalableCuckooGrows(t *testing.T) {
	f := NewScalableCuckoo(16, 0.01, 2.0, 0.9)
	for i := 0; i < 500; i++ {
		f.Insert([]byte{byte(i), byte(i >> 8)})
	}
	if !f.Contains([]byte{10, 0}) {
		t.Fatal("scalable Cuckoo filter should contain an inserted item after growth")
	}
}

func TestNewQuotientInsertContainsRemove(t *testing.T) {
	f := NewQuotient(8, 8)
	f.Insert([]byte("foo"))
	if !f.Contains([]byte("foo")) {
		t.Fatal("quotient filter should contain inserted item")
	}
	f.Remove([]byte("foo"))
	if f.Contains([]byte("foo")) {
		t.Fatal("quotient filter should not contain removed item")
	}
}

func TestNewQuotientFromFPP(t *testing.T) {
	f := NewQuotientFromFPP(100, 0.01)
	if f.Capacity() < 100 {
		t.Fatalf("Capacity() = %d, want >= 100", f.Capacity())
	}
}

func TestNewCountMinAllStrategies(t *testing.T) {
	for _, strategy := range []CountMinStrategy{CountMinStrategyMin, CountMinStrategyMean, CountMinStrategyMedianBias} {
		s := NewCountMin(5, 50, strategy)
		s.Insert([]byte("foo"), 3)
		if got := s.Count([]byte("foo")); got != 3 {
			t.Fatalf("strategy %d: Count(foo) = %d, want 3", strategy, got)
		}
	}
}

func TestNewCountMinFromError(t *testing.T) {
	s := NewCountMinFromError(0.1, 0.05, CountMinStrategyMin)
	if s.Rows() == 0 || s.Cols() == 0 {
		t.Fatal("NewCountMinFromError should produce a non-trivial grid")
	}
}

func TestNewHyperLogLogEstimatesCardinality(t *testing.T) {
	h := NewHyperLogLog(0.02)
	for i := 0; i < 1000; i++ {
		h.Insert([]byte{byte(i), byte(i >> 8)})
	}
	got := h.Len()
	if got < 500 || got > 1500 {
		t.Fatalf("Len() = %f, want roughly 1000", got)
	}
}

func TestNewMinHashSimilarity(t *testing.T) {
	m := NewMinHash(64)
	shingles := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	if got := m.Similarity(shingles, shingles); got != 1 {
		t.Fatalf("Similarity(x,x) = %f, want 1", got)
	}
}

func TestNewSimHashDeterministic(t *testing.T) {
	s := NewSimHash()
	items := [][]byte{[]byte("a"), []byte("b")}
	if s.Hash(items) != s.Hash(items) {
		t.Fatal("SimHash should be deterministic for identical input")
	}
}
