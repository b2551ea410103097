package sketchhash

import "testing"

func TestHasherBuilderDeterminism(t *testing.T) {
	a := NewSeededHasherBuilder(0)
	b := NewSeededHasherBuilder(0)
	if a.Hash([]byte("foo")) != b.Hash([]byte("foo")) {
		t.Fatal("equal seeds should yield equal hashes on equal input")
	}

	c := NewSeededHasherBuilder(1)
	if a.Hash([]byte("foo")) == c.Hash([]byte("foo")) {
		t.Fatal("different seeds should (almost certainly) yield different hashes")
	}
}

func TestDoubleHasherRestartable(t *testing.T) {
	dh := NewSeededDoubleHasher(0, 0)

	it1 := dh.Hash([]byte("foo"))
	it2 := dh.Hash([]byte("foo"))

	if it1.Take(5)[0] != it2.Take(5)[0] {
		t.Fatal("two calls to Hash on the same item should produce identical streams")
	}

	seq1 := it1.Take(4)
	it3 := dh.Hash([]byte("foo"))
	it3.Take(5)
	seq2 := it3.Take(4)
	for i := range seq1 {
		if seq1[i] != seq2[i] {
			t.Fatalf("stream mismatch at %d: %d != %d", i, seq1[i], seq2[i])
		}
	}
}

func TestHashIterAdvance(t *testing.T) {
	it := HashIter{a: 10, b: 3}
	vals := it.Take(4)
	// a=10, b=3, c=0
	// next() -> 10; a=13, b=3, c=1
	// next() -> 13; a=16, b=4, c=2
	// next() -> 16; a=20, b=6, c=3
	// next() -> 20; a=26, b=9, c=4
	want := []uint64{10, 13, 16, 20}
	for i := range want {
		if vals[i] != want[i] {
			t.Fatalf("Take(4)[%d] = %d, want %d", i, vals[i], want[i])
		}
	}
}

func TestHashIterPairwiseDistinct(t *testing.T) {
	dh := NewSeededDoubleHasher(0, 0)
	it := dh.Hash([]byte("distinctness-check"))
	vals := it.Take(8)
	seen := map[uint64]bool{}
	for _, v := range vals {
		if seen[v] {
			t.Fatalf("value %d repeated within first 8 derived hashes", v)
		}
		seen[v] = true
	}
}
