package bloom

import (
	"math"

	"probsketch/internal/bitstore"
	"probsketch/internal/sketchhash"
)

// PartitionedFilter is a Bloom filter split into k partitions of b bits
// each, with hash_i indexing only partition i. This bounds each hash
// function's influence to its own partition, trading a little memory
// locality for a cleaner per-partition false-positive analysis.
type PartitionedFilter struct {
	partitions []*bitstore.BitVec
	hasher     *sketchhash.DoubleHasher
	k          int
}

// NewPartitioned returns a PartitionedFilter sized for itemCount items at
// the target false positive probability fpp.
func NewPartitioned(itemCount int, fpp float64) *PartitionedFilter {
	return NewPartitionedWithHasher(itemCount, fpp, defaultHasher())
}

// NewPartitionedWithHasher is NewPartitioned with an explicit DoubleHasher.
func NewPartitionedWithHasher(itemCount int, fpp float64, hasher *sketchhash.DoubleHasher) *PartitionedFilter {
	m, k := optimalMK(itemCount, fpp)
	b := int(math.Ceil(float64(m) / float64(k)))
	parts := make([]*bitstore.BitVec, k)
	for i := range parts {
		parts[i] = bitstore.NewBitVec(b)
	}
	return &PartitionedFilter{partitions: parts, hasher: hasher, k: k}
}

// HasherCount returns k, the number of partitions.
func (f *PartitionedFilter) HasherCount() int { return f.k }

// Len returns the total number of bits across all partitions (k*b).
func (f *PartitionedFilter) Len() int {
	total := 0
	for _, p := range f.partitions {
		total += p.Len()
	}
	return total
}

func (f *PartitionedFilter) hashes(item []byte) []uint64 {
	it := f.hasher.Hash(item)
	return it.Take(f.k)
}

// Insert adds item to the filter.
func (f *PartitionedFilter) Insert(item []byte) {
	for i, h := range f.hashes(item) {
		p := f.partitions[i]
		p.Set(int(h%uint64(p.Len())), true)
	}
}

// Contains reports whether item may have been inserted.
func (f *PartitionedFilter) Contains(item []byte) bool {
	for i, h := range f.hashes(item) {
		p := f.partitions[i]
		if v, _ := p.Get(int(h % uint64(p.Len()))); !v {
			return false
		}
	}
	return true
}

// Clear resets every partition to empty.
func (f *PartitionedFilter) Clear() {
	for _, p := range f.partitions {
		p.SetAll(false)
	}
}
