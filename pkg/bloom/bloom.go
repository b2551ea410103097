// Package bloom implements the Bloom filter family: the classic Bloom
// filter, a partitioned variant, three stream-deduplication variants (BS,
// BSSD, RLBS), and a scalable stack that grows under a fill-ratio trigger.
package bloom

import (
	"math"

	"probsketch/internal/bitstore"
	"probsketch/internal/sketchhash"
)

// Filter is the classic Bloom filter: a single bit array with k hashed
// positions per item.
type Filter struct {
	bits   *bitstore.BitVec
	hasher *sketchhash.DoubleHasher
	k      int
}

// New returns a Filter sized for itemCount items at the target false
// positive probability fpp, using a freshly entropy-seeded hasher.
func New(itemCount int, fpp float64) *Filter {
	return NewWithHasher(itemCount, fpp, defaultHasher())
}

// NewWithHasher is New, but with an explicit DoubleHasher — the seam the
// determinism tests use to pin down (k0, k1).
func NewWithHasher(itemCount int, fpp float64, hasher *sketchhash.DoubleHasher) *Filter {
	m, k := optimalMK(itemCount, fpp)
	return &Filter{bits: bitstore.NewBitVec(m), hasher: hasher, k: k}
}

// NewFromFPP returns a Filter with exactly bitCount bits and a hasher count
// derived from the false positive probability fpp (rather than from an
// explicit item count). This is the constructor ScalableFilter uses for
// every filter in its stack, since the stack's growth controller only knows
// the bit budget it wants, not an item count.
func NewFromFPP(bitCount int, fpp float64) *Filter {
	return NewFromFPPWithHasher(bitCount, fpp, defaultHasher())
}

// NewFromFPPWithHasher is NewFromFPP with an explicit DoubleHasher.
func NewFromFPPWithHasher(bitCount int, fpp float64, hasher *sketchhash.DoubleHasher) *Filter {
	itemCount := int(math.Floor(-math.Ln2 * float64(bitCount) / math.Log2(fpp)))
	if itemCount < 1 {
		itemCount = 1
	}
	k := hasherCountFor(bitCount, itemCount)
	return &Filter{bits: bitstore.NewBitVec(bitCount), hasher: hasher, k: k}
}

func defaultHasher() *sketchhash.DoubleHasher {
	return sketchhash.NewDoubleHasher(sketchhash.NewEntropyHasherBuilder(), sketchhash.NewEntropyHasherBuilder())
}

// hasherCountFor computes k = ceil((bitCount/itemCount)*ln2), the hash
// position count shared by both New and NewFromFPP once m and n are known.
func hasherCountFor(bitCount, itemCount int) int {
	k := int(math.Ceil((float64(bitCount) / float64(itemCount)) * math.Ln2))
	if k < 1 {
		k = 1
	}
	return k
}

// optimalMK computes m = ceil(-n*log2(p) / ln2) and k = ceil((m/n)*ln2).
func optimalMK(itemCount int, fpp float64) (m, k int) {
	n := float64(itemCount)
	m = int(math.Ceil(-n * math.Log2(fpp) / math.Ln2))
	if m < 1 {
		m = 1
	}
	return m, hasherCountFor(m, itemCount)
}

// Len returns the number of bits backing the filter (m).
func (f *Filter) Len() int { return f.bits.Len() }

// HasherCount returns the number of hash positions used per item (k).
func (f *Filter) HasherCount() int { return f.k }

// CountOnes returns the number of set bits.
func (f *Filter) CountOnes() int { return f.bits.CountOnes() }

// CountZeros returns the number of clear bits.
func (f *Filter) CountZeros() int { return f.bits.CountZeros() }

func (f *Filter) positions(item []byte) []int {
	it := f.hasher.Hash(item)
	hashes := it.Take(f.k)
	positions := make([]int, f.k)
	m := uint64(f.bits.Len())
	for i, h := range hashes {
		positions[i] = int(h % m)
	}
	return positions
}

// Insert adds item to the filter.
func (f *Filter) Insert(item []byte) {
	for _, p := range f.positions(item) {
		f.bits.Set(p, true)
	}
}

// Contains reports whether item may have been inserted. False positives are
// possible; false negatives are not.
func (f *Filter) Contains(item []byte) bool {
	for _, p := range f.positions(item) {
		if v, _ := f.bits.Get(p); !v {
			return false
		}
	}
	return true
}

// Clear resets the filter to empty.
func (f *Filter) Clear() { f.bits.SetAll(false) }

// EstimatedFPP returns (ones/m)^k, the theoretical current false positive
// probability given how full the bit array is.
func (f *Filter) EstimatedFPP() float64 {
	ratio := float64(f.bits.CountOnes()) / float64(f.bits.Len())
	return math.Pow(ratio, float64(f.k))
}
