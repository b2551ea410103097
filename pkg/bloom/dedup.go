package bloom

import (
	"math"
	"math/rand"

	"probsketch/internal/bitstore"
	"probsketch/internal/sketchhash"
)

// evictionRule is the one behavior that differentiates BSFilter, BSSDFilter
// and RLBSFilter: what to clear right before setting the k hashed positions
// of a newly-seen item.
type evictionRule int

const (
	evictBS evictionRule = iota
	evictBSSD
	evictRLBS
)

// dedupFilter is the shared implementation behind BSFilter, BSSDFilter and
// RLBSFilter: k partitions of b bits, with an eviction rule that fires when
// an item is newly inserted. These are stream-deduplication filters: they
// answer "have I recently seen this?" with bounded false positive AND false
// negative rates despite being fixed-size over an unbounded stream.
type dedupFilter struct {
	partitions []*bitstore.BitVec
	hasher     *sketchhash.DoubleHasher
	rng        *rand.Rand
	k          int
	rule       evictionRule
}

// dedupK computes k = ceil((1 + ln(p)/ln(1-1/e) + 1) / 2), the stream-dedup
// variants' shared partition count, distinct from the classic Bloom k.
func dedupK(fpp float64) int {
	const invE = 1.0 / math.E
	k := (1 + math.Log(fpp)/math.Log(1-invE) + 1) / 2
	v := int(math.Ceil(k))
	if v < 1 {
		v = 1
	}
	return v
}

func newDedupFilter(rule evictionRule, partitionBits, fpp float64) *dedupFilter {
	k := dedupK(fpp)
	b := int(math.Ceil(partitionBits))
	if b < 1 {
		b = 1
	}
	parts := make([]*bitstore.BitVec, k)
	for i := range parts {
		parts[i] = bitstore.NewBitVec(b)
	}
	return &dedupFilter{
		partitions: parts,
		hasher:     defaultHasher(),
		rng:        rand.New(rand.NewSource(rand.Int63())),
		k:          k,
		rule:       rule,
	}
}

// HasherCount returns k, the number of partitions.
func (f *dedupFilter) HasherCount() int { return f.k }

// Len returns the total number of bits across all partitions.
func (f *dedupFilter) Len() int {
	total := 0
	for _, p := range f.partitions {
		total += p.Len()
	}
	return total
}

func (f *dedupFilter) hashes(item []byte) []uint64 {
	it := f.hasher.Hash(item)
	return it.Take(f.k)
}

func (f *dedupFilter) positions(item []byte) []int {
	hashes := f.hashes(item)
	positions := make([]int, f.k)
	for i, h := range hashes {
		p := f.partitions[i]
		positions[i] = int(h % uint64(p.Len()))
	}
	return positions
}

// Contains reports whether item may have been inserted recently.
func (f *dedupFilter) Contains(item []byte) bool {
	positions := f.positions(item)
	for i, pos := range positions {
		if v, _ := f.partitions[i].Get(pos); !v {
			return false
		}
	}
	return true
}

// Insert adds item, running the eviction rule first if the item was not
// already present.
func (f *dedupFilter) Insert(item []byte) {
	positions := f.positions(item)
	alreadyPresent := true
	for i, pos := range positions {
		if v, _ := f.partitions[i].Get(pos); !v {
			alreadyPresent = false
			break
		}
	}
	if !alreadyPresent {
		f.evict()
	}
	for i, pos := range positions {
		f.partitions[i].Set(pos, true)
	}
}

func (f *dedupFilter) evict() {
	switch f.rule {
	case evictBS:
		for _, p := range f.partitions {
			bit := f.rng.Intn(p.Len())
			p.Set(bit, false)
		}
	case evictBSSD:
		partIdx := f.rng.Intn(len(f.partitions))
		p := f.partitions[partIdx]
		bit := f.rng.Intn(p.Len())
		p.Set(bit, false)
	case evictRLBS:
		for _, p := range f.partitions {
			fillRatio := float64(p.CountOnes()) / float64(p.Len())
			if f.rng.Float64() < fillRatio {
				bit := f.rng.Intn(p.Len())
				p.Set(bit, false)
			}
		}
	}
}

// Clear resets every partition to empty.
func (f *dedupFilter) Clear() {
	for _, p := range f.partitions {
		p.SetAll(false)
	}
}

// BSFilter is the biased-sampling stream-deduplication Bloom filter: on a
// newly-seen item, it clears one uniformly-chosen bit per partition before
// setting the hashed positions.
type BSFilter struct{ dedupFilter }

// NewBS returns a BSFilter with k partitions (derived from fpp) of
// partitionBits bits each.
func NewBS(partitionBits float64, fpp float64) *BSFilter {
	return &BSFilter{*newDedupFilter(evictBS, partitionBits, fpp)}
}

// BSSDFilter is the single-deletion stream-deduplication Bloom filter: on a
// newly-seen item, it clears one uniformly-chosen bit in one
// uniformly-chosen partition.
type BSSDFilter struct{ dedupFilter }

// NewBSSD returns a BSSDFilter with k partitions of partitionBits bits each.
func NewBSSD(partitionBits float64, fpp float64) *BSSDFilter {
	return &BSSDFilter{*newDedupFilter(evictBSSD, partitionBits, fpp)}
}

// RLBSFilter is the randomized-load-balanced stream-deduplication Bloom
// filter: on a newly-seen item, each partition independently clears a
// uniformly-chosen bit with probability equal to that partition's own fill
// ratio.
type RLBSFilter struct{ dedupFilter }

// NewRLBS returns an RLBSFilter with k partitions of partitionBits bits each.
func NewRLBS(partitionBits float64, fpp float64) *RLBSFilter {
	return &RLBSFilter{*newDedupFilter(evictRLBS, partitionBits, fpp)}
}
