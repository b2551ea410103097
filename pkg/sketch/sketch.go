// Package sketch re-exports this module's membership and cardinality
// sketches behind a single import, the way the teacher's top-level
// hypercache package re-exports cache/storage types for external callers
// instead of making them reach into each subpackage directly.
package sketch

import (
	"probsketch/pkg/bloom"
	"probsketch/pkg/countmin"
	"probsketch/pkg/cuckoo"
	"probsketch/pkg/hyperloglog"
	"probsketch/pkg/quotient"
	"probsketch/pkg/similarity"
)

// Bloom is a classic Bloom filter: no false negatives, tunable false
// positive rate, no deletion.
type Bloom = bloom.Filter

// PartitionedBloom splits a Bloom filter's bit array into one partition per
// hash function, trading a slightly higher false-positive rate for an even
// load across partitions.
type PartitionedBloom = bloom.PartitionedFilter

// ScalableBloom grows by appending tightening-ratio Bloom filters instead of
// rejecting inserts once its initial capacity is exhausted.
type ScalableBloom = bloom.ScalableFilter

// BS, BSSD, and RLBS are the three Bloom-filter stream-deduplication
// variants: biased sampling, biased sampling with single deletion, and
// randomized load balancing.
type (
	BS   = bloom.BSFilter
	BSSD = bloom.BSSDFilter
	RLBS = bloom.RLBSFilter
)

// Cuckoo is a Cuckoo filter: supports deletion, lower space overhead than
// Bloom at equivalent false-positive rates, spills overflow items into an
// auxiliary list instead of failing an insert outright.
type Cuckoo = cuckoo.Filter

// ScalableCuckoo grows by appending tightening-ratio Cuckoo filters instead
// of failing once its initial capacity is exhausted.
type ScalableCuckoo = cuckoo.ScalableFilter

// Quotient is a quotient filter: a single packed (quotient, remainder) slot
// table supporting deletion without tombstones and without a second
// candidate bucket.
type Quotient = quotient.Filter

// CountMin is a Count-Min sketch: an approximate per-item running count over
// an unbounded stream, in space independent of the number of distinct items.
type CountMin = countmin.Sketch

// CountMinStrategy selects how a CountMin sketch turns its r candidate cells
// into a single estimate.
type CountMinStrategy = countmin.Strategy

const (
	CountMinStrategyMin        = countmin.CountMin
	CountMinStrategyMean       = countmin.CountMean
	CountMinStrategyMedianBias = countmin.CountMedianBias
)

// HyperLogLog is a HyperLogLog sketch: an approximate distinct-item counter
// in space logarithmic in the cardinality it estimates.
type HyperLogLog = hyperloglog.Sketch

// MinHash estimates Jaccard similarity between two item sets from the
// minimum derived hash per hash-function position.
type MinHash = similarity.MinHash

// SimHash folds an item set into one 64-bit fingerprint for near-duplicate
// detection via Hamming distance.
type SimHash = similarity.SimHash

// NewBloom returns a Bloom filter sized for itemCount items at the given
// false-positive probability.
func NewBloom(itemCount int, fpp float64) *Bloom { return bloom.New(itemCount, fpp) }

// NewPartitionedBloom returns a partitioned Bloom filter sized for itemCount
// items at the given false-positive probability.
func NewPartitionedBloom(itemCount int, fpp float64) *PartitionedBloom {
	return bloom.NewPartitioned(itemCount, fpp)
}

// NewScalableBloom returns a Bloom filter that grows by appending
// tightening-ratio filters once initialBitCount is exhausted.
func NewScalableBloom(initialBitCount int, fpp0, growthRatio, tighteningRatio float64) *ScalableBloom {
	return bloom.NewScalable(initialBitCount, fpp0, growthRatio, tighteningRatio)
}

// NewCuckoo returns a Cuckoo filter sized for itemCount items.
func NewCuckoo(itemCount int) *Cuckoo { return cuckoo.New(itemCount) }

// NewScalableCuckoo returns a Cuckoo filter that grows by appending
// tightening-ratio filters once itemCount is exhausted.
func NewScalableCuckoo(itemCount int, fpp, growthRatio, tighteningRatio float64) *ScalableCuckoo {
	return cuckoo.NewScalable(itemCount, fpp, growthRatio, tighteningRatio)
}

// NewQuotient returns a quotient filter with q quotient bits and r remainder
// bits per slot.
func NewQuotient(q, r int) *Quotient { return quotient.New(q, r) }

// NewQuotientFromFPP returns a quotient filter sized for capacity items at
// the given target false-positive probability.
func NewQuotientFromFPP(capacity int, fpp float64) *Quotient { return quotient.NewFromFPP(capacity, fpp) }

// NewCountMin returns a Count-Min sketch with the given grid dimensions and
// estimation strategy.
func NewCountMin(rows, cols int, strategy CountMinStrategy) *CountMin {
	return countmin.New(rows, cols, strategy)
}

// NewCountMinFromError returns a Count-Min sketch sized so that, with
// probability at least 1-delta, every estimate overshoots by at most epsilon
// times the total inserted weight.
func NewCountMinFromError(epsilon, delta float64, strategy CountMinStrategy) *CountMin {
	return countmin.NewFromError(epsilon, delta, strategy)
}

// NewHyperLogLog returns a HyperLogLog sketch sized for the given target
// error probability.
func NewHyperLogLog(errorProbability float64) *HyperLogLog { return hyperloglog.New(errorProbability) }

// NewMinHash returns a MinHash sketch using hasherCount independent min-hash
// positions.
func NewMinHash(hasherCount int) *MinHash { return similarity.NewMinHash(hasherCount) }

// NewSimHash returns a SimHash sketch.
func NewSimHash() *SimHash { return similarity.NewSimHash() }
