package bloom

import (
	"math"

	"probsketch/internal/obslog"
	"probsketch/internal/sketchhash"
	"probsketch/internal/sketcherr"
)

// ScalableFilter is a stack of classic Bloom filters that grows under a
// fill-ratio trigger instead of requiring an upfront item count. Presence is
// the union of every filter in the stack. The overall false positive
// probability of the stack is approximately initialFPP / (1 - tighteningRatio).
type ScalableFilter struct {
	filters           []*Filter
	initialBitCount   int
	fpp0              float64
	growthRatio       float64
	tighteningRatio   float64
	bitsUsedEstimate  int
	log               *obslog.Logger
	hasherBuilderPair func() *sketchhash.DoubleHasher
}

// NewScalable returns a ScalableFilter whose first filter has exactly
// initialBitCount bits at false positive probability fpp0; each subsequent
// filter multiplies its predecessor's bit count by growthRatio and tightens
// its false positive target by tighteningRatio.
func NewScalable(initialBitCount int, fpp0, growthRatio, tighteningRatio float64) *ScalableFilter {
	return NewScalableWithHasher(initialBitCount, fpp0, growthRatio, tighteningRatio, defaultHasher, obslog.Discard())
}

// NewScalableWithHasher is NewScalable with explicit hasher-builder and
// logger seams, used by the determinism and growth-event tests.
func NewScalableWithHasher(initialBitCount int, fpp0, growthRatio, tighteningRatio float64, hasherBuilderPair func() *sketchhash.DoubleHasher, log *obslog.Logger) *ScalableFilter {
	if initialBitCount <= 0 {
		sketcherr.Param("bloom.NewScalable", "initialBitCount must be positive")
	}
	if fpp0 <= 0 || fpp0 >= 1 {
		sketcherr.Param("bloom.NewScalable", "fpp0 must be in (0,1)")
	}
	sf := &ScalableFilter{
		initialBitCount:   initialBitCount,
		fpp0:              fpp0,
		growthRatio:       growthRatio,
		tighteningRatio:   tighteningRatio,
		log:               log,
		hasherBuilderPair: hasherBuilderPair,
	}
	sf.filters = []*Filter{NewFromFPPWithHasher(initialBitCount, fpp0, hasherBuilderPair())}
	return sf
}

func (sf *ScalableFilter) last() *Filter {
	if len(sf.filters) == 0 {
		panic(sketcherr.NewEmptyStateError("bloom.ScalableFilter", "filter stack is unexpectedly empty"))
	}
	return sf.filters[len(sf.filters)-1]
}

// FilterCount returns the number of filters currently in the stack.
func (sf *ScalableFilter) FilterCount() int { return len(sf.filters) }

// Len returns the sum of the bit lengths of every filter in the stack.
func (sf *ScalableFilter) Len() int {
	total := 0
	for _, f := range sf.filters {
		total += f.Len()
	}
	return total
}

// IsEmpty reports whether the stack has zero total bits (never true once
// constructed via NewScalable, which always allocates the first filter).
func (sf *ScalableFilter) IsEmpty() bool { return sf.Len() == 0 }

// Contains reports whether item may have been inserted into any filter in
// the stack.
func (sf *ScalableFilter) Contains(item []byte) bool {
	for _, f := range sf.filters {
		if f.Contains(item) {
			return true
		}
	}
	return false
}

// Insert adds item to the last filter in the stack, unless an earlier filter
// already reports it present, then grows the stack if the last filter has
// crossed its fill-ratio trigger.
func (sf *ScalableFilter) Insert(item []byte) {
	if sf.Contains(item) {
		sf.tryGrow()
		return
	}
	last := sf.last()
	last.Insert(item)
	sf.bitsUsedEstimate += last.HasherCount()
	sf.tryGrow()
}

// tryGrow implements the approximate-then-exact fill check: an approximate
// bits-used counter (incremented by hasherCount per insert, avoiding a
// popcount on every single Insert) triggers a recheck against the exact
// CountOnes only once it estimates at least half the last filter's bits are
// used; a new filter is appended only if the exact recheck still crosses the
// 50% fill-ratio trigger.
func (sf *ScalableFilter) tryGrow() {
	last := sf.last()
	if sf.bitsUsedEstimate*2 < last.Len() {
		return
	}
	sf.bitsUsedEstimate = last.CountOnes()
	if sf.bitsUsedEstimate*2 < last.Len() {
		return
	}

	exponent := len(sf.filters)
	newBitCount := int(math.Ceil(float64(last.Len()) * sf.growthRatio))
	newFPP := sf.fpp0 * math.Pow(sf.tighteningRatio, float64(exponent))

	grown := NewFromFPPWithHasher(newBitCount, newFPP, sf.hasherBuilderPair())
	sf.filters = append(sf.filters, grown)
	sf.bitsUsedEstimate = 0

	sf.log.Debugf("bloom.scalable", "grow", "appended filter to stack", map[string]interface{}{
		"filter_index": exponent,
		"len":          grown.Len(),
		"hasher_count": grown.HasherCount(),
		"fpp":          newFPP,
	})
}

// Clear resets the stack to a single initial filter using the same hasher
// builders.
func (sf *ScalableFilter) Clear() {
	sf.filters = []*Filter{NewFromFPPWithHasher(sf.initialBitCount, sf.fpp0, sf.hasherBuilderPair())}
	sf.bitsUsedEstimate = 0
}
