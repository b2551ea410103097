package cuckoo

import (
	"math"

	"probsketch/internal/obslog"
	"probsketch/internal/sketchhash"
)

// ScalableFilter is a stack of Cuckoo filters that grows when the last
// filter starts spilling into its extraItems list or has every fingerprint
// slot occupied. Presence is the union of
// every filter in the stack; removal runs against every filter, since an
// item could have landed in any of them. New items are always inserted into
// the last filter in the stack — a removal freeing space in an earlier
// filter is not retroactively exploited, since checking every earlier
// filter for room would be expensive for marginal benefit.
//
// The overall false positive probability of the stack is approximately
// initialFPP / (1 - tighteningRatio).
type ScalableFilter struct {
	filters             []*Filter
	initialItemCount    int
	initialFPP          float64
	growthRatio         float64
	tighteningRatio     float64
	hasherBuilderPair   func() *sketchhash.DoubleHasher
	log                 *obslog.Logger
}

// NewScalable returns a ScalableFilter with an initial estimated capacity of
// itemCount at false positive probability fpp. Each appended filter has
// capacity growthRatio times its predecessor's, at false positive
// probability tighteningRatio times its predecessor's.
func NewScalable(itemCount int, fpp, growthRatio, tighteningRatio float64) *ScalableFilter {
	return NewScalableWithHasher(itemCount, fpp, growthRatio, tighteningRatio, defaultEntriesPerIndex, defaultHasherPair, obslog.Discard())
}

// NewScalableFromEntriesPerIndex is NewScalable with an explicit
// entries-per-index count.
func NewScalableFromEntriesPerIndex(itemCount int, fpp float64, entriesPerIndex int, growthRatio, tighteningRatio float64) *ScalableFilter {
	return NewScalableWithHasher(itemCount, fpp, growthRatio, tighteningRatio, entriesPerIndex, defaultHasherPair, obslog.Discard())
}

// NewScalableWithHasher is NewScalable with explicit entries-per-index,
// hasher-builder-pair, and logger seams.
func NewScalableWithHasher(itemCount int, fpp, growthRatio, tighteningRatio float64, entriesPerIndex int, hasherBuilderPair func() *sketchhash.DoubleHasher, log *obslog.Logger) *ScalableFilter {
	sf := &ScalableFilter{
		initialItemCount:  itemCount,
		initialFPP:        fpp,
		growthRatio:       growthRatio,
		tighteningRatio:   tighteningRatio,
		hasherBuilderPair: hasherBuilderPair,
		log:               log,
	}
	sf.filters = []*Filter{NewFromEntriesPerIndexWithHasher(itemCount, fpp, entriesPerIndex, hasherBuilderPair(), log)}
	return sf
}

func (sf *ScalableFilter) last() *Filter { return sf.filters[len(sf.filters)-1] }

// tryGrow appends a new filter once the last filter in the stack has spilled
// any items into its extraItems list or has every fingerprint slot
// occupied. It never re-homes those spilled items
// into the new filter: last.extraItems was computed against last's own
// (index, fingerprint) hashing scheme, and grown is built with a freshly
// re-seeded hasher and possibly a different bucketLen, so neither the
// fingerprint nor either candidate index is guaranteed to mean anything in
// grown — writing them in regardless would plant the item in an unrelated
// slot, permanently losing it from every extraItems list and breaking the
// no-false-negative guarantee. Items already in last.extraItems simply stay
// there; query-across-all (Contains/Remove) still finds them.
func (sf *ScalableFilter) tryGrow() {
	last := sf.last()
	if !last.IsNearlyFull() && last.Len() < last.Capacity() {
		return
	}

	exponent := len(sf.filters)
	newCapacity := int(math.Ceil(float64(last.Capacity()) * sf.growthRatio))
	newFPP := sf.initialFPP * math.Pow(sf.tighteningRatio, float64(exponent))
	grown := NewFromEntriesPerIndexWithHasher(newCapacity, newFPP, last.entriesPerIndex, sf.hasherBuilderPair(), sf.log)

	sf.filters = append(sf.filters, grown)
	sf.log.Infof("cuckoo.scalable", "grow", "appended filter to stack", map[string]interface{}{
		"filter_index": exponent,
		"capacity":     grown.Capacity(),
		"fpp":          newFPP,
	})
}

// Insert adds item to the scalable filter, unless an earlier filter already
// reports it present.
func (sf *ScalableFilter) Insert(item []byte) {
	if !sf.Contains(item) {
		sf.last().Insert(item)
	}
	sf.tryGrow()
}

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

// Remove deletes item from every filter in the stack that might contain it.
func (sf *ScalableFilter) Remove(item []byte) {
	for _, f := range sf.filters {
		f.Remove(item)
	}
}

// Len returns the total number of occupied entries across every filter.
func (sf *ScalableFilter) Len() int {
	total := 0
	for _, f := range sf.filters {
		total += f.Len()
	}
	return total
}

// IsEmpty reports whether the stack has zero occupied entries.
func (sf *ScalableFilter) IsEmpty() bool { return sf.Len() == 0 }

// Capacity returns the sum of every filter's capacity in the stack.
func (sf *ScalableFilter) Capacity() int {
	total := 0
	for _, f := range sf.filters {
		total += f.Capacity()
	}
	return total
}

// EntriesPerIndex returns the entries-per-index count shared by every
// filter in the stack.
func (sf *ScalableFilter) EntriesPerIndex() int { return sf.filters[0].entriesPerIndex }

// FilterCount returns the number of filters currently in the stack.
func (sf *ScalableFilter) FilterCount() int { return len(sf.filters) }

// Clear resets the stack to a single initial filter.
func (sf *ScalableFilter) Clear() {
	entriesPerIndex := sf.filters[0].entriesPerIndex
	sf.filters = []*Filter{NewFromEntriesPerIndexWithHasher(sf.initialItemCount, sf.initialFPP, entriesPerIndex, sf.hasherBuilderPair(), sf.log)}
}

// EstimatedFPP returns the scalable filter's current estimated false
// positive probability: the complement of the product of each filter's
// complement, i.e. the probability that at least one filter reports a false
// positive.
func (sf *ScalableFilter) EstimatedFPP() float64 {
	product := 1.0
	for _, f := range sf.filters {
		product *= 1.0 - f.EstimatedFPP()
	}
	return 1.0 - product
}
