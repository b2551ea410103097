// Package quotient implements the quotient filter: a membership structure
// built from a single hash, stored as packed (quotient, remainder) pairs in
// one contiguous table. Unlike a Cuckoo filter it never relocates an item to
// a second candidate bucket — instead, items that collide on their quotient
// are kept together in a sorted "run" anchored at their canonical slot, with
// three metadata bits per slot (is_occupied, is_continuation, is_shifted)
// recording enough of the run/cluster structure to reconstruct every run's
// boundaries without extra pointers. This trades the Cuckoo filter's O(1)
// worst-case probe count for in-place, pointerless storage and support for
// deletion without tombstones.
package quotient

import (
	"math"

	"probsketch/internal/bitstore"
	"probsketch/internal/obslog"
	"probsketch/internal/sketcherr"
	"probsketch/internal/sketchhash"
)

const (
	metadataBits     = 3
	shiftedMask      = uint64(0b001)
	continuationMask = uint64(0b010)
	occupiedMask     = uint64(0b100)
)

func isShifted(slot uint64) bool      { return slot&shiftedMask != 0 }
func isContinuation(slot uint64) bool { return slot&continuationMask != 0 }
func isOccupied(slot uint64) bool     { return slot&occupiedMask != 0 }
func remainderOf(slot uint64) uint64  { return slot >> metadataBits }

// Filter is a quotient filter over q quotient bits and r remainder bits.
type Filter struct {
	q, r          int
	quotientMask  uint64
	remainderMask uint64
	slots         *bitstore.SlotVec
	len           int
	hasher        sketchhash.HasherBuilder
	log           *obslog.Logger
}

// New returns an empty Filter with 2^q slots, each storing an r-bit
// remainder alongside its 3 metadata bits.
func New(q, r int) *Filter {
	return NewWithHasher(q, r, sketchhash.NewEntropyHasherBuilder(), obslog.Discard())
}

// NewWithHasher is New with an explicit hasher and logger.
func NewWithHasher(q, r int, hasher sketchhash.HasherBuilder, log *obslog.Logger) *Filter {
	if q <= 0 {
		sketcherr.Param("quotient.New", "q must be positive")
	}
	if r <= 0 {
		sketcherr.Param("quotient.New", "r must be positive")
	}
	if q+r > 64 {
		sketcherr.Param("quotient.New", "q+r must not exceed 64")
	}
	return &Filter{
		q:             q,
		r:             r,
		quotientMask:  widthMask(q),
		remainderMask: widthMask(r),
		slots:         bitstore.NewSlotVec(r+metadataBits, 1<<uint(q)),
		hasher:        hasher,
		log:           log,
	}
}

// NewFromFPP sizes a Filter for roughly capacity items at false positive
// probability p: q = ceil(log2(1.33*capacity)), r = ceil(log2(1/(-2*ln(1-p)))).
func NewFromFPP(capacity int, p float64) *Filter {
	return NewFromFPPWithHasher(capacity, p, sketchhash.NewEntropyHasherBuilder(), obslog.Discard())
}

// NewFromFPPWithHasher is NewFromFPP with an explicit hasher and logger.
func NewFromFPPWithHasher(capacity int, p float64, hasher sketchhash.HasherBuilder, log *obslog.Logger) *Filter {
	if capacity <= 0 {
		sketcherr.Param("quotient.NewFromFPP", "capacity must be positive")
	}
	if p <= 0 || p >= 1 {
		sketcherr.Param("quotient.NewFromFPP", "false positive probability must be in (0,1)")
	}
	q := int(math.Ceil(math.Log2(1.33 * float64(capacity))))
	r := int(math.Ceil(math.Log2(1.0 / (-2.0 * math.Log(1.0-p)))))
	if q <= 0 {
		q = 1
	}
	if r <= 0 {
		r = 1
	}
	return NewWithHasher(q, r, hasher, log)
}

func widthMask(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<uint(bits) - 1
}

func (f *Filter) next(i int) int {
	i++
	if i == f.Capacity() {
		return 0
	}
	return i
}

func (f *Filter) prev(i int) int {
	if i == 0 {
		return f.Capacity() - 1
	}
	return i - 1
}

func (f *Filter) quotientAndRemainder(item []byte) (int, uint64) {
	h := f.hasher.Hash(item)
	quotient := int((h >> uint(f.r)) & f.quotientMask)
	remainder := h & f.remainderMask
	return quotient, remainder
}

// runStartWithCount walks left from q counting occupied bits until it finds
// the start of q's cluster, then walks right from the cluster start counting
// run starts (slots with is_continuation=0) until the count matches,
// locating q's own run start. occupiedCount is returned so Remove can keep
// tracking it through the following shift-left cascade.
func (f *Filter) runStartWithCount(q int) (runStart, occupiedCount int) {
	index := q
	for {
		slot := f.slots.Get(index)
		if isOccupied(slot) {
			occupiedCount++
		}
		if !isShifted(slot) {
			break
		}
		index = f.prev(index)
	}
	clusterStart := index

	index = clusterStart
	runsCount := 0
	for {
		slot := f.slots.Get(index)
		if !isContinuation(slot) {
			runsCount++
		}
		if runsCount == occupiedCount {
			return index, occupiedCount
		}
		index = f.next(index)
	}
}

func (f *Filter) runStart(q int) int {
	start, _ := f.runStartWithCount(q)
	return start
}

// containsRemainder reports whether remainder is present in quotient's run.
// It always performs the full cluster walk to find the run start rather than
// short-circuiting on the canonical slot, since a match there could belong
// to a different quotient's run that was merely shifted through it.
func (f *Filter) containsRemainder(quotient int, remainder uint64) bool {
	canonical := f.slots.Get(quotient)
	if !isOccupied(canonical) {
		return false
	}

	index := f.runStart(quotient)
	first := true
	for {
		slot := f.slots.Get(index)
		if !first && !isContinuation(slot) {
			return false
		}
		switch rem := remainderOf(slot); {
		case rem == remainder:
			return true
		case rem > remainder:
			return false
		}
		index = f.next(index)
		first = false
	}
}

// Contains reports whether item may have been inserted.
func (f *Filter) Contains(item []byte) bool {
	quotient, remainder := f.quotientAndRemainder(item)
	return f.containsRemainder(quotient, remainder)
}

// Insert adds item to the filter. It panics if the filter has no empty slot
// left anywhere — the only condition under which a quotient filter cannot
// accept another item.
func (f *Filter) Insert(item []byte) {
	quotient, remainder := f.quotientAndRemainder(item)

	canonical := f.slots.Get(quotient)
	if canonical == 0 {
		f.slots.Set(quotient, (remainder<<metadataBits)|occupiedMask)
		f.len++
		return
	}

	if f.containsRemainder(quotient, remainder) {
		return
	}

	if f.len >= f.Capacity() {
		panic(sketcherr.NewCapacityError("quotient.Insert", "filter has no empty slot left"))
	}

	newRun := false
	if !isOccupied(canonical) {
		f.slots.Set(quotient, canonical|occupiedMask)
		newRun = true
	}

	runStart := f.runStart(quotient)
	index := runStart
	newSlot := remainder << metadataBits

	if !newRun {
		first := true
		for {
			slot := f.slots.Get(index)
			if !first && !isContinuation(slot) {
				break // reached the end of the run
			}
			if remainder < remainderOf(slot) {
				break // sorted insertion point found
			}
			index = f.next(index)
			first = false
		}

		if index == runStart {
			// The new item becomes the run's smallest element; the slot
			// that used to be first must now flag itself as a
			// continuation once insertAndShiftRight carries it right.
			f.slots.Set(runStart, f.slots.Get(runStart)|continuationMask)
		} else {
			newSlot |= continuationMask
		}
	}

	if index != quotient {
		newSlot |= shiftedMask
	}

	f.insertAndShiftRight(index, newSlot)
	f.len++
}

// insertAndShiftRight writes slot at index, carrying whatever was already
// there one position to the right, and so on, until an empty slot absorbs
// the chain. The is_occupied bit never moves with the content — it belongs
// to the index, not to whatever item is currently stored there — so it is
// handed back to whichever value ends up resident at each index.
func (f *Filter) insertAndShiftRight(index int, slot uint64) {
	curr := slot
	for {
		next := f.slots.Get(index)
		wasEmpty := next == 0

		if isOccupied(next) {
			next &^= occupiedMask
			curr |= occupiedMask
		}

		f.slots.Set(index, curr)
		curr = next
		index = f.next(index)

		if wasEmpty {
			return
		}
		curr |= shiftedMask
	}
}

// Remove deletes item from the filter, if present.
func (f *Filter) Remove(item []byte) {
	quotient, remainder := f.quotientAndRemainder(item)

	canonical := f.slots.Get(quotient)
	if !isOccupied(canonical) {
		return
	}

	runStart, occupiedCount := f.runStartWithCount(quotient)
	runsCount := occupiedCount

	index := runStart
	first := true
	found := false
scan:
	for {
		slot := f.slots.Get(index)
		if !first && !isContinuation(slot) {
			break
		}
		switch rem := remainderOf(slot); {
		case rem == remainder:
			found = true
			break scan
		case rem > remainder:
			break scan
		}
		index = f.next(index)
		first = false
	}
	if !found {
		return
	}

	matchedIndex := index
	wasRunStart := matchedIndex == runStart

	// Extend occupiedCount from quotient to matchedIndex; the cascade then
	// keeps it counting every occupied index up to currentIndex.
	for i := quotient; i != matchedIndex; {
		i = f.next(i)
		if isOccupied(f.slots.Get(i)) {
			occupiedCount++
		}
	}

	currentIndex := matchedIndex
	firstCascade := true
	for {
		nextIndex := f.next(currentIndex)
		nextSlot := f.slots.Get(nextIndex)

		// A run boundary (a slot that is not a continuation) may mean the
		// run we just removed from has vanished entirely — decide that,
		// and apply it, before reading back this index's occupied bit,
		// since on the very first step currentIndex can equal quotient
		// itself and the clear must be visible to the write below.
		isNewRun := !isContinuation(nextSlot)
		if isNewRun {
			runsCount++
			if firstCascade && wasRunStart {
				f.clearOccupied(quotient)
			}
		}

		destOccupied := isOccupied(f.slots.Get(currentIndex))

		if !isContinuation(nextSlot) && !isShifted(nextSlot) {
			val := uint64(0)
			if destOccupied {
				val = occupiedMask
			}
			f.slots.Set(currentIndex, val)
			break
		}

		newCont := isContinuation(nextSlot)
		if firstCascade && wasRunStart && !isNewRun {
			newCont = false
		}

		newShifted := newCont || !destOccupied || occupiedCount != runsCount

		val := remainderOf(nextSlot) << metadataBits
		if newCont {
			val |= continuationMask
		}
		if newShifted {
			val |= shiftedMask
		}
		if destOccupied {
			val |= occupiedMask
		}
		f.slots.Set(currentIndex, val)

		currentIndex = nextIndex
		if isOccupied(f.slots.Get(currentIndex)) {
			occupiedCount++
		}
		firstCascade = false
	}

	f.len--
}

func (f *Filter) clearOccupied(index int) {
	f.slots.Set(index, f.slots.Get(index)&^occupiedMask)
}

// Len returns the number of items inserted (and not since removed).
func (f *Filter) Len() int { return f.len }

// IsEmpty reports whether the filter holds no items.
func (f *Filter) IsEmpty() bool { return f.len == 0 }

// Capacity returns 2^q, the number of slots.
func (f *Filter) Capacity() int { return f.slots.Len() }

// QuotientBits returns q.
func (f *Filter) QuotientBits() int { return f.q }

// RemainderBits returns r.
func (f *Filter) RemainderBits() int { return f.r }

// Clear empties the filter without changing its dimensions.
func (f *Filter) Clear() {
	f.slots.Clear()
	f.len = 0
}

// EstimatedFPP returns the filter's estimated false positive probability
// given its current load factor: 1 - exp(-load/2^r).
func (f *Filter) EstimatedFPP() float64 {
	if f.len == 0 {
		return 0
	}
	load := float64(f.len) / float64(f.Capacity())
	return 1.0 - math.Exp(-load/math.Pow(2, float64(f.r)))
}
