package bitstore

import "probsketch/internal/sketcherr"

// SlotVec is a growable ordered sequence of fixed-width integer slots (1 to
// 64 bits), packed into []uint64 words. It tracks the number of non-zero
// slots (OccupiedLen) so callers such as CuckooFilter and QuotientFilter
// never need a linear scan to know how full their backing store is.
type SlotVec struct {
	words       []uint64
	width       int
	len         int
	occupiedLen int
}

// NewSlotVec returns a SlotVec of n slots of width bits (1..=64), all zero.
func NewSlotVec(width, n int) *SlotVec {
	checkWidth("NewSlotVec", width)
	return &SlotVec{words: make([]uint64, slotWordCount(width, n)), width: width, len: n}
}

// NewSlotVecFromElem returns a SlotVec of n slots of width bits, all set to v.
func NewSlotVecFromElem(width, n int, v uint64) *SlotVec {
	sv := NewSlotVec(width, n)
	for i := 0; i < n; i++ {
		sv.Set(i, v)
	}
	return sv
}

// NewSlotVecWithCapacity returns an empty SlotVec (length 0) of the given
// slot width with room for n slots reserved.
func NewSlotVecWithCapacity(width, n int) *SlotVec {
	checkWidth("NewSlotVecWithCapacity", width)
	return &SlotVec{words: make([]uint64, 0, slotWordCount(width, n)), width: width}
}

func checkWidth(op string, width int) {
	if width < 1 || width > 64 {
		sketcherr.Param(op, "slot width must be in 1..=64")
	}
}

func slotWordCount(width, n int) int {
	totalBits := width * n
	return (totalBits + wordBits - 1) / wordBits
}

// Len returns the number of slots.
func (sv *SlotVec) Len() int { return sv.len }

// IsEmpty reports whether the vector has zero slots.
func (sv *SlotVec) IsEmpty() bool { return sv.len == 0 }

// Capacity returns the number of slots the vector can hold before its
// backing array must grow.
func (sv *SlotVec) Capacity() int {
	if sv.width == 0 {
		return 0
	}
	return (cap(sv.words) * wordBits) / sv.width
}

// OccupiedLen returns the number of non-zero slots.
func (sv *SlotVec) OccupiedLen() int { return sv.occupiedLen }

// BitCount returns the slot width w.
func (sv *SlotVec) BitCount() int { return sv.width }

func (sv *SlotVec) bitOffset(i int) (word, bitOff int) {
	off := i * sv.width
	return off / wordBits, off % wordBits
}

// Get returns the value stored at slot i. It panics if i is out of range.
func (sv *SlotVec) Get(i int) uint64 {
	if i < 0 || i >= sv.len {
		sketcherr.Bounds("SlotVec.Get", i, sv.len)
	}
	word, bitOff := sv.bitOffset(i)
	mask := widthMask(sv.width)

	low := (sv.words[word] >> uint(bitOff)) & mask
	bitsFromLow := wordBits - bitOff
	if bitsFromLow >= sv.width {
		return low
	}
	// Slot straddles a word boundary: OR in the high bits from the next word.
	highBits := sv.width - bitsFromLow
	high := sv.words[word+1] & (uint64(1)<<uint(highBits) - 1)
	return low | (high << uint(bitsFromLow))
}

// Set assigns the value at slot i. It panics if i is out of range.
func (sv *SlotVec) Set(i int, v uint64) {
	if i < 0 || i >= sv.len {
		sketcherr.Bounds("SlotVec.Set", i, sv.len)
	}
	mask := widthMask(sv.width)
	v &= mask

	prev := sv.Get(i)
	switch {
	case v != 0 && prev == 0:
		sv.occupiedLen++
	case v == 0 && prev != 0:
		sv.occupiedLen--
	}

	word, bitOff := sv.bitOffset(i)
	bitsFromLow := wordBits - bitOff

	// Clear the window in the low word and OR in the new bits.
	sv.words[word] &^= mask << uint(bitOff)
	sv.words[word] |= (v & mask) << uint(bitOff)

	if bitsFromLow < sv.width {
		highBits := sv.width - bitsFromLow
		highMask := uint64(1)<<uint(highBits) - 1
		sv.words[word+1] &^= highMask
		sv.words[word+1] |= v >> uint(bitsFromLow)
	}
}

func widthMask(width int) uint64 {
	if width == 64 {
		return ^uint64(0)
	}
	return uint64(1)<<uint(width) - 1
}

// Push appends a slot holding v.
func (sv *SlotVec) Push(v uint64) {
	needWords := slotWordCount(sv.width, sv.len+1)
	for len(sv.words) < needWords {
		sv.words = append(sv.words, 0)
	}
	sv.len++
	sv.Set(sv.len-1, v)
}

// Pop removes and returns the last slot's value. Unlike BitVec.Pop, it
// panics on an empty SlotVec — the two containers intentionally follow
// different pop policies, both documented once in this module's error
// taxonomy (§7.5).
func (sv *SlotVec) Pop() uint64 {
	if sv.len == 0 {
		sketcherr.Bounds("SlotVec.Pop", 0, 0)
	}
	v := sv.Get(sv.len - 1)
	sv.Set(sv.len-1, 0)
	sv.len--
	needWords := slotWordCount(sv.width, sv.len)
	sv.words = sv.words[:needWords]
	return v
}

// Truncate shortens the vector to n slots, which must be <= Len.
func (sv *SlotVec) Truncate(n int) {
	if n >= sv.len {
		return
	}
	for i := n; i < sv.len; i++ {
		if sv.Get(i) != 0 {
			sv.occupiedLen--
		}
	}
	sv.len = n
	sv.words = sv.words[:slotWordCount(sv.width, n)]
}

// Reserve ensures capacity for at least k additional slots.
func (sv *SlotVec) Reserve(k int) {
	need := slotWordCount(sv.width, sv.len+k)
	if need <= len(sv.words) {
		return
	}
	grown := make([]uint64, len(sv.words), need)
	copy(grown, sv.words)
	sv.words = grown
}

// Clear zeros every slot and resets OccupiedLen, without changing Len.
func (sv *SlotVec) Clear() {
	for i := range sv.words {
		sv.words[i] = 0
	}
	sv.occupiedLen = 0
}
