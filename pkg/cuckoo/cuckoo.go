// Package cuckoo implements the Cuckoo filter family: a space-efficient
// membership structure that, unlike a classic Bloom filter, supports removal.
// Each item is reduced to a short fingerprint stored in one of two candidate
// buckets; when both candidate buckets are full, an existing fingerprint is
// displaced to its own alternate bucket, chaining until a free slot is found
// or maxKicks displacements are exhausted.
package cuckoo

import (
	"encoding/binary"
	"math"
	"math/rand"

	"probsketch/internal/bitstore"
	"probsketch/internal/obslog"
	"probsketch/internal/sketcherr"
	"probsketch/internal/sketchhash"
)

const (
	defaultEntriesPerIndex   = 4
	defaultFingerprintBits   = 8
	defaultMaxKicks          = 512
)

// extraItem is a fingerprint that survived a full eviction chain without
// finding a free slot. It is kept alongside the filter rather than dropped,
// trading a little memory for zero false negatives.
type extraItem struct {
	fingerprint uint64
	index       int
}

// Filter is the classic Cuckoo filter.
type Filter struct {
	maxKicks        int
	entriesPerIndex int
	fingerprintBits int
	fingerprints    *bitstore.SlotVec
	extraItems      []extraItem
	hasher          *sketchhash.DoubleHasher
	rng             *rand.Rand
	log             *obslog.Logger
}

// New returns a Filter with an estimated max capacity of itemCount, 8-bit
// fingerprints, 4 entries per index, and a maximum of 512 displacements per
// insert. The estimated max false positive probability is about 3%.
func New(itemCount int) *Filter {
	return NewWithHasher(itemCount, defaultHasherPair(), obslog.Discard())
}

// NewWithHasher is New with explicit hasher and logger seams.
func NewWithHasher(itemCount int, hasher *sketchhash.DoubleHasher, log *obslog.Logger) *Filter {
	return NewFromParametersWithHasher(itemCount, defaultFingerprintBits, defaultEntriesPerIndex, hasher, log)
}

// NewFromParameters returns a Filter with an estimated max capacity of
// itemCount, fingerprintBitCount bits per fingerprint, and entriesPerIndex
// entries per bucket. This constructor gives no false positive probability
// guarantee; use NewFromEntriesPerIndex or NewFromFingerprintBitCount for
// that.
func NewFromParameters(itemCount, fingerprintBitCount, entriesPerIndex int) *Filter {
	return NewFromParametersWithHasher(itemCount, fingerprintBitCount, entriesPerIndex, defaultHasherPair(), obslog.Discard())
}

// NewFromParametersWithHasher is NewFromParameters with explicit hasher and
// logger seams.
func NewFromParametersWithHasher(itemCount, fingerprintBitCount, entriesPerIndex int, hasher *sketchhash.DoubleHasher, log *obslog.Logger) *Filter {
	if itemCount <= 0 {
		sketcherr.Param("cuckoo.New", "itemCount must be positive")
	}
	if fingerprintBitCount <= 1 || fingerprintBitCount > 64 {
		sketcherr.Param("cuckoo.New", "fingerprintBitCount must be in [2,64]")
	}
	if entriesPerIndex <= 0 {
		sketcherr.Param("cuckoo.New", "entriesPerIndex must be positive")
	}
	bucketLen := nextPowerOfTwo((itemCount + entriesPerIndex - 1) / entriesPerIndex)
	return &Filter{
		maxKicks:        defaultMaxKicks,
		entriesPerIndex: entriesPerIndex,
		fingerprintBits: fingerprintBitCount,
		fingerprints:    bitstore.NewSlotVec(fingerprintBitCount, bucketLen*entriesPerIndex),
		hasher:          hasher,
		rng:             rand.New(rand.NewSource(rand.Int63())),
		log:             log,
	}
}

// NewFromEntriesPerIndex returns a Filter with an estimated max capacity of
// itemCount, an estimated max false positive probability of fpp, and
// entriesPerIndex entries per bucket. The fingerprint bit count is derived
// from fpp and entriesPerIndex.
func NewFromEntriesPerIndex(itemCount int, fpp float64, entriesPerIndex int) *Filter {
	return NewFromEntriesPerIndexWithHasher(itemCount, fpp, entriesPerIndex, defaultHasherPair(), obslog.Discard())
}

// NewFromEntriesPerIndexWithHasher is NewFromEntriesPerIndex with explicit
// hasher and logger seams.
func NewFromEntriesPerIndexWithHasher(itemCount int, fpp float64, entriesPerIndex int, hasher *sketchhash.DoubleHasher, log *obslog.Logger) *Filter {
	if entriesPerIndex <= 0 {
		sketcherr.Param("cuckoo.NewFromEntriesPerIndex", "entriesPerIndex must be positive")
	}
	power := 2.0 / (1.0 - math.Pow(1.0-fpp, 1.0/(2.0*float64(entriesPerIndex))))
	fingerprintBitCount := int(math.Ceil(math.Log2(power)))
	return NewFromParametersWithHasher(itemCount, fingerprintBitCount, entriesPerIndex, hasher, log)
}

// NewFromFingerprintBitCount returns a Filter with an estimated max capacity
// of itemCount, an estimated max false positive probability of fpp, and
// fingerprintBitCount bits per fingerprint. The entries-per-index count is
// derived from fpp and fingerprintBitCount.
func NewFromFingerprintBitCount(itemCount int, fpp float64, fingerprintBitCount int) *Filter {
	return NewFromFingerprintBitCountWithHasher(itemCount, fpp, fingerprintBitCount, defaultHasherPair(), obslog.Discard())
}

// NewFromFingerprintBitCountWithHasher is NewFromFingerprintBitCount with
// explicit hasher and logger seams.
func NewFromFingerprintBitCountWithHasher(itemCount int, fpp float64, fingerprintBitCount int, hasher *sketchhash.DoubleHasher, log *obslog.Logger) *Filter {
	if fingerprintBitCount <= 1 || fingerprintBitCount > 64 {
		sketcherr.Param("cuckoo.NewFromFingerprintBitCount", "fingerprintBitCount must be in [2,64]")
	}
	fingerprintsCount := math.Pow(2, float64(fingerprintBitCount))
	singleFPP := (fingerprintsCount - 2.0) / (fingerprintsCount - 1.0)
	entriesPerIndex := int(math.Floor(math.Log(1.0-fpp) / math.Log(singleFPP) / 2.0))
	if entriesPerIndex <= 0 {
		sketcherr.Param("cuckoo.NewFromFingerprintBitCount", "false positive probability is unachievable for this fingerprint bit count")
	}
	return NewFromParametersWithHasher(itemCount, fingerprintBitCount, entriesPerIndex, hasher, log)
}

func defaultHasherPair() *sketchhash.DoubleHasher {
	return sketchhash.NewDoubleHasher(sketchhash.NewEntropyHasherBuilder(), sketchhash.NewEntropyHasherBuilder())
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func uint64Bytes(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

func (f *Filter) getVecIndex(index, bucketIndex int) int {
	return index*f.entriesPerIndex + bucketIndex
}

// fingerprintAndIndexes derives an item's fingerprint and its two candidate
// bucket indexes. index2 is always recoverable from index1 and the
// fingerprint via XOR, so the filter never needs to store which bucket an
// item actually landed in.
func (f *Filter) fingerprintAndIndexes(item []byte) (fingerprint uint64, index1, index2 int) {
	trailingZeros := uint(64 - f.fingerprintBits)
	h0 := f.hasher.H0(item)
	fingerprint = (h0 << trailingZeros) >> trailingZeros

	// A zero fingerprint is indistinguishable from an empty slot, so rehash
	// until it's nonzero.
	for fingerprint == 0 {
		h0 = f.hasher.H0(uint64Bytes(h0 + 1))
		fingerprint = (h0 << trailingZeros) >> trailingZeros
	}

	h1 := f.hasher.H1(item)
	hashedFingerprint := f.hasher.H1(uint64Bytes(fingerprint))
	bucketLen := uint64(f.BucketLen())
	index1 = int(h1 % bucketLen)
	index2 = int((uint64(index1) ^ hashedFingerprint) % bucketLen)
	return fingerprint, index1, index2
}

// Insert adds item to the filter.
func (f *Filter) Insert(item []byte) {
	fingerprint, index1, index2 := f.fingerprintAndIndexes(item)
	if f.containsFingerprint(fingerprint, index1, index2) {
		return
	}

	if f.insertFingerprint(fingerprint, index1) {
		return
	}
	if f.insertFingerprint(fingerprint, index2) {
		return
	}

	index := index1
	if f.rng.Intn(2) == 1 {
		index = index2
	}
	prevIndex := index

	for i := 0; i < f.maxKicks; i++ {
		bucketIndex := f.rng.Intn(f.entriesPerIndex)
		vecIndex := f.getVecIndex(index, bucketIndex)
		newFingerprint := f.fingerprints.Get(vecIndex)
		f.fingerprints.Set(vecIndex, fingerprint)
		fingerprint = newFingerprint

		hashedFingerprint := f.hasher.H1(uint64Bytes(fingerprint))
		prevIndex = index
		index = int((uint64(prevIndex) ^ hashedFingerprint) % uint64(f.BucketLen()))
		if f.insertFingerprint(fingerprint, index) {
			return
		}
	}

	spillIndex := prevIndex
	if index < spillIndex {
		spillIndex = index
	}
	f.extraItems = append(f.extraItems, extraItem{fingerprint: fingerprint, index: spillIndex})
	f.log.Debugf("cuckoo.filter", "spill", "eviction chain exhausted maxKicks, spilled to extraItems", map[string]interface{}{
		"max_kicks":        f.maxKicks,
		"extra_items_len":  len(f.extraItems),
	})
}

func (f *Filter) insertFingerprint(fingerprint uint64, index int) bool {
	for bucketIndex := 0; bucketIndex < f.entriesPerIndex; bucketIndex++ {
		vecIndex := f.getVecIndex(index, bucketIndex)
		if f.fingerprints.Get(vecIndex) == 0 {
			f.fingerprints.Set(vecIndex, fingerprint)
			return true
		}
	}
	return false
}

// Remove deletes item from the filter, if present.
func (f *Filter) Remove(item []byte) {
	fingerprint, index1, index2 := f.fingerprintAndIndexes(item)
	f.removeFingerprint(fingerprint, index1, index2)
}

func (f *Filter) removeFingerprint(fingerprint uint64, index1, index2 int) {
	minIndex := index1
	if index2 < minIndex {
		minIndex = index2
	}
	for i, e := range f.extraItems {
		if e.fingerprint == fingerprint && e.index == minIndex {
			f.extraItems[i] = f.extraItems[len(f.extraItems)-1]
			f.extraItems = f.extraItems[:len(f.extraItems)-1]
			return
		}
	}

	for bucketIndex := 0; bucketIndex < f.entriesPerIndex; bucketIndex++ {
		vecIndex1 := f.getVecIndex(index1, bucketIndex)
		if f.fingerprints.Get(vecIndex1) == fingerprint {
			f.fingerprints.Set(vecIndex1, 0)
			return
		}
		vecIndex2 := f.getVecIndex(index2, bucketIndex)
		if f.fingerprints.Get(vecIndex2) == fingerprint {
			f.fingerprints.Set(vecIndex2, 0)
			return
		}
	}
}

// Contains reports whether item may have been inserted. False positives are
// possible; false negatives are not, as long as extraItems has not been
// silently dropped (it never is).
func (f *Filter) Contains(item []byte) bool {
	fingerprint, index1, index2 := f.fingerprintAndIndexes(item)
	return f.containsFingerprint(fingerprint, index1, index2)
}

func (f *Filter) containsFingerprint(fingerprint uint64, index1, index2 int) bool {
	minIndex := index1
	if index2 < minIndex {
		minIndex = index2
	}
	for _, e := range f.extraItems {
		if e.fingerprint == fingerprint && e.index == minIndex {
			return true
		}
	}
	for bucketIndex := 0; bucketIndex < f.entriesPerIndex; bucketIndex++ {
		vecIndex1 := f.getVecIndex(index1, bucketIndex)
		vecIndex2 := f.getVecIndex(index2, bucketIndex)
		if f.fingerprints.Get(vecIndex1) == fingerprint || f.fingerprints.Get(vecIndex2) == fingerprint {
			return true
		}
	}
	return false
}

// Clear resets the filter to empty.
func (f *Filter) Clear() {
	f.fingerprints.Clear()
	f.extraItems = nil
}

// Len returns the number of occupied fingerprint slots, including items
// spilled into extraItems.
func (f *Filter) Len() int { return f.fingerprints.OccupiedLen() + len(f.extraItems) }

// IsEmpty reports whether the filter has zero occupied entries.
func (f *Filter) IsEmpty() bool { return f.Len() == 0 }

// Capacity returns the total number of fingerprint slots. Items still spill
// into extraItems even when Len is below Capacity, since a full bucket pair
// can reject an insert regardless of overall occupancy.
func (f *Filter) Capacity() int { return f.fingerprints.Len() }

// BucketLen returns the number of buckets.
func (f *Filter) BucketLen() int { return f.fingerprints.Len() / f.entriesPerIndex }

// EntriesPerIndex returns the number of fingerprint slots per bucket.
func (f *Filter) EntriesPerIndex() int { return f.entriesPerIndex }

// ExtraItemsLen returns the number of items that overflowed into the spill
// list because their eviction chain exhausted maxKicks.
func (f *Filter) ExtraItemsLen() int { return len(f.extraItems) }

// IsNearlyFull reports whether any items have spilled into extraItems.
func (f *Filter) IsNearlyFull() bool { return len(f.extraItems) > 0 }

// FingerprintBitCount returns the number of bits used per fingerprint.
func (f *Filter) FingerprintBitCount() int { return f.fingerprintBits }

// EstimatedFPP returns the filter's current estimated false positive
// probability, which rises as the filter fills.
func (f *Filter) EstimatedFPP() float64 {
	fingerprintsCount := math.Pow(2, float64(f.fingerprintBits))
	singleFPP := (fingerprintsCount - 2.0) / (fingerprintsCount - 1.0)
	occupiedRatio := float64(f.fingerprints.OccupiedLen()) / float64(f.Capacity())
	return 1.0 - math.Pow(singleFPP, 2.0*float64(f.entriesPerIndex)*occupiedRatio)
}
