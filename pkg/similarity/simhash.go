package similarity

import (
	"math/bits"
	"sort"

	"probsketch/internal/obslog"
	"probsketch/internal/sketcherr"
	"probsketch/internal/sketchhash"
)

// SimHash folds a set of items into a single 64-bit fingerprint whose
// Hamming distance from another such fingerprint approximates dissimilarity
// between the two sets: similar sets fold to fingerprints differing in few
// bits.
type SimHash struct {
	hasher sketchhash.HasherBuilder
	log    *obslog.Logger
}

// NewSimHash returns a SimHash using an entropy-seeded default hasher.
func NewSimHash() *SimHash {
	return NewSimHashWithHasher(sketchhash.NewEntropyHasherBuilder(), obslog.Discard())
}

// NewSimHashWithHasher is NewSimHash with an explicit hasher and logger.
func NewSimHashWithHasher(hasher sketchhash.HasherBuilder, log *obslog.Logger) *SimHash {
	return &SimHash{hasher: hasher, log: log}
}

// Hash folds items into one 64-bit fingerprint. Each item's hash votes +1 on
// bit i of a 64-wide counter vector when that item's bit i is 0, and -1 when
// it is 1; counter i sets the output's bit 63-i (counter 0 lands in the most
// significant bit), which is 1 iff that counter's final tally is
// non-negative.
func (s *SimHash) Hash(items [][]byte) uint64 {
	var counts [64]int64
	for _, item := range items {
		h := s.hasher.Hash(item)
		for i := 0; i < 64; i++ {
			if (h>>uint(i))&1 == 0 {
				counts[i]++
			} else {
				counts[i]--
			}
		}
	}
	var acc uint64
	for _, c := range counts {
		acc <<= 1
		if c >= 0 {
			acc |= 1
		}
	}
	return acc
}

// pairKey is an unordered pair of indices into the batch ReportSimilarities
// was called with, used to dedupe reported matches across all 64 rotations.
type pairKey struct{ a, b int }

// ReportSimilarities finds near-duplicate fingerprints across a batch by
// banding: it sorts the fingerprints, slides a window of windowSize over the
// sorted order reporting every pair that falls in the same window, then
// rotates every fingerprint left by one bit and repeats for all 64
// rotations — so two fingerprints that sort within windowSize positions of
// each other under any of the 64 rotations are reported, without an all-pairs
// Hamming-distance scan. windowSize must be greater than 1.
func ReportSimilarities(windowSize int, fingerprints []uint64) [][2]int {
	if windowSize <= 1 {
		sketcherr.Param("similarity.ReportSimilarities", "windowSize must be greater than 1")
	}

	type entry struct {
		hash uint64
		idx  int
	}
	entries := make([]entry, len(fingerprints))
	for i, h := range fingerprints {
		entries[i] = entry{hash: h, idx: i}
	}

	seen := make(map[pairKey]struct{})
	for round := 0; round < 64; round++ {
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].hash != entries[j].hash {
				return entries[i].hash < entries[j].hash
			}
			return entries[i].idx < entries[j].idx
		})
		for start := 0; start+windowSize <= len(entries); start++ {
			for i := start; i < start+windowSize; i++ {
				for j := i + 1; j < start+windowSize; j++ {
					a, b := entries[i].idx, entries[j].idx
					if a > b {
						a, b = b, a
					}
					seen[pairKey{a, b}] = struct{}{}
				}
			}
		}
		for i := range entries {
			entries[i].hash = bits.RotateLeft64(entries[i].hash, 1)
		}
	}

	pairs := make([][2]int, 0, len(seen))
	for p := range seen {
		pairs = append(pairs, [2]int{p.a, p.b})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs
}
