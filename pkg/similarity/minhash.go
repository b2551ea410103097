package similarity

import (
	"math"

	"probsketch/internal/obslog"
	"probsketch/internal/sketcherr"
	"probsketch/internal/sketchhash"
)

// MinHash estimates Jaccard similarity between two sets of shingles from
// hasherCount independent minimum-hash sketches, each built from one position
// of the same derived-hash stream every other sketch in this module uses
// (Kirsch-Mitzenmacher), rather than hasherCount independently keyed hashers.
type MinHash struct {
	hasherCount int
	hasher      *sketchhash.DoubleHasher
	log         *obslog.Logger
}

// NewMinHash returns a MinHash using hasherCount independent min-hash
// positions. More positions trade memory and compute for a tighter
// similarity estimate.
func NewMinHash(hasherCount int) *MinHash {
	return NewMinHashWithHasher(hasherCount, defaultHasher(), obslog.Discard())
}

// NewMinHashWithHasher is NewMinHash with an explicit hasher and logger.
func NewMinHashWithHasher(hasherCount int, hasher *sketchhash.DoubleHasher, log *obslog.Logger) *MinHash {
	if hasherCount <= 0 {
		sketcherr.Param("similarity.NewMinHash", "hasherCount must be positive")
	}
	return &MinHash{hasherCount: hasherCount, hasher: hasher, log: log}
}

func defaultHasher() *sketchhash.DoubleHasher {
	return sketchhash.NewDoubleHasher(sketchhash.NewEntropyHasherBuilder(), sketchhash.NewEntropyHasherBuilder())
}

// HasherCount returns the number of min-hash positions m uses.
func (m *MinHash) HasherCount() int { return m.hasherCount }

// MinHashes returns, for each of hasherCount derived-hash positions, the
// minimum hash observed across every shingle. It panics if shingles is empty,
// since the minimum over an empty stream is undefined.
func (m *MinHash) MinHashes(shingles [][]byte) []uint64 {
	if len(shingles) == 0 {
		panic(sketcherr.NewEmptyStateError("similarity.MinHashes", "shingles must be non-empty"))
	}
	mins := make([]uint64, m.hasherCount)
	for i := range mins {
		mins[i] = math.MaxUint64
	}
	for _, s := range shingles {
		it := m.hasher.Hash(s)
		for i := 0; i < m.hasherCount; i++ {
			if v := it.Next(); v < mins[i] {
				mins[i] = v
			}
		}
	}
	return mins
}

// SimilarityFromHashes returns the fraction of positions at which two
// min-hash vectors agree — an unbiased estimator of the Jaccard similarity of
// the shingle sets they were built from.
func (m *MinHash) SimilarityFromHashes(hashes1, hashes2 []uint64) float64 {
	if len(hashes1) != len(hashes2) {
		sketcherr.Param("similarity.SimilarityFromHashes", "hash vectors must have the same length")
	}
	if len(hashes1) == 0 {
		return 0
	}
	matches := 0
	for i := range hashes1 {
		if hashes1[i] == hashes2[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(hashes1))
}

// Similarity is SimilarityFromHashes(MinHashes(shingles1), MinHashes(shingles2)).
func (m *MinHash) Similarity(shingles1, shingles2 [][]byte) float64 {
	return m.SimilarityFromHashes(m.MinHashes(shingles1), m.MinHashes(shingles2))
}
