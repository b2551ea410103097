// Package similarity implements the two similarity-estimation sketches this
// module's family completes: MinHash (estimates Jaccard similarity between
// two sets from the minimum hash observed per hash function) and SimHash
// (folds a set of items into one 64-bit fingerprint whose Hamming distance
// approximates dissimilarity, with a near-duplicate reporter over a batch of
// fingerprints).
package similarity

import (
	"bytes"

	"probsketch/internal/sketcherr"
)

// ShingleIterator splits tokens into every contiguous window of k tokens —
// the sliding k-gram preprocessing step that turns a document into the item
// stream MinHash and SimHash consume.
func ShingleIterator(tokens []string, k int) [][]string {
	if k <= 0 {
		sketcherr.Param("similarity.ShingleIterator", "k must be positive")
	}
	if len(tokens) < k {
		return nil
	}
	windows := make([][]string, 0, len(tokens)-k+1)
	for i := 0; i+k <= len(tokens); i++ {
		windows = append(windows, tokens[i:i+k])
	}
	return windows
}

// Shingles is ShingleIterator, with each window joined by a NUL separator
// into the single byte slice MinHash/SimHash hash as one item.
func Shingles(tokenCount int, tokens []string) [][]byte {
	windows := ShingleIterator(tokens, tokenCount)
	shingles := make([][]byte, len(windows))
	for i, window := range windows {
		var buf bytes.Buffer
		for j, tok := range window {
			if j > 0 {
				buf.WriteByte(0)
			}
			buf.WriteString(tok)
		}
		shingles[i] = buf.Bytes()
	}
	return shingles
}

// JaccardSimilarity returns the exact Jaccard index |A∩B|/|A∪B| between two
// shingle sets. Provided alongside MinHash as the ground truth its estimate
// approximates.
func JaccardSimilarity(shingles1, shingles2 [][]byte) float64 {
	set1 := make(map[string]struct{}, len(shingles1))
	for _, s := range shingles1 {
		set1[string(s)] = struct{}{}
	}
	set2 := make(map[string]struct{}, len(shingles2))
	for _, s := range shingles2 {
		set2[string(s)] = struct{}{}
	}

	intersection := 0
	for s := range set1 {
		if _, ok := set2[s]; ok {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
