// Package countmin implements the Count-Min sketch: a grid of rows x cols
// signed counters that lets an unbounded stream of (item, delta) updates be
// queried for an approximate running count per item, in space independent of
// the number of distinct items seen. Every row uses its own hash to spread
// an item's updates across the grid; three strategies turn the r candidate
// cells for an item into a single estimate, trading overestimation risk for
// robustness to the negative counters a Remove leaves behind.
package countmin

import (
	"math"
	"sort"

	"probsketch/internal/obslog"
	"probsketch/internal/sketcherr"
	"probsketch/internal/sketchhash"
)

// Strategy selects how Count turns a row of candidate cells into an
// estimate. The set is closed, so a constant enum is used in place of an
// interface with one implementation per variant.
type Strategy int

const (
	// CountMin takes the minimum of the r candidate cells. Never
	// underestimates when every inserted value was non-negative.
	CountMin Strategy = iota
	// CountMean takes round(sum/rows), which stays accurate under removals
	// (negative counters) at the cost of the min bound.
	CountMean
	// CountMedianBias takes the smaller of the CountMin estimate and the
	// median of each cell's count with an estimated pollution bias removed.
	CountMedianBias
)

// primeModulus mixes the two row hashes into one position, mirroring the
// single-array 2-hash-row scheme this module's Cuckoo/Quotient filters also
// build on: 2^64-59, the largest prime below 2^64.
const primeModulus = 0xFFFFFFFFFFFFFFC5

// Sketch is a Count-Min sketch over byte-slice items.
type Sketch struct {
	rows, cols int
	items      int64
	grid       [][]int64
	strategy   Strategy
	hasher     *sketchhash.DoubleHasher
	log        *obslog.Logger
}

// New returns an empty Sketch with the given dimensions and strategy.
func New(rows, cols int, strategy Strategy) *Sketch {
	return NewWithHasher(rows, cols, strategy, defaultHasher(), obslog.Discard())
}

// NewWithHasher is New with an explicit hasher and logger.
func NewWithHasher(rows, cols int, strategy Strategy, hasher *sketchhash.DoubleHasher, log *obslog.Logger) *Sketch {
	if rows <= 0 {
		sketcherr.Param("countmin.New", "rows must be positive")
	}
	if cols <= 0 {
		sketcherr.Param("countmin.New", "cols must be positive")
	}
	grid := make([][]int64, rows)
	for i := range grid {
		grid[i] = make([]int64, cols)
	}
	return &Sketch{rows: rows, cols: cols, grid: grid, strategy: strategy, hasher: hasher, log: log}
}

// NewFromError sizes a Sketch so that, with probability at least 1-delta,
// every estimate overshoots its true count by at most epsilon times the
// total inserted weight: rows = ceil(ln(1/delta)), cols = ceil(e/epsilon).
func NewFromError(epsilon, delta float64, strategy Strategy) *Sketch {
	return NewFromErrorWithHasher(epsilon, delta, strategy, defaultHasher(), obslog.Discard())
}

// NewFromErrorWithHasher is NewFromError with an explicit hasher and logger.
func NewFromErrorWithHasher(epsilon, delta float64, strategy Strategy, hasher *sketchhash.DoubleHasher, log *obslog.Logger) *Sketch {
	if epsilon <= 0 {
		sketcherr.Param("countmin.NewFromError", "epsilon must be positive")
	}
	if delta <= 0 || delta >= 1 {
		sketcherr.Param("countmin.NewFromError", "delta must be in (0,1)")
	}
	rows := int(math.Ceil(math.Log(1.0 / delta)))
	cols := int(math.Ceil(math.E / epsilon))
	return NewWithHasher(rows, cols, strategy, hasher, log)
}

func defaultHasher() *sketchhash.DoubleHasher {
	return sketchhash.NewDoubleHasher(sketchhash.NewEntropyHasherBuilder(), sketchhash.NewEntropyHasherBuilder())
}

// columnFor derives row's candidate column from the item's two underlying
// hashes, the same row-mixing scheme as two independent per-row hashers
// without needing to actually carry rows of them.
func (s *Sketch) columnFor(row int, h0, h1 uint64) int {
	offset := (uint64(row) * h1) % primeModulus
	offset = h0 + offset
	return int(offset % uint64(s.cols))
}

// Insert adds v to item's counter in every row, and to the running total.
func (s *Sketch) Insert(item []byte, v int64) {
	s.items += v
	h0, h1 := s.hasher.H0(item), s.hasher.H1(item)
	for row := 0; row < s.rows; row++ {
		s.grid[row][s.columnFor(row, h0, h1)] += v
	}
}

// Remove is Insert(item, -v).
func (s *Sketch) Remove(item []byte, v int64) {
	s.Insert(item, -v)
}

// Count estimates item's running total under the sketch's configured
// strategy.
func (s *Sketch) Count(item []byte) int64 {
	h0, h1 := s.hasher.H0(item), s.hasher.H1(item)
	values := make([]int64, s.rows)
	for row := 0; row < s.rows; row++ {
		values[row] = s.grid[row][s.columnFor(row, h0, h1)]
	}
	switch s.strategy {
	case CountMean:
		return estimateMean(values)
	case CountMedianBias:
		return estimateMedianBias(values, s.items, s.cols)
	default:
		return estimateMin(values)
	}
}

func estimateMin(values []int64) int64 {
	if len(values) == 0 {
		panic(sketcherr.NewEmptyStateError("countmin.Count", "CountMin strategy requires a non-empty row set"))
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

func estimateMean(values []int64) int64 {
	if len(values) == 0 {
		panic(sketcherr.NewEmptyStateError("countmin.Count", "CountMean strategy requires a non-empty row set"))
	}
	var sum int64
	for _, v := range values {
		sum += v
	}
	return int64(math.Round(float64(sum) / float64(len(values))))
}

// estimateMedianBias assumes every other item inserted uniformly pollutes
// each of the cols candidate cells, so it subtracts an estimate of that
// pollution from each cell's raw count before taking the median, then
// returns whichever is smaller of that and the plain CountMin estimate.
func estimateMedianBias(values []int64, items int64, cols int) int64 {
	minEstimate := estimateMin(values)

	biased := make([]int64, len(values))
	for i, v := range values {
		pollution := int64(math.Ceil(float64(items-v) / float64(cols-1)))
		biased[i] = v - pollution
	}
	sort.Slice(biased, func(i, j int) bool { return biased[i] < biased[j] })
	median := biased[(len(biased)-1)/2]

	if minEstimate < median {
		return minEstimate
	}
	return median
}

// Clear zeros every counter and the running total.
func (s *Sketch) Clear() {
	for row := range s.grid {
		for col := range s.grid[row] {
			s.grid[row][col] = 0
		}
	}
	s.items = 0
}

// Rows returns the sketch's row count.
func (s *Sketch) Rows() int { return s.rows }

// Cols returns the sketch's column count.
func (s *Sketch) Cols() int { return s.cols }

// Confidence returns e/cols, the sketch's error bound multiplier.
func (s *Sketch) Confidence() float64 { return math.E / float64(s.cols) }

// Error returns 1/e^rows, the sketch's failure probability bound.
func (s *Sketch) Error() float64 { return 1.0 / math.Exp(float64(s.rows)) }
