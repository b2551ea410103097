// Package hyperloglog implements HyperLogLog: a fixed-size register array
// that estimates the number of distinct items seen in a stream from the
// maximum run of low-order one bits (above the register-index bits) observed
// in each register's bucket of hashes, correcting the naive harmonic-mean estimator for small and very
// large cardinalities.
package hyperloglog

import (
	"math"
	"math/bits"

	"probsketch/internal/obslog"
	"probsketch/internal/sketcherr"
	"probsketch/internal/sketchhash"
)

// Sketch estimates cardinality over byte-slice items.
type Sketch struct {
	alpha     float64
	p         int
	registers []uint8
	hasher    sketchhash.HasherBuilder
	log       *obslog.Logger
}

// New returns an empty Sketch sized for the given error probability, which
// must be in (0,1). p is derived as ceil(log2((1.04/errorProbability)^2)),
// clamped to [4,16].
func New(errorProbability float64) *Sketch {
	return NewWithHasher(errorProbability, sketchhash.NewEntropyHasherBuilder(), obslog.Discard())
}

// NewWithHasher is New with an explicit hasher and logger.
func NewWithHasher(errorProbability float64, hasher sketchhash.HasherBuilder, log *obslog.Logger) *Sketch {
	if errorProbability <= 0 || errorProbability >= 1 {
		sketcherr.Param("hyperloglog.New", "error probability must be in (0,1)")
	}
	ratio := 1.04 / errorProbability
	p := int(math.Ceil(math.Log2(ratio * ratio)))
	if p < 4 {
		p = 4
	}
	if p > 16 {
		p = 16
	}
	return &Sketch{
		alpha:     alphaFor(p),
		p:         p,
		registers: make([]uint8, 1<<uint(p)),
		hasher:    hasher,
		log:       log,
	}
}

// alphaFor returns the canonical HyperLogLog bias-correction constant for a
// register-count exponent p.
func alphaFor(p int) float64 {
	switch p {
	case 4:
		return 0.673
	case 5:
		return 0.697
	case 6:
		return 0.709
	default:
		m := float64(uint64(1) << uint(p))
		return 0.7213 / (1.0 + 1.079/m)
	}
}

// Insert records an observation of item.
func (s *Sketch) Insert(item []byte) {
	hash := s.hasher.Hash(item)
	m := uint64(len(s.registers))
	registerIndex := hash & (m - 1)
	value := uint8(bits.TrailingZeros64((^hash)>>uint(s.p))) + 1
	if value > s.registers[registerIndex] {
		s.registers[registerIndex] = value
	}
}

// Merge folds other's registers into s, taking the pairwise max. It panics
// if the two sketches were not built with the same p.
func (s *Sketch) Merge(other *Sketch) {
	if s.p != other.p {
		sketcherr.Param("hyperloglog.Merge", "sketches must share the same register-count exponent")
	}
	for i, v := range other.registers {
		if v > s.registers[i] {
			s.registers[i] = v
		}
	}
}

func (s *Sketch) rawEstimate() float64 {
	m := float64(len(s.registers))
	sum := 0.0
	for _, v := range s.registers {
		sum += 1.0 / math.Pow(2, float64(v))
	}
	return s.alpha * m * m / sum
}

// Len returns the estimated number of distinct items observed.
func (s *Sketch) Len() float64 {
	m := float64(len(s.registers))
	e := s.rawEstimate()

	switch {
	case e <= 2.5*m:
		zeros := 0
		for _, v := range s.registers {
			if v == 0 {
				zeros++
			}
		}
		if zeros == 0 {
			return e
		}
		return m * math.Log(m/float64(zeros))
	case e <= (1.0/3.0)*math.Pow(2, 32):
		return e
	default:
		return -math.Pow(2, 32) * math.Log(1-e/math.Pow(2, 32))
	}
}

// IsEmpty reports whether no item has ever been inserted.
func (s *Sketch) IsEmpty() bool {
	for _, v := range s.registers {
		if v != 0 {
			return false
		}
	}
	return true
}

// Clear resets every register to zero.
func (s *Sketch) Clear() {
	for i := range s.registers {
		s.registers[i] = 0
	}
}

// P returns the register-count exponent (m = 2^P).
func (s *Sketch) P() int { return s.p }
