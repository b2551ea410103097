// Package sketchconfig loads YAML-tagged sizing profiles for this module's
// sketches, the way the teacher's pkg/config bundles named cache-filter
// presets (DefaultCuckooConfig, OptimizedForGUIDs) instead of leaving every
// caller to hand-pick sizing parameters.
package sketchconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile bundles the sizing parameters for every sketch kind this module
// ships. A deployment typically only fills in the section(s) it uses; zero
// sections are simply never consulted.
type Profile struct {
	Bloom       BloomProfile       `yaml:"bloom"`
	Cuckoo      CuckooProfile      `yaml:"cuckoo"`
	Quotient    QuotientProfile    `yaml:"quotient"`
	CountMin    CountMinProfile    `yaml:"count_min"`
	HyperLogLog HyperLogLogProfile `yaml:"hyperloglog"`
	MinHash     MinHashProfile     `yaml:"minhash"`
}

// BloomProfile sizes a classic, partitioned, or scalable Bloom filter.
type BloomProfile struct {
	ExpectedItems     uint64  `yaml:"expected_items"`
	FalsePositiveRate float64 `yaml:"false_positive_rate"`
	GrowthFactor      float64 `yaml:"growth_factor"`      // scalable variants only
	TighteningRatio   float64 `yaml:"tightening_ratio"`   // scalable variants only
}

// CuckooProfile sizes a classic or scalable Cuckoo filter.
type CuckooProfile struct {
	ExpectedItems       uint64  `yaml:"expected_items"`
	FalsePositiveRate   float64 `yaml:"false_positive_rate"`
	BucketSize          int     `yaml:"bucket_size"`
	MaxEvictionAttempts int     `yaml:"max_eviction_attempts"`
}

// QuotientProfile sizes a quotient filter.
type QuotientProfile struct {
	ExpectedItems     uint64  `yaml:"expected_items"`
	FalsePositiveRate float64 `yaml:"false_positive_rate"`
}

// CountMinProfile sizes a Count-Min sketch.
type CountMinProfile struct {
	Epsilon  float64 `yaml:"epsilon"`
	Delta    float64 `yaml:"delta"`
	Strategy string  `yaml:"strategy"` // "min", "mean", or "median_bias"
}

// HyperLogLogProfile sizes a HyperLogLog sketch.
type HyperLogLogProfile struct {
	ErrorProbability float64 `yaml:"error_probability"`
}

// MinHashProfile sizes a MinHash sketch.
type MinHashProfile struct {
	HasherCount int `yaml:"hasher_count"`
}

// DefaultProfile returns a general-purpose profile tuned for caching
// mid-sized key spaces (millions of items) at 0.1%–1% false-positive
// rates, mirroring the teacher's DefaultCuckooConfig.
func DefaultProfile() *Profile {
	return &Profile{
		Bloom: BloomProfile{
			ExpectedItems:     1_000_000,
			FalsePositiveRate: 0.01,
			GrowthFactor:      2.0,
			TighteningRatio:   0.9,
		},
		Cuckoo: CuckooProfile{
			ExpectedItems:       1_000_000,
			FalsePositiveRate:   0.001,
			BucketSize:          4,
			MaxEvictionAttempts: 500,
		},
		Quotient: QuotientProfile{
			ExpectedItems:     1_000_000,
			FalsePositiveRate: 0.01,
		},
		CountMin: CountMinProfile{
			Epsilon:  0.001,
			Delta:    0.01,
			Strategy: "min",
		},
		HyperLogLog: HyperLogLogProfile{
			ErrorProbability: 0.01,
		},
		MinHash: MinHashProfile{
			HasherCount: 100,
		},
	}
}

// OptimizedForGUIDs returns a profile tuned for high-cardinality GUID-keyed
// workloads: a tighter false-positive budget and a larger eviction-attempt
// ceiling to absorb the extra collision pressure uniformly random GUID
// hashes produce, mirroring the teacher's OptimizedForGUIDs preset.
func OptimizedForGUIDs(expectedItems uint64) *Profile {
	p := DefaultProfile()
	p.Bloom.ExpectedItems = expectedItems
	p.Bloom.FalsePositiveRate = 0.001
	p.Cuckoo.ExpectedItems = expectedItems
	p.Cuckoo.FalsePositiveRate = 0.0001
	p.Cuckoo.MaxEvictionAttempts = 1000
	p.Quotient.ExpectedItems = expectedItems
	p.Quotient.FalsePositiveRate = 0.001
	return p
}

// Load reads and parses a YAML profile from path, falling back to
// DefaultProfile if the file does not exist.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultProfile(), nil
		}
		return nil, fmt.Errorf("sketchconfig: read %s: %w", path, err)
	}

	profile := DefaultProfile()
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("sketchconfig: parse %s: %w", path, err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("sketchconfig: invalid profile loaded from %s: %w", path, err)
	}
	return profile, nil
}

// Validate reports whether every filled-in section's parameters are within
// the ranges each sketch's constructor requires.
func (p *Profile) Validate() error {
	if p.Bloom.FalsePositiveRate < 0 || p.Bloom.FalsePositiveRate >= 1 {
		return fmt.Errorf("bloom.false_positive_rate must be in [0,1)")
	}
	if p.Cuckoo.FalsePositiveRate < 0 || p.Cuckoo.FalsePositiveRate >= 1 {
		return fmt.Errorf("cuckoo.false_positive_rate must be in [0,1)")
	}
	if p.Cuckoo.BucketSize < 0 {
		return fmt.Errorf("cuckoo.bucket_size must be non-negative")
	}
	if p.Quotient.FalsePositiveRate < 0 || p.Quotient.FalsePositiveRate >= 1 {
		return fmt.Errorf("quotient.false_positive_rate must be in [0,1)")
	}
	if p.CountMin.Epsilon < 0 {
		return fmt.Errorf("count_min.epsilon must be non-negative")
	}
	if p.CountMin.Delta < 0 || p.CountMin.Delta >= 1 {
		return fmt.Errorf("count_min.delta must be in [0,1)")
	}
	if p.HyperLogLog.ErrorProbability < 0 || p.HyperLogLog.ErrorProbability >= 1 {
		return fmt.Errorf("hyperloglog.error_probability must be in [0,1)")
	}
	if p.MinHash.HasherCount < 0 {
		return fmt.Errorf("minhash.hasher_count must be non-negative")
	}
	return nil
}
