package sketchconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	p, err := Load("/nonexistent/path.yaml")
	if err != nil {
		t.Fatalf("Load on missing file returned error: %v", err)
	}
	if p.Bloom.ExpectedItems != 1_000_000 {
		t.Fatalf("Bloom.ExpectedItems = %d, want 1000000", p.Bloom.ExpectedItems)
	}
	if p.CountMin.Strategy != "min" {
		t.Fatalf("CountMin.Strategy = %q, want min", p.CountMin.Strategy)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	content := `
bloom:
  expected_items: 500000
  false_positive_rate: 0.02
cuckoo:
  expected_items: 250000
  false_positive_rate: 0.005
  bucket_size: 4
  max_eviction_attempts: 500
count_min:
  epsilon: 0.01
  delta: 0.01
  strategy: median_bias
hyperloglog:
  error_probability: 0.02
minhash:
  hasher_count: 128
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp profile: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Bloom.ExpectedItems != 500000 {
		t.Fatalf("Bloom.ExpectedItems = %d, want 500000", p.Bloom.ExpectedItems)
	}
	if p.Cuckoo.BucketSize != 4 {
		t.Fatalf("Cuckoo.BucketSize = %d, want 4", p.Cuckoo.BucketSize)
	}
	if p.CountMin.Strategy != "median_bias" {
		t.Fatalf("CountMin.Strategy = %q, want median_bias", p.CountMin.Strategy)
	}
	if p.MinHash.HasherCount != 128 {
		t.Fatalf("MinHash.HasherCount = %d, want 128", p.MinHash.HasherCount)
	}
}

func TestLoadRejectsInvalidProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	content := "bloom:\n  false_positive_rate: 1.5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp profile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load should reject a false_positive_rate outside [0,1)")
	}
}

func TestOptimizedForGUIDsTightensFalsePositiveRate(t *testing.T) {
	base := DefaultProfile()
	guids := OptimizedForGUIDs(10_000_000)

	if guids.Cuckoo.FalsePositiveRate >= base.Cuckoo.FalsePositiveRate {
		t.Fatalf("OptimizedForGUIDs.Cuckoo.FalsePositiveRate = %f, want < default %f",
			guids.Cuckoo.FalsePositiveRate, base.Cuckoo.FalsePositiveRate)
	}
	if guids.Cuckoo.ExpectedItems != 10_000_000 {
		t.Fatalf("Cuckoo.ExpectedItems = %d, want 10000000", guids.Cuckoo.ExpectedItems)
	}
}

func TestDefaultProfileValidates(t *testing.T) {
	if err := DefaultProfile().Validate(); err != nil {
		t.Fatalf("DefaultProfile should validate: %v", err)
	}
}
