package distribution

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParse_Empty(t *testing.T) {
	d, err := Parse("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name != "" {
		t.Errorf("Name = %q, want empty", d.Name)
	}
}

func TestParse_Joint(t *testing.T) {
	d, err := Parse("Joint")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name != "Joint" {
		t.Errorf("Name = %q, want Joint", d.Name)
	}
}

func TestParse_Predefined(t *testing.T) {
	d, err := Parse("Normal/100,5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name != "Normal" || len(d.Params) != 2 || d.Params[0] != 100 || d.Params[1] != 5 {
		t.Errorf("got %+v", d)
	}
}

func TestParse_Predefined_WrongArity(t *testing.T) {
	_, err := Parse("Exp/1,2")
	if !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("err = %v, want ErrInvalidSpec", err)
	}
}

func TestParse_Predefined_UnknownFamily(t *testing.T) {
	_, err := Parse("Weibull/1,2")
	if !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("err = %v, want ErrInvalidSpec", err)
	}
}

func TestParse_DistFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sizes.dist")
	if err := os.WriteFile(path, []byte("0.5 100\n0.5 200\n"), 0600); err != nil {
		t.Fatal(err)
	}

	d, err := Parse(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name != "custom" || len(d.Values) != 2 {
		t.Fatalf("got %+v", d)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestParse_DistFile_RaggedRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.dist")
	if err := os.WriteFile(path, []byte("0.5 100\n0.5 200 300\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Parse(path)
	if !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("err = %v, want ErrInvalidSpec", err)
	}
}

func TestValidate_ProbabilitiesMustSumToOne(t *testing.T) {
	d := &Dist{Name: "custom", Params: []float64{0.5, 0.2}, Values: [][]uint64{{100}, {200}}}
	if err := d.Validate(); !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("err = %v, want ErrInvalidSpec", err)
	}
}

func TestSampleGE_Empty_ReturnsLowerBoundUnchanged(t *testing.T) {
	d, _ := Parse("")
	got, err := SampleGE(d, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

// S4: Normal/100,5 sampled with lower bound 90 succeeds; with an
// unreachable lower bound it fails with ErrSampleLimit after 30 tries.
func TestSampleGE_Normal_WithinReach(t *testing.T) {
	d, _ := Parse("Normal/100,5")
	got, err := SampleGE(d, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got < 90 {
		t.Errorf("got %d, want >= 90", got)
	}
}

func TestSampleGE_Normal_SampleLimit(t *testing.T) {
	d, _ := Parse("Normal/100,5")
	_, err := SampleGE(d, 1_000_000_000)
	if !errors.Is(err, ErrSampleLimit) {
		t.Fatalf("err = %v, want ErrSampleLimit", err)
	}
}

// S5: custom 1-ary rows (0.5,100) (0.5,200), sample_ge(150) must return 200
// with probability 1 since it's the only row with mass at or above 150.
func TestSampleGE_Custom_OnlyEligibleRowWins(t *testing.T) {
	d := &Dist{
		Name:   "custom",
		Params: []float64{0.5, 0.5},
		Values: [][]uint64{{100}, {200}},
	}
	for i := 0; i < 50; i++ {
		got, err := SampleGE(d, 150)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 200 {
			t.Fatalf("got %d, want 200", got)
		}
	}
}

func TestSampleGE_Custom_EmptySupport(t *testing.T) {
	d := &Dist{
		Name:   "custom",
		Params: []float64{0.5, 0.5},
		Values: [][]uint64{{100}, {200}},
	}
	_, err := SampleGE(d, 1000)
	if !errors.Is(err, ErrEmptySupport) {
		t.Fatalf("err = %v, want ErrEmptySupport", err)
	}
}

func TestSampleGE_Custom_WrongArity(t *testing.T) {
	d := &Dist{
		Name:   "custom",
		Params: []float64{1},
		Values: [][]uint64{{100, 200}},
	}
	_, err := SampleGE(d, 0)
	if !errors.Is(err, ErrArityMismatch) {
		t.Fatalf("err = %v, want ErrArityMismatch", err)
	}
}

func TestSamplePairGE_NonCustom_ArityMismatch(t *testing.T) {
	d, _ := Parse("Joint")
	_, _, err := SamplePairGE(d, 0, 0)
	if !errors.Is(err, ErrArityMismatch) {
		t.Fatalf("err = %v, want ErrArityMismatch", err)
	}
}

func TestSamplePairGE_Custom(t *testing.T) {
	d := &Dist{
		Name:   "custom",
		Params: []float64{0.5, 0.5},
		Values: [][]uint64{{100, 10}, {200, 20}},
	}
	for i := 0; i < 20; i++ {
		a, b, err := SamplePairGE(d, 150, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a != 200 || b != 20 {
			t.Fatalf("got (%d,%d), want (200,20)", a, b)
		}
	}
}

func TestSampleGEMany(t *testing.T) {
	d, _ := Parse("")
	got, err := SampleGEMany(d, 7, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	for _, v := range got {
		if v != 7 {
			t.Errorf("got %d, want 7", v)
		}
	}
}

func TestLoader_CachesParsedDistFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sizes.dist")
	if err := os.WriteFile(path, []byte("1.0 42\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cache := NewMemoryCache()
	loader := NewLoader(cache)

	d1, err := loader.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, _ := os.Stat(path)
	key := CacheKey(path, info.ModTime().UnixNano())
	cached, ok := cache.Get(key)
	if !ok {
		t.Fatal("expected cache entry after first load")
	}
	if cached != d1 {
		t.Error("cache should hold the same *Dist returned by Load")
	}

	d2, err := loader.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d2 != d1 {
		t.Error("second Load should return the cached pointer")
	}
}

func TestLoader_NonFileSpecBypassesCache(t *testing.T) {
	cache := NewMemoryCache()
	loader := NewLoader(cache)

	if _, err := loader.Load("Normal/1,1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m := cache.(*memoryCache); len(m.store) != 0 {
		t.Errorf("expected no cache entries for a non-file spec, got %d", len(m.store))
	}
}

func TestS3FIFOCache_EvictsBeyondCapacity(t *testing.T) {
	backing := NewMemoryCache()
	cache := NewS3FIFOCache(backing, 2)

	d1 := &Dist{Name: "custom"}
	d2 := &Dist{Name: "custom"}
	d3 := &Dist{Name: "custom"}

	cache.Set(1, d1)
	cache.Set(2, d2)
	cache.Set(3, d3)

	if _, ok := cache.(*s3fifoCache).entries[1]; ok {
		t.Error("expected key 1 to have been evicted from the hot set")
	}
	// The backing store still has it — eviction is memory-only here since
	// distribution cache entries don't need a disk delete to stay correct.
	if _, ok := backing.Get(1); !ok {
		t.Error("expected backing store to retain evicted entry")
	}
}
