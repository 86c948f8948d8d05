package ams_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/keilerkonzept/ams"
	"github.com/keilerkonzept/ams/internal/validation"
)

func newSeeded(t *testing.T, seed uint64, opts ...ams.Option) *ams.Sketch {
	t.Helper()
	opts = append(opts, ams.WithRand(rand.New(rand.NewPCG(seed, seed))))
	sketch, err := ams.New(2, 100, 0.5, 0.1, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return sketch
}

func TestNew(t *testing.T) {
	sketch, err := ams.New(2, 100, 0.5, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if sketch.Width != 640 || sketch.Depth != 5 {
		t.Errorf("expected 640 x 5 counters, got %d x %d", sketch.Width, sketch.Depth)
	}
	if len(sketch.Counters) != 640*5 {
		t.Errorf("expected %d counters, got %d", 640*5, len(sketch.Counters))
	}
	if sketch.Hash != ams.HashXXH32 {
		t.Errorf("expected default hash %v, got %v", ams.HashXXH32, sketch.Hash)
	}
	for i, c := range sketch.Counters {
		if c.Sum != 0 {
			t.Fatalf("counter %d: expected zero sum, got %d", i, c.Sum)
		}
	}
}

func TestNew_Options(t *testing.T) {
	sketch, err := ams.New(2, 100, 0.5, 0.1, ams.WithWidth(10), ams.WithDepth(3), ams.WithHash(ams.HashMurmur3))
	if err != nil {
		t.Fatal(err)
	}
	if sketch.Width != 10 || sketch.Depth != 3 || sketch.Hash != ams.HashMurmur3 {
		t.Errorf("options not applied: width=%d depth=%d hash=%v", sketch.Width, sketch.Depth, sketch.Hash)
	}
	if len(sketch.Row(2)) != 10 {
		t.Errorf("expected rows of 10 counters, got %d", len(sketch.Row(2)))
	}
}

// Rejected parameters must not draw from the seed source.
func TestNew_InvalidParameters(t *testing.T) {
	for _, tt := range []struct {
		name  string
		build func(r *rand.Rand) (*ams.Sketch, error)
	}{
		{"k", func(r *rand.Rand) (*ams.Sketch, error) { return ams.New(0, 100, 0.5, 0.1, ams.WithRand(r)) }},
		{"n", func(r *rand.Rand) (*ams.Sketch, error) { return ams.New(2, 0, 0.5, 0.1, ams.WithRand(r)) }},
		{"lambda", func(r *rand.Rand) (*ams.Sketch, error) { return ams.New(2, 100, 0, 0.1, ams.WithRand(r)) }},
		{"epsilon", func(r *rand.Rand) (*ams.Sketch, error) { return ams.New(2, 100, 0.5, 1, ams.WithRand(r)) }},
		{"width", func(r *rand.Rand) (*ams.Sketch, error) {
			return ams.New(2, 100, 0.5, 0.1, ams.WithRand(r), ams.WithWidth(0))
		}},
		{"depth", func(r *rand.Rand) (*ams.Sketch, error) {
			return ams.New(2, 100, 0.5, 0.1, ams.WithRand(r), ams.WithDepth(-1))
		}},
		{"hash", func(r *rand.Rand) (*ams.Sketch, error) {
			return ams.New(2, 100, 0.5, 0.1, ams.WithRand(r), ams.WithHash(ams.HashFunc(200)))
		}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			r := rand.New(rand.NewPCG(1, 2))
			sketch, err := tt.build(r)
			if !errors.Is(err, ams.ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
			if sketch != nil {
				t.Errorf("expected nil sketch")
			}
			if got, want := r.Uint64(), rand.New(rand.NewPCG(1, 2)).Uint64(); got != want {
				t.Errorf("seed source was consumed")
			}
		})
	}
}

func TestEstimate_Empty(t *testing.T) {
	sketch := newSeeded(t, 1)
	if e := sketch.Estimate(); e != 0 {
		t.Errorf("expected estimate 0, got %v", e)
	}
	if diff := cmp.Diff(make([]float64, sketch.Depth), sketch.Means()); diff != "" {
		t.Error(diff)
	}
}

// A single distinct item with count c leaves every counter at ±c, so F_2 = c^2 is exact.
func TestEstimate_SingleItem(t *testing.T) {
	sketch := newSeeded(t, 1)
	for range 10 {
		if err := sketch.Update(42); err != nil {
			t.Fatal(err)
		}
	}
	for i, c := range sketch.Counters {
		if c.Sum != 10 && c.Sum != -10 {
			t.Fatalf("counter %d: expected ±10, got %d", i, c.Sum)
		}
	}
	if e := sketch.Estimate(); e != 100 {
		t.Errorf("expected estimate 100, got %v", e)
	}
}

func TestEstimate_StringItems(t *testing.T) {
	sketch := newSeeded(t, 3)
	for range 4 {
		if err := sketch.UpdateString("the"); err != nil {
			t.Fatal(err)
		}
	}
	if err := sketch.AddString("the", 2); err != nil {
		t.Fatal(err)
	}
	if e := sketch.Estimate(); e != 36 {
		t.Errorf("expected estimate 36, got %v", e)
	}
}

func TestUpdate_Deterministic(t *testing.T) {
	a := newSeeded(t, 7)
	b := newSeeded(t, 7)

	for i := range uint64(200) {
		for range i % 5 {
			if err := a.Update(i); err != nil {
				t.Fatal(err)
			}
			if err := b.Update(i); err != nil {
				t.Fatal(err)
			}
		}
	}

	if diff := cmp.Diff(a.Counters, b.Counters); diff != "" {
		t.Error(diff)
	}
	if a.Estimate() != b.Estimate() {
		t.Errorf("expected identical estimates, got %v and %v", a.Estimate(), b.Estimate())
	}
}

func TestAdd_EqualsRepeatedUpdate(t *testing.T) {
	a := newSeeded(t, 11)
	b := a.Fork()

	if err := a.Add(99, 10); err != nil {
		t.Fatal(err)
	}
	for range 10 {
		if err := b.Update(99); err != nil {
			t.Fatal(err)
		}
	}

	if diff := cmp.Diff(a.Counters, b.Counters); diff != "" {
		t.Error(diff)
	}
}

func TestAdd_Negative(t *testing.T) {
	sketch := newSeeded(t, 5)
	if err := sketch.Add(5, 3); err != nil {
		t.Fatal(err)
	}
	if err := sketch.Add(5, -3); err != nil {
		t.Fatal(err)
	}
	for i, c := range sketch.Counters {
		if c.Sum != 0 {
			t.Fatalf("counter %d: expected 0, got %d", i, c.Sum)
		}
	}
	if sketch.Mass != 6 {
		t.Errorf("expected mass 6, got %d", sketch.Mass)
	}
}

func TestAdd_Overflow(t *testing.T) {
	sketch := newSeeded(t, 5, ams.WithWidth(4), ams.WithDepth(1))
	sketch.Mass = math.MaxInt64 - 1

	if err := sketch.Update(1); err != nil {
		t.Fatalf("expected update within range to succeed, got %v", err)
	}
	before := sketch.Clone()

	if err := sketch.Update(1); !errors.Is(err, ams.ErrAccumulatorOverflow) {
		t.Errorf("expected ErrAccumulatorOverflow, got %v", err)
	}
	if err := sketch.Add(1, math.MinInt64); !errors.Is(err, ams.ErrAccumulatorOverflow) {
		t.Errorf("expected ErrAccumulatorOverflow, got %v", err)
	}
	if diff := cmp.Diff(before.Counters, sketch.Counters); diff != "" {
		t.Errorf("counters changed by rejected updates: %s", diff)
	}
}

func TestMerge(t *testing.T) {
	a := newSeeded(t, 21)
	b := a.Fork()
	all := a.Fork()

	streamA := []uint64{1, 2, 2, 3, 3, 3, 1000}
	streamB := []uint64{3, 4, 4, 1, 77, 77, 77, 77}
	for _, item := range streamA {
		if err := a.Update(item); err != nil {
			t.Fatal(err)
		}
	}
	for _, item := range streamB {
		if err := b.Update(item); err != nil {
			t.Fatal(err)
		}
	}
	// interleaved
	for i := range max(len(streamA), len(streamB)) {
		if i < len(streamB) {
			if err := all.Update(streamB[i]); err != nil {
				t.Fatal(err)
			}
		}
		if i < len(streamA) {
			if err := all.Update(streamA[i]); err != nil {
				t.Fatal(err)
			}
		}
	}

	if err := a.Merge(b); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(all.Counters, a.Counters); diff != "" {
		t.Error(diff)
	}
	if a.Mass != all.Mass {
		t.Errorf("expected mass %d, got %d", all.Mass, a.Mass)
	}
	if a.Estimate() != all.Estimate() {
		t.Errorf("expected estimate %v, got %v", all.Estimate(), a.Estimate())
	}
}

func TestMerge_Incompatible(t *testing.T) {
	a := newSeeded(t, 1)
	for _, b := range []*ams.Sketch{
		newSeeded(t, 2),
		newSeeded(t, 1, ams.WithWidth(10)),
		newSeeded(t, 1, ams.WithHash(ams.HashMetro)),
	} {
		if err := a.Merge(b); !errors.Is(err, ams.ErrIncompatible) {
			t.Errorf("expected ErrIncompatible, got %v", err)
		}
	}
}

func TestReset(t *testing.T) {
	sketch := newSeeded(t, 9)
	seeds := make([]uint32, len(sketch.Counters))
	for i, c := range sketch.Counters {
		seeds[i] = c.Seed
	}
	for i := range uint64(50) {
		if err := sketch.Update(i); err != nil {
			t.Fatal(err)
		}
	}

	sketch.Reset()

	if sketch.Estimate() != 0 || sketch.Mass != 0 {
		t.Errorf("expected empty sketch after reset")
	}
	for i, c := range sketch.Counters {
		if c.Seed != seeds[i] {
			t.Fatalf("counter %d: seed changed by reset", i)
		}
	}
}

func TestSizeBytes(t *testing.T) {
	sketch := newSeeded(t, 1, ams.WithWidth(8), ams.WithDepth(2))

	const (
		sizeofSketch  = int(unsafe.Sizeof(ams.Sketch{}))
		sizeofCounter = int(unsafe.Sizeof(ams.Counter{}))
	)
	if expected := sizeofSketch + 16*sizeofCounter; sketch.SizeBytes() != expected {
		t.Errorf("expected SizeBytes to be %d, got %d", expected, sketch.SizeBytes())
	}
}

func TestEstimate_Accuracy(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}
	const (
		lambda  = 0.5
		epsilon = 0.1
		actual  = 100 * 10 * 10
	)

	report, err := validation.Run(validation.Config{
		K:       2,
		N:       100,
		Lambda:  lambda,
		Epsilon: epsilon,
		Runs:    500,
		Repeat:  10,
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range report.Results {
		if r.Actual != actual {
			t.Fatalf("expected exact moment %d, got %v", actual, r.Actual)
		}
	}
	if report.MedianError > 0.1*actual {
		t.Errorf("median error %v exceeds %v", report.MedianError, 0.1*actual)
	}
	if report.ErrorProportion > 2*epsilon {
		t.Errorf("error proportion %v exceeds %v", report.ErrorProportion, 2*epsilon)
	}
}
