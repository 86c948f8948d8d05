// Package ams implements the AMS ("tug-of-war") sketch for estimating the k-th frequency moment
// F_k = sum_i f_i^k of a stream, as described in "The space complexity of approximating the
// frequency moments" by Alon, Matias and Szegedy [1].
//
// The sketch is a grid of Depth estimators of Width counters each. Every counter holds a random
// seed and a signed sum; an update adds the item's ±1 sign under that seed to every counter. The
// estimate is the median over estimators of the mean of Sum^k within each estimator.
//
// The estimator is unbiased for k = 2. Odd k is accepted and computed with the sign of each
// sum preserved, but the result is not an estimate of F_k.
//
// [1] https://doi.org/10.1006/jcss.1997.1545
package ams

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/keilerkonzept/ams/internal/bytesconv"
)

// Sketch is a frequency moment sketch.
// All state fields are exported and can be serialized with any serialization method.
type Sketch struct {
	K     int      // Moment order.
	Width int      // Number of counters per estimator (s1).
	Depth int      // Number of estimators (s2).
	Hash  HashFunc // Seeded hash deciding counter signs.

	// Mass is the sum of |count| over all updates. It bounds |Sum| of every counter.
	Mass int64

	Counters []Counter // Depth rows of Width counters, row-major.

	rand *rand.Rand
}

// Counter is a single randomized ±1 projection of the stream.
type Counter struct {
	Seed uint32
	Sum  int64
}

// New returns a sketch estimating the k-th frequency moment over a universe of n items
// within relative error lambda with probability at least 1-epsilon.
//
//   - The width and depth are computed by [Dimensions] unless the [WithWidth] or [WithDepth] options are set.
//   - The hash defaults to [HashXXH32] unless the [WithHash] option is set.
//   - Seeds are drawn from the process-wide random source unless the [WithRand] option is set.
//
// Invalid parameters are rejected before any memory is allocated or randomness consumed.
func New(k, n int, lambda, epsilon float64, opts ...Option) (*Sketch, error) {
	width, depth, err := Dimensions(k, n, lambda, epsilon)
	if err != nil {
		return nil, err
	}

	out := Sketch{
		K:     k,
		Width: width,
		Depth: depth,
		Hash:  HashXXH32,
	}

	for _, o := range opts {
		o(&out)
	}

	if err := out.validate(); err != nil {
		return nil, err
	}

	out.initCounters()
	out.rand = nil

	return &out, nil
}

func (me *Sketch) validate() error {
	switch {
	case me.Width < 1:
		return fmt.Errorf("%w: width=%d must be at least 1", ErrInvalidParameter, me.Width)
	case me.Depth < 1:
		return fmt.Errorf("%w: depth=%d must be at least 1", ErrInvalidParameter, me.Depth)
	case me.Width > math.MaxInt32/me.Depth:
		return fmt.Errorf("%w: %d x %d counters is too large", ErrInvalidParameter, me.Width, me.Depth)
	case !me.Hash.Valid():
		return fmt.Errorf("%w: unknown hash %v", ErrInvalidParameter, me.Hash)
	}
	return nil
}

func (me *Sketch) initCounters() {
	me.Counters = make([]Counter, me.Width*me.Depth)
	for i := range me.Counters {
		me.Counters[i].Seed = Seed(me.rand)
	}
}

// SizeBytes returns the current size of the sketch in bytes.
func (me *Sketch) SizeBytes() int {
	return sizeofSketchStruct + len(me.Counters)*sizeofCounterStruct
}

// Row returns the counters of the i-th estimator.
func (me *Sketch) Row(i int) []Counter {
	return me.Counters[i*me.Width : (i+1)*me.Width]
}

// Update counts a single occurrence of the given item.
func (me *Sketch) Update(item uint64) error {
	return me.Add(item, 1)
}

// Add counts the given item `count` times. A negative count removes occurrences.
func (me *Sketch) Add(item uint64, count int64) error {
	var buf [bytesconv.ItemSize]byte
	return me.add(bytesconv.Item(&buf, item), count)
}

// UpdateString counts a single occurrence of the given string item.
func (me *Sketch) UpdateString(item string) error {
	return me.AddString(item, 1)
}

// AddString counts the given string item `count` times.
func (me *Sketch) AddString(item string, count int64) error {
	return me.add(bytesconv.String(item), count)
}

func (me *Sketch) add(data []byte, count int64) error {
	if count == 0 {
		return nil
	}
	mass, err := AddMass(me.Mass, count)
	if err != nil {
		return err
	}
	me.Mass = mass

	// O(width * depth)
	h := me.Hash
	for i := range me.Counters {
		c := &me.Counters[i]
		c.Sum += h.Sign(c.Seed, data) * count
	}
	return nil
}

// AddMass returns mass+|count|, or ErrAccumulatorOverflow if that exceeds math.MaxInt64.
func AddMass(mass, count int64) (int64, error) {
	if count == math.MinInt64 {
		return mass, fmt.Errorf("%w: count %d", ErrAccumulatorOverflow, count)
	}
	if count < 0 {
		count = -count
	}
	if count > math.MaxInt64-mass {
		return mass, fmt.Errorf("%w: mass %d + %d exceeds %d", ErrAccumulatorOverflow, mass, count, int64(math.MaxInt64))
	}
	return mass + count, nil
}

// Means returns the per-estimator means of Sum^K.
func (me *Sketch) Means() []float64 {
	out := make([]float64, me.Depth)
	for i := range out {
		var sum float64
		for _, c := range me.Row(i) {
			sum += Moment(c.Sum, me.K)
		}
		out[i] = sum / float64(me.Width)
	}
	return out
}

// Estimate returns the current estimate of the K-th frequency moment.
// It returns 0 for a sketch without updates.
func (me *Sketch) Estimate() float64 {
	return Median(me.Means())
}

// Moment returns sum^k, negative when sum is negative and k is odd.
func Moment(sum int64, k int) float64 {
	return math.Pow(float64(sum), float64(k))
}

// Median returns the median of values without modifying them.
// For an even number of values it is the mean of the two middle values; for none it is 0.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	center := n / 2
	if n%2 == 1 {
		return sorted[center]
	}
	return (sorted[center-1] + sorted[center]) / 2
}

// Compatible returns whether other has the same shape, hash and counter seeds,
// so that the two sketches can be merged.
func (me *Sketch) Compatible(other *Sketch) bool {
	if me.K != other.K || me.Width != other.Width || me.Depth != other.Depth || me.Hash != other.Hash {
		return false
	}
	if len(me.Counters) != len(other.Counters) {
		return false
	}
	for i := range me.Counters {
		if me.Counters[i].Seed != other.Counters[i].Seed {
			return false
		}
	}
	return true
}

// Merge adds the counters of other into this sketch.
// The result is the sketch of the concatenation of both streams.
// The sketches must be [Sketch.Compatible], e.g. one obtained from the other by [Sketch.Fork].
func (me *Sketch) Merge(other *Sketch) error {
	if !me.Compatible(other) {
		return fmt.Errorf("%w: k=%d/%d, width=%d/%d, depth=%d/%d, hash=%v/%v or seeds differ",
			ErrIncompatible, me.K, other.K, me.Width, other.Width, me.Depth, other.Depth, me.Hash, other.Hash)
	}
	mass, err := AddMass(me.Mass, other.Mass)
	if err != nil {
		return err
	}
	me.Mass = mass
	for i := range me.Counters {
		me.Counters[i].Sum += other.Counters[i].Sum
	}
	return nil
}

// Fork returns an empty sketch with the same parameters and counter seeds.
func (me *Sketch) Fork() *Sketch {
	out := me.Clone()
	out.Reset()
	return out
}

// Clone returns a deep copy of the sketch.
func (me *Sketch) Clone() *Sketch {
	out := *me
	out.Counters = slices.Clone(me.Counters)
	return &out
}

// Reset resets the sketch to an empty state, keeping its seeds.
func (me *Sketch) Reset() {
	me.Mass = 0
	for i := range me.Counters {
		me.Counters[i].Sum = 0
	}
}
