// Package sliding implements a sliding-window frequency moment sketch.
//
// Each counter of the sketch keeps its sum split into time slots. Since every counter is a linear
// function of the stream, expiring a slot removes exactly the updates made during it.
package sliding

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/keilerkonzept/ams"
	"github.com/keilerkonzept/ams/internal/bytesconv"
	"github.com/keilerkonzept/ams/internal/sizeof"
)

// Sketch is a sliding-window frequency moment sketch.
// The entire structure is serializable using any serialization method - all state fields are exported.
type Sketch struct {
	K             int          // Moment order.
	Width         int          // Number of counters per estimator.
	Depth         int          // Number of estimators.
	Hash          ams.HashFunc // Seeded hash deciding counter signs.
	WindowSize    int          // N: window size in ticks.
	HistoryLength int          // d: Number of time slots per counter.

	TicksPerSlot int // ceil(N/d)
	TicksInSlot  int // Ticks elapsed since the newest slot started.

	// Mass is the sum of |count| over the updates in the window. It bounds |Sum| of every counter.
	Mass int64
	// SlotMass is a circular buffer of per-slot masses (with the newest slot at .SlotFirst),
	// rotated in step with every counter's Counts.
	SlotMass  []int64
	SlotFirst uint32

	Counters []Counter // Depth rows of Width counters, row-major.

	rand *rand.Rand
}

// New returns a sliding-window sketch estimating the k-th frequency moment of the updates made
// during the last `windowSize` ticks, over a universe of n items, within relative error lambda
// with probability at least 1-epsilon.
//
//   - The width and depth are computed by [ams.Dimensions] unless the [WithWidth] or [WithDepth] options are set.
//   - The history length defaults to `windowSize` unless the [WithHistoryLength] option is set.
//     With fewer slots than ticks, updates expire a whole slot at a time.
//   - The hash defaults to [ams.HashXXH32] unless the [WithHash] option is set.
func New(k, n int, lambda, epsilon float64, windowSize int, opts ...Option) (*Sketch, error) {
	width, depth, err := ams.Dimensions(k, n, lambda, epsilon)
	if err != nil {
		return nil, err
	}
	if windowSize < 1 {
		return nil, fmt.Errorf("%w: window size %d must be at least 1", ams.ErrInvalidParameter, windowSize)
	}

	// default settings
	out := Sketch{
		K:             k,
		Width:         width,
		Depth:         depth,
		Hash:          ams.HashXXH32,
		WindowSize:    windowSize,
		HistoryLength: windowSize,
	}

	for _, o := range opts {
		o(&out)
	}

	if out.HistoryLength < 1 {
		out.HistoryLength = 1
	}
	if out.HistoryLength >= out.WindowSize {
		out.HistoryLength = out.WindowSize
	}
	out.TicksPerSlot = (out.WindowSize + out.HistoryLength - 1) / out.HistoryLength

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
		return fmt.Errorf("%w: width=%d must be at least 1", ams.ErrInvalidParameter, me.Width)
	case me.Depth < 1:
		return fmt.Errorf("%w: depth=%d must be at least 1", ams.ErrInvalidParameter, me.Depth)
	case me.Width > math.MaxInt32/me.Depth/me.HistoryLength:
		return fmt.Errorf("%w: %d x %d x %d counts is too large", ams.ErrInvalidParameter, me.Width, me.Depth, me.HistoryLength)
	case !me.Hash.Valid():
		return fmt.Errorf("%w: unknown hash %v", ams.ErrInvalidParameter, me.Hash)
	}
	return nil
}

func (me *Sketch) initCounters() {
	me.SlotMass = make([]int64, me.HistoryLength)
	me.Counters = make([]Counter, me.Width*me.Depth)
	counts := make([]int64, len(me.Counters)*me.HistoryLength)
	for i := range me.Counters {
		me.Counters[i].Seed = ams.Seed(me.rand)
		me.Counters[i].Counts = counts[i*me.HistoryLength : (i+1)*me.HistoryLength : (i+1)*me.HistoryLength]
	}
}

// SizeBytes returns the current size of the sketch in bytes.
func (me *Sketch) SizeBytes() int {
	countsSize := sizeof.Int64 * me.HistoryLength * (len(me.Counters) + 1)
	return sizeofSketchStruct +
		sizeofCounterStruct*len(me.Counters) +
		countsSize
}

// Tick advances time by one unit (of the N units in a window)
func (me *Sketch) Tick() { me.Ticks(1) }

// Ticks advances time by n units (of the N units in a window)
func (me *Sketch) Ticks(n int) {
	if n <= 0 {
		return
	}
	if n >= me.WindowSize {
		me.Reset()
		return
	}
	elapsed := me.TicksInSlot + n
	slots := elapsed / me.TicksPerSlot
	me.TicksInSlot = elapsed % me.TicksPerSlot

	if slots >= me.HistoryLength {
		me.clear()
		return
	}
	for range slots {
		me.tickMass()
	}
	for i := range me.Counters {
		c := &me.Counters[i]
		for range slots {
			c.tick()
		}
	}
}

// Update counts a single occurrence of the given item in the current slot.
func (me *Sketch) Update(item uint64) error {
	return me.Add(item, 1)
}

// Add counts the given item `count` times in the current slot.
func (me *Sketch) Add(item uint64, count int64) error {
	var buf [bytesconv.ItemSize]byte
	return me.add(bytesconv.Item(&buf, item), count)
}

// UpdateString counts a single occurrence of the given string item in the current slot.
func (me *Sketch) UpdateString(item string) error {
	return me.AddString(item, 1)
}

// AddString counts the given string item `count` times in the current slot.
func (me *Sketch) AddString(item string, count int64) error {
	return me.add(bytesconv.String(item), count)
}

func (me *Sketch) add(data []byte, count int64) error {
	if count == 0 {
		return nil
	}
	mass, err := ams.AddMass(me.Mass, count)
	if err != nil {
		return err
	}
	me.SlotMass[me.SlotFirst] += mass - me.Mass
	me.Mass = mass

	h := me.Hash
	for i := range me.Counters {
		c := &me.Counters[i]
		c.add(h.Sign(c.Seed, data) * count)
	}
	return nil
}

// Means returns the per-estimator means of Sum^K over the window.
func (me *Sketch) Means() []float64 {
	out := make([]float64, me.Depth)
	for i := range out {
		var sum float64
		for _, c := range me.Counters[i*me.Width : (i+1)*me.Width] {
			sum += ams.Moment(c.Sum, me.K)
		}
		out[i] = sum / float64(me.Width)
	}
	return out
}

// Estimate returns the current estimate of the K-th frequency moment of the window.
func (me *Sketch) Estimate() float64 {
	return ams.Median(me.Means())
}

// tickMass expires the oldest slot's mass, mirroring Counter.tick.
func (me *Sketch) tickMass() {
	last := me.SlotFirst
	if last == 0 {
		last = uint32(len(me.SlotMass) - 1)
	} else {
		last--
	}
	me.Mass -= me.SlotMass[last]
	me.SlotMass[last] = 0
	me.SlotFirst = last
}

func (me *Sketch) clear() {
	me.Mass = 0
	clear(me.SlotMass)
	me.SlotFirst = 0
	for i := range me.Counters {
		me.Counters[i].clear()
	}
}

// Reset resets the sketch to an empty state, keeping its seeds.
func (me *Sketch) Reset() {
	me.TicksInSlot = 0
	me.clear()
}
