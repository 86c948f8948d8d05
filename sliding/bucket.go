package sliding

// Counter is a single randomized ±1 projection of the stream, split into time slots.
type Counter struct {
	Seed uint32

	// Counts is a circular buffer of per-slot sums (with the newest slot at .First)
	Counts []int64
	First  uint32
	// Sum is the current sum of Counts
	Sum int64
}

// tick expires the oldest slot, which becomes the new newest slot.
func (me *Counter) tick() {
	last := me.First
	if last == 0 {
		last = uint32(len(me.Counts) - 1)
	} else {
		last--
	}
	me.Sum -= me.Counts[last]
	me.Counts[last] = 0
	me.First = last
}

func (me *Counter) add(delta int64) {
	me.Counts[me.First] += delta
	me.Sum += delta
}

func (me *Counter) clear() {
	clear(me.Counts)
	me.First = 0
	me.Sum = 0
}
