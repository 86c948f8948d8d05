// Package validation compares sketch estimates against exactly computed frequency moments.
package validation

import "github.com/keilerkonzept/ams"

// Exact is an exact frequency table.
type Exact[T comparable] struct {
	K      int
	Counts map[T]int64
}

// NewExact returns an empty frequency table for the k-th moment.
func NewExact[T comparable](k int) *Exact[T] {
	return &Exact[T]{K: k, Counts: make(map[T]int64)}
}

// Update counts a single occurrence of item.
func (me *Exact[T]) Update(item T) { me.Add(item, 1) }

// Add counts item `count` times.
func (me *Exact[T]) Add(item T, count int64) {
	c := me.Counts[item] + count
	if c == 0 {
		delete(me.Counts, item)
		return
	}
	me.Counts[item] = c
}

// Moment returns the exact K-th frequency moment.
func (me *Exact[T]) Moment() float64 {
	var sum float64
	for _, c := range me.Counts {
		sum += ams.Moment(c, me.K)
	}
	return sum
}
