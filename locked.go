package ams

import "sync"

// Locked guards a sketch for use by concurrent writers and readers.
type Locked struct {
	mu     sync.RWMutex
	sketch *Sketch
}

// NewLocked wraps s. The caller must not use s directly afterwards.
func NewLocked(s *Sketch) *Locked {
	return &Locked{sketch: s}
}

// Update counts a single occurrence of the given item.
func (me *Locked) Update(item uint64) error {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.sketch.Update(item)
}

// Add counts the given item `count` times.
func (me *Locked) Add(item uint64, count int64) error {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.sketch.Add(item, count)
}

// UpdateString counts a single occurrence of the given string item.
func (me *Locked) UpdateString(item string) error {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.sketch.UpdateString(item)
}

// AddString counts the given string item `count` times.
func (me *Locked) AddString(item string, count int64) error {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.sketch.AddString(item, count)
}

// MergeFrom adds a shard's counters, e.g. from a sketch obtained with [Locked.Fork].
func (me *Locked) MergeFrom(shard *Sketch) error {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.sketch.Merge(shard)
}

// Fork returns an empty, unguarded sketch that can later be merged back with [Locked.MergeFrom].
func (me *Locked) Fork() *Sketch {
	me.mu.RLock()
	defer me.mu.RUnlock()
	return me.sketch.Fork()
}

// Estimate returns the current estimate of the K-th frequency moment.
func (me *Locked) Estimate() float64 {
	me.mu.RLock()
	defer me.mu.RUnlock()
	return me.sketch.Estimate()
}

// Snapshot returns a copy of the guarded sketch.
func (me *Locked) Snapshot() *Sketch {
	me.mu.RLock()
	defer me.mu.RUnlock()
	return me.sketch.Clone()
}
