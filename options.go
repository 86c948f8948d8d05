package ams

import "math/rand/v2"

type Option func(*Sketch)

// WithDepth overrides the number of estimators (median-of-means rows) of a sketch.
func WithDepth(depth int) Option { return func(s *Sketch) { s.Depth = depth } }

// WithWidth overrides the number of counters per estimator of a sketch.
func WithWidth(width int) Option { return func(s *Sketch) { s.Width = width } }

// WithHash sets the seeded hash used to derive counter signs.
func WithHash(h HashFunc) Option { return func(s *Sketch) { s.Hash = h } }

// WithRand sets the random source the counter seeds are drawn from.
// Sketches built from identically seeded sources get identical counter seeds.
func WithRand(r *rand.Rand) Option { return func(s *Sketch) { s.rand = r } }
