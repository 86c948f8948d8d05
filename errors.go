package ams

import "errors"

var (
	// ErrInvalidParameter is returned when a sketch is constructed with out-of-range parameters.
	ErrInvalidParameter = errors.New("ams: invalid parameter")
	// ErrAccumulatorOverflow is returned when an update could overflow a counter.
	ErrAccumulatorOverflow = errors.New("ams: accumulator overflow")
	// ErrIncompatible is returned when merging sketches with different shapes, hashes or seeds.
	ErrIncompatible = errors.New("ams: incompatible sketches")
)
